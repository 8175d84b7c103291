package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Chatwoot  ChatwootConfig  `yaml:"chatwoot" mapstructure:"chatwoot"`
	Campaign  CampaignConfig  `yaml:"campaign" mapstructure:"campaign"`
	Responder ResponderConfig `yaml:"responder" mapstructure:"responder"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnthropicConfig holds Anthropic API settings for reply drafting.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// ChatwootConfig holds the WhatsApp gateway (Chatwoot) settings.
type ChatwootConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	Token      string  `yaml:"token" mapstructure:"token"`
	AccountID  int     `yaml:"account_id" mapstructure:"account_id"`
	InboxID    int     `yaml:"inbox_id" mapstructure:"inbox_id"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// CampaignConfig configures bulk send behavior.
type CampaignConfig struct {
	DelaySeconds  int    `yaml:"delay_seconds" mapstructure:"delay_seconds"`
	RecontactDays int    `yaml:"recontact_days" mapstructure:"recontact_days"`
	Tag           string `yaml:"tag" mapstructure:"tag"`
}

// ResponderConfig configures reply drafting and qualification.
type ResponderConfig struct {
	BookingLink   string `yaml:"booking_link" mapstructure:"booking_link"`
	PersonaPath   string `yaml:"persona_path" mapstructure:"persona_path"`
	DefaultNiche  string `yaml:"default_niche" mapstructure:"default_niche"`
	HistoryWindow int    `yaml:"history_window" mapstructure:"history_window"`
	AutoSend      bool   `yaml:"auto_send" mapstructure:"auto_send"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RESPONDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "responder.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 300)
	v.SetDefault("anthropic.temperature", 0.7)
	v.SetDefault("chatwoot.rate_per_sec", 0.5)
	v.SetDefault("campaign.delay_seconds", 30)
	v.SetDefault("campaign.recontact_days", 30)
	v.SetDefault("campaign.tag", "reativacao")
	v.SetDefault("responder.default_niche", "locadora")
	v.SetDefault("responder.history_window", 10)
	v.SetDefault("responder.auto_send", false)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
