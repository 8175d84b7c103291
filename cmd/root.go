package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oduo-labs/responder-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "responder-cli",
	Short: "WhatsApp sales conversation engine",
	Long:  "Classifies inbound WhatsApp messages, extracts qualification facts, drives the SPIN phase machine and drafts consultative replies. Also runs bulk reactivation campaigns over imported contact lists.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
