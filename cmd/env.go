package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/oduo-labs/responder-cli/internal/campaign"
	"github.com/oduo-labs/responder-cli/internal/drafter"
	"github.com/oduo-labs/responder-cli/internal/responder"
	"github.com/oduo-labs/responder-cli/internal/store"
	"github.com/oduo-labs/responder-cli/internal/transport"
	"github.com/oduo-labs/responder-cli/pkg/anthropic"
)

// env holds the wired application dependencies shared by commands.
type env struct {
	Store     store.Store
	Sender    transport.Sender
	Responder *responder.Service
	Runner    *campaign.Runner
}

func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// openStore connects the configured backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error

	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// initEnv wires the full pipeline. The sender and drafter are optional:
// without Chatwoot credentials replies are drafted but not delivered, and
// without an Anthropic key the responder falls back to canned replies.
func initEnv(ctx context.Context) (*env, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	var snd transport.Sender
	if cfg.Chatwoot.BaseURL != "" {
		snd = transport.NewChatwoot(transport.Options{
			BaseURL:    cfg.Chatwoot.BaseURL,
			Token:      cfg.Chatwoot.Token,
			AccountID:  cfg.Chatwoot.AccountID,
			InboxID:    cfg.Chatwoot.InboxID,
			RatePerSec: cfg.Chatwoot.RatePerSec,
		})
	}

	var d drafter.Drafter
	if cfg.Anthropic.Key != "" {
		d = drafter.New(anthropic.NewClient(cfg.Anthropic.Key), drafter.Options{
			Model:       cfg.Anthropic.Model,
			MaxTokens:   cfg.Anthropic.MaxTokens,
			Temperature: cfg.Anthropic.Temperature,
			Window:      cfg.Responder.HistoryWindow,
		})
	}

	persona, err := responder.LoadPersona(cfg.Responder.PersonaPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	svc := responder.NewService(st, d, snd, persona, responder.Options{
		BookingLink:  cfg.Responder.BookingLink,
		DefaultNiche: cfg.Responder.DefaultNiche,
	})

	runner := campaign.NewRunner(st, snd, campaign.Options{
		Delay:           time.Duration(cfg.Campaign.DelaySeconds) * time.Second,
		RecontactWindow: time.Duration(cfg.Campaign.RecontactDays) * 24 * time.Hour,
		Tag:             cfg.Campaign.Tag,
	})

	return &env{Store: st, Sender: snd, Responder: svc, Runner: runner}, nil
}
