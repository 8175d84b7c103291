package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oduo-labs/responder-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook and dashboard HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		srv := server.New(env.Store, env.Responder, env.Runner, server.Options{
			AutoSend:        cfg.Responder.AutoSend,
			BookingLink:     cfg.Responder.BookingLink,
			CampaignDelay:   time.Duration(cfg.Campaign.DelaySeconds) * time.Second,
			RecontactWindow: time.Duration(cfg.Campaign.RecontactDays) * 24 * time.Hour,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.Router(),
		}

		go awaitShutdown(ctx, httpSrv, 10*time.Second)

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Bool("auto_send", cfg.Responder.AutoSend),
		)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// awaitShutdown blocks until ctx is canceled, then drains the server under
// a fresh timeout context so in-flight requests can finish.
func awaitShutdown(ctx context.Context, srv *http.Server, timeout time.Duration) {
	<-ctx.Done()
	zap.L().Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
