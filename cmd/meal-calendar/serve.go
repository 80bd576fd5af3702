package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"meal-calendar/internal/api"
	"meal-calendar/internal/auth"
	"meal-calendar/internal/metrics"
	"meal-calendar/internal/telegram"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const cleanupInterval = 24 * time.Hour

func newServeCmd(c *cli) *cobra.Command {
	var (
		port      string
		retention int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the Telegram webhook",
		Long: `Starts the JSON API on the given port. When TELEGRAM_BOT_TOKEN is set the
Telegram webhook is served from the same listener under /webhook.

Requests are authenticated with bearer tokens signed by API_SIGNING_KEY.
Without a signing key every request acts on the --user calendar.`,
		Example: `  # Start on the port from PORT (default 8080)
  meal-calendar serve

  # Start on a custom port and keep a week of metrics
  meal-calendar serve --port 3000 --metrics-retention 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if port == "" {
				port = c.cfg.Port
			}

			rt, err := setup(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			var issuer *auth.Issuer
			if c.cfg.APISigningKey != "" {
				issuer, err = auth.NewIssuer(c.cfg.APISigningKey, auth.DefaultTTL)
				if err != nil {
					return err
				}
			} else {
				zap.L().Warn("API_SIGNING_KEY not set, API requests are not authenticated",
					zap.String("user", c.user))
			}

			mux := http.NewServeMux()
			api.NewServer(rt.app, issuer, c.user).Routes(mux)

			var bot *telegram.Bot
			if c.cfg.TelegramBotToken != "" {
				bot, err = telegram.NewBot(c.cfg, rt.app, rt.metrics)
				if err != nil {
					return err
				}
				bot.RegisterHandlers(mux)
			}

			server := &http.Server{
				Addr:              ":" + port,
				Handler:           api.LogRequests(mux),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				zap.L().Info("Server listening", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				zap.L().Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown failed: %w", err)
				}
				if bot != nil {
					bot.Wait()
				}
				zap.L().Info("Server stopped")
				return nil
			})
			g.Go(func() error {
				pruneMetrics(gctx, rt.metrics, retention)
				return nil
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (defaults to PORT)")
	cmd.Flags().IntVar(&retention, "metrics-retention", 30, "Days of execution metrics to keep")

	return cmd
}

// pruneMetrics deletes old execution metrics once a day until ctx is done.
func pruneMetrics(ctx context.Context, store *metrics.Store, days int) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		n, err := store.Cleanup(ctx, days)
		if err != nil && ctx.Err() == nil {
			zap.L().Warn("Metrics cleanup failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Info("Pruned execution metrics", zap.Int64("rows", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
