package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"brokerdesk/internal/app"
	"brokerdesk/internal/engine"
	"brokerdesk/internal/jobs"
	"brokerdesk/internal/metrics"
	"brokerdesk/internal/server"
	"brokerdesk/internal/viewmodel"
)

func serveCmd() *cobra.Command {
	var addr, basePath string
	var tokenTTL time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, webhooks and the reminder job",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withWorkspace(ctx, func(ctx context.Context, w *app.Workspace) error {
				cfg := w.Config
				log := app.NewLogger(cfg, viper.GetString("log-level"), os.Stderr)
				secret := viper.GetString("jwt-secret")
				if secret == "" {
					return fmt.Errorf("BROKERDESK_JWT_SECRET (or --jwt-secret) is required for bearer auth")
				}
				if addr == "" {
					addr = cfg.Server.Addr
				}
				if basePath == "" {
					basePath = cfg.Server.BasePath
				}
				e := w.Engine()
				sessions, err := viewmodel.NewStore(cfg.Sessions.Max)
				if err != nil {
					return err
				}
				m := metrics.New(sessions.Len)
				handler, err := server.New(server.Config{
					Engine:   e,
					Sessions: sessions,
					BasePath: basePath,
					Auth:     server.AuthConfig{JWTSecret: secret, TokenTTL: tokenTTL},
					Log:      log,
					Metrics:  m,
				})
				if err != nil {
					return err
				}
				if d := server.NewWebhookDispatcher(e, log, m); d != nil {
					go d.Run(ctx)
				}
				if cfg.Reminders.Enabled {
					sched, err := startReminders(e, log, m)
					if err != nil {
						return err
					}
					defer func() {
						stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
						defer cancel()
						sched.Stop(stopCtx)
					}()
				}

				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				log.Info("serving brokerdesk API", "addr", "http://"+addr+basePath, "office", cfg.Office.Name, "docs", "/docs", "metrics", "/metrics")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				log.Info("server stopped")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from brokerdesk.yml)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from brokerdesk.yml)")
	cmd.Flags().String("jwt-secret", "", "HS256 secret for bearer tokens")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", 12*time.Hour, "lifetime of dev-login tokens")
	_ = viper.BindPFlag("jwt-secret", cmd.Flags().Lookup("jwt-secret"))
	return cmd
}

func startReminders(e engine.Engine, log *slog.Logger, m *metrics.Metrics) (*jobs.Scheduler, error) {
	loc, err := e.Config.Location()
	if err != nil {
		return nil, err
	}
	return jobs.Start(e.Config.Reminders.Cron, loc, jobs.Reminders{
		Engine: e,
		Log:    log.With("component", "reminders"),
		OnSent: func(engine.Digest) { m.RemindersSent.Inc() },
	})
}
