package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Tyrowin/roomcast/internal/chat"
	"github.com/Tyrowin/roomcast/internal/metrics"
	"github.com/Tyrowin/roomcast/internal/server"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		port     string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "roomcast",
		Short: "Real-time broadcast chat server",
		Long: `roomcast serves a single chat room over WebSocket. Every participant
joins under a display name and receives every message published in the room,
in publish order, including their own.

Configuration is read from the environment (and a .env file if present):
SERVER_PORT, ALLOWED_ORIGINS, MAX_MESSAGE_SIZE, RATE_LIMIT_BURST,
RATE_LIMIT_REFILL_INTERVAL, SHUTDOWN_TIMEOUT, LOG_LEVEL, LOG_FORMAT.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg, err := server.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen address, overrides SERVER_PORT (e.g. :8080)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error; overrides LOG_LEVEL")
	return cmd
}

func run(ctx context.Context, cfg server.Config) error {
	log := server.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	log.Info("starting roomcast server")

	m := metrics.New()
	hub := chat.NewHub(chat.WithLogger(log), chat.WithMetrics(m))
	srv := server.New(cfg, hub, log, m)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), srv.Config().ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}
