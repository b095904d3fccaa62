package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/config"
	"github.com/LeEricCH/cohere-slack-starter-app/internal/server"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run the assistant as an HTTP endpoint for Slack event delivery",
	Long: `Serves the Slack Events API, interactivity, and slash command endpoints
over HTTP with request signature verification, for deployments that do
not use Socket Mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(config.TransportHTTP); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := newLogger(cfg)
		router, cleanup, err := buildRouter(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		srv := server.New(server.Config{
			ListenAddr:    cfg.ListenAddr,
			SigningSecret: cfg.SlackSigningSecret,
		}, router, logger)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
}
