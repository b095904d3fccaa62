package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant over Slack Socket Mode",
	Long: `Connects to Slack over Socket Mode and serves /ask conversations,
feedback actions, and thread summaries until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(config.TransportSocket); err != nil {
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

		logger.Info().Msg("starting socket mode")
		if err := router.RunSocket(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("socket mode: %w", err)
		}
		logger.Info().Msg("shutting down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
