package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/assistant"
	"github.com/LeEricCH/cohere-slack-starter-app/internal/bot"
	"github.com/LeEricCH/cohere-slack-starter-app/internal/cohere"
	"github.com/LeEricCH/cohere-slack-starter-app/internal/config"
	"github.com/LeEricCH/cohere-slack-starter-app/internal/dedupe"
	"github.com/LeEricCH/cohere-slack-starter-app/internal/slack"
	"github.com/LeEricCH/cohere-slack-starter-app/internal/summarize"

	openai "github.com/sashabaranov/go-openai"
)

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// buildRouter wires the full application: Slack client, Cohere generator,
// citation store, optional feedback log, and the feature components behind
// the router. The returned cleanup closes the feedback log.
func buildRouter(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*bot.Router, func(), error) {
	cleanup := func() {}

	slackClient := slack.NewClient(cfg.SlackBotToken, cfg.SlackAppToken)
	auth, err := slackClient.AuthTest(ctx)
	if err != nil {
		return nil, cleanup, fmt.Errorf("authenticating with slack: %w", err)
	}
	logger.Info().Str("bot_user", auth.UserID).Str("team", auth.TeamID).Msg("authenticated with slack")

	generator := cohere.NewClient(cfg.CohereAPIKey, cfg.CohereModel)
	citations := assistant.NewCitationStore()
	responder := assistant.NewResponder(slackClient, generator, citations, logger)

	var feedbackLog assistant.DedupeLog
	if cfg.DataDir != "" {
		store, err := dedupe.Open(filepath.Join(cfg.DataDir, "feedback.db"))
		if err != nil {
			return nil, cleanup, fmt.Errorf("opening feedback log: %w", err)
		}
		if err := store.Sweep(ctx); err != nil {
			logger.Warn().Err(err).Msg("sweeping feedback log failed")
		}
		cleanup = func() { store.Close() }
		feedbackLog = store
	}
	feedback := assistant.NewFeedback(slackClient, cfg.FeedbackChannel, feedbackLog, logger)

	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)
	summarizer := summarize.New(slackClient, openaiClient, cfg.OpenAIModel)

	router := bot.NewRouter(slackClient, responder, feedback, summarizer, auth.UserID, logger)
	return router, cleanup, nil
}
