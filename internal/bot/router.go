// Package bot routes Slack envelopes and events to the assistant, feedback,
// and summarizer components.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/assistant"
	"github.com/LeEricCH/cohere-slack-starter-app/internal/slack"
	"github.com/LeEricCH/cohere-slack-starter-app/internal/summarize"
)

// AskCommand is the slash command that starts a conversation.
const AskCommand = "/ask"

// reconnectDelay paces Socket Mode redial attempts.
const reconnectDelay = 2 * time.Second

// Gateway is the slice of the Slack client the router itself uses.
// *slack.Client satisfies it.
type Gateway interface {
	PostMessage(ctx context.Context, channel, threadTS, text string, blocks []slack.Block) (string, error)
	PostEphemeral(ctx context.Context, channel, user, threadTS, text string, blocks []slack.Block) error
	ConnectSocket(ctx context.Context) (*websocket.Conn, error)
}

// Router dispatches Socket Mode envelopes and Events API callbacks to the
// feature components. Every dispatch runs in its own goroutine so a slow
// model call never stalls envelope acking.
type Router struct {
	slack      Gateway
	responder  *assistant.Responder
	feedback   *assistant.Feedback
	summarizer *summarize.Summarizer
	botUserID  string
	logger     zerolog.Logger
}

func NewRouter(gateway Gateway, responder *assistant.Responder, feedback *assistant.Feedback, summarizer *summarize.Summarizer, botUserID string, logger zerolog.Logger) *Router {
	return &Router{
		slack:      gateway,
		responder:  responder,
		feedback:   feedback,
		summarizer: summarizer,
		botUserID:  botUserID,
		logger:     logger.With().Str("component", "router").Logger(),
	}
}

// RunSocket connects to Slack over Socket Mode and consumes envelopes until
// the context is canceled, redialing after connection loss or a requested
// disconnect.
func (r *Router) RunSocket(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := r.slack.ConnectSocket(ctx)
		if err != nil {
			r.logger.Error().Err(err).Msg("socket connect failed, retrying")
			if !sleepCtx(ctx, reconnectDelay) {
				return ctx.Err()
			}
			continue
		}
		r.logger.Info().Msg("socket mode connected")

		err = slack.ConsumeSocket(ctx, conn, func(env slack.SocketEnvelope) error {
			r.HandleEnvelope(ctx, env)
			return nil
		})
		conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			r.logger.Warn().Err(err).Msg("socket connection lost, reconnecting")
		} else {
			r.logger.Info().Msg("slack requested reconnect")
		}
		if !sleepCtx(ctx, reconnectDelay) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// HandleEnvelope decodes a Socket Mode envelope and dispatches it
// asynchronously. Malformed payloads are logged and dropped.
func (r *Router) HandleEnvelope(ctx context.Context, env slack.SocketEnvelope) {
	logger := r.logger.With().Str("dispatch_id", uuid.NewString()).Logger()

	switch env.Type {
	case slack.EnvelopeSlashCommands:
		var cmd slack.SlashCommand
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			logger.Error().Err(err).Msg("decoding slash command envelope")
			return
		}
		go func() {
			if err := r.HandleSlashCommand(ctx, &cmd); err != nil {
				logger.Error().Err(err).Str("command", cmd.Command).Msg("slash command failed")
			}
		}()

	case slack.EnvelopeInteractive:
		p, err := slack.ParseInteractionPayload(env.Payload)
		if err != nil {
			logger.Error().Err(err).Msg("decoding interactive envelope")
			return
		}
		go func() {
			if err := r.HandleInteraction(ctx, p); err != nil {
				logger.Error().Err(err).Str("interaction", p.Type).Msg("interaction failed")
			}
		}()

	case slack.EnvelopeEventsAPI:
		var payload slack.EventsAPIPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			logger.Error().Err(err).Msg("decoding events envelope")
			return
		}
		var event slack.Event
		if err := json.Unmarshal(payload.Event, &event); err != nil {
			logger.Error().Err(err).Msg("decoding inner event")
			return
		}
		go func() {
			if err := r.HandleEvent(ctx, &event); err != nil {
				logger.Error().Err(err).Str("event", event.Type).Msg("event handling failed")
			}
		}()

	default:
		logger.Debug().Str("envelope_type", env.Type).Msg("ignoring envelope")
	}
}

// HandleSlashCommand starts a conversation for /ask: the question is posted
// as a channel message and the answer is generated in its thread.
func (r *Router) HandleSlashCommand(ctx context.Context, cmd *slack.SlashCommand) error {
	if cmd.Command != AskCommand {
		r.logger.Debug().Str("command", cmd.Command).Msg("ignoring unknown slash command")
		return nil
	}

	question := strings.TrimSpace(cmd.Text)
	if question == "" {
		return r.slack.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID, "",
			"Please include a question, e.g. `/ask what is the capital of France?`", nil)
	}

	rootTS, err := r.slack.PostMessage(ctx, cmd.ChannelID, "", assistant.QuestionPrefix+question, nil)
	if err != nil {
		return fmt.Errorf("posting question message: %w", err)
	}

	_, err = r.responder.Ask(ctx, cmd.ChannelID, rootTS, question, cmd.UserID)
	return err
}

// HandleInteraction dispatches block actions and modal submissions.
func (r *Router) HandleInteraction(ctx context.Context, p *slack.InteractionPayload) error {
	switch p.Type {
	case slack.InteractionBlockActions:
		for _, action := range p.Actions {
			if err := r.handleBlockAction(ctx, p, action); err != nil {
				return err
			}
		}
		return nil

	case slack.InteractionViewSubmission:
		if p.View != nil && p.View.CallbackID == assistant.FeedbackModalCallbackID {
			return r.feedback.HandleSubmission(ctx, p)
		}
		return nil

	default:
		return nil
	}
}

func (r *Router) handleBlockAction(ctx context.Context, p *slack.InteractionPayload, action slack.Action) error {
	switch action.ActionID {
	case assistant.ActionRegenerate:
		if p.Message == nil {
			return fmt.Errorf("regenerate action without message payload")
		}
		meta := assistant.ExtractMessageMeta(p.Message)
		threadTS := p.Message.ThreadTS
		if threadTS == "" {
			threadTS = p.Message.TS
		}
		return r.responder.Regenerate(ctx, p.Channel.ID, p.Message.TS, threadTS, meta.QuestionText, meta.AskerID)

	case assistant.ActionLike:
		r.feedback.Process(ctx, p, assistant.SentimentLike)
		return nil

	case assistant.ActionDislike:
		r.feedback.Process(ctx, p, assistant.SentimentDislike)
		return nil

	case assistant.ActionViewDocument:
		r.responder.ViewDocument(ctx, p)
		return nil

	default:
		// Overflow menus and link buttons only carry state. Acking is enough.
		return nil
	}
}

// HandleEvent dispatches Events API callbacks: thread replies become
// follow-up questions, app mentions run mention commands, and trigger
// reactions start the summarizer.
func (r *Router) HandleEvent(ctx context.Context, event *slack.Event) error {
	switch event.Type {
	case slack.EventTypeMessage:
		return r.handleThreadReply(ctx, event)

	case slack.EventTypeAppMention:
		return r.handleMention(ctx, event)

	case slack.EventTypeReactionAdded:
		if event.Reaction != summarize.TriggerReaction {
			return nil
		}
		return r.summarizer.Summarize(ctx, event)

	default:
		return nil
	}
}

// handleThreadReply treats a user's reply inside a thread as a follow-up
// question. Bot messages, message edits, and thread roots are skipped so the
// bot never answers itself.
func (r *Router) handleThreadReply(ctx context.Context, event *slack.Event) error {
	if event.BotID != "" || event.Subtype != "" {
		return nil
	}
	if event.User == "" || event.User == r.botUserID {
		return nil
	}
	if event.ThreadTS == "" || event.ThreadTS == event.TS {
		return nil
	}

	_, err := r.responder.Ask(ctx, event.Channel, event.ThreadTS, event.Text, event.User)
	return err
}

// handleMention runs the word after the bot mention as a command. Only
// "ping" is wired.
func (r *Router) handleMention(ctx context.Context, event *slack.Event) error {
	fields := strings.Fields(event.Text)
	if len(fields) < 2 {
		return nil
	}
	if fields[1] != "ping" {
		return nil
	}
	_, err := r.slack.PostMessage(ctx, event.Channel, event.TS, "pong", nil)
	return err
}
