package assistant

import (
	"context"
	"fmt"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/cohere"
	"github.com/LeEricCH/cohere-slack-starter-app/internal/slack"
)

// Messenger is the subset of the Slack client the assistant needs. The
// concrete implementation is internal/slack.Client; tests substitute mocks.
type Messenger interface {
	PostMessage(ctx context.Context, channel, threadTS, text string, blocks []slack.Block) (string, error)
	UpdateMessage(ctx context.Context, channel, ts, text string, blocks []slack.Block) error
	PostEphemeral(ctx context.Context, channel, user, threadTS, text string, blocks []slack.Block) error
	ThreadReplies(ctx context.Context, channel, threadTS string) ([]slack.Message, error)
	ChannelHistory(ctx context.Context, channel string, limit int) ([]slack.Message, error)
	OpenView(ctx context.Context, triggerID string, view slack.ModalView) error
}

// Generator produces answers from conversation turns.
type Generator interface {
	Chat(ctx context.Context, req cohere.ChatRequest) (*cohere.ChatResponse, error)
}

// TurnsFromMessages maps thread messages to role-tagged turns. A message is
// a USER turn iff its author is the user making the current request; every
// other author, the bot included, becomes an ASSISTANT turn. Roles are never
// persisted: they are re-derived from author identity on every request, so
// the same transcript reads differently for different requesters.
func TurnsFromMessages(msgs []slack.Message, requestingUser string) []cohere.Turn {
	turns := make([]cohere.Turn, 0, len(msgs))
	for _, msg := range msgs {
		role := cohere.RoleAssistant
		if msg.User == requestingUser {
			role = cohere.RoleUser
		}
		turns = append(turns, cohere.Turn{Role: role, Message: msg.Text})
	}
	return turns
}

// threadTurns fetches a thread's messages and derives turns for the
// requesting user. Platform read failures are fatal for the request.
func threadTurns(ctx context.Context, m Messenger, channel, threadTS, requestingUser string) ([]cohere.Turn, error) {
	msgs, err := m.ThreadReplies(ctx, channel, threadTS)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptUnavailable, err)
	}
	return TurnsFromMessages(msgs, requestingUser), nil
}
