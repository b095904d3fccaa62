// Package summarize condenses a Slack thread into a short overview when a
// user reacts to it with the trigger emoji.
package summarize

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/slack"
)

// TriggerReaction is the emoji name that invokes the summarizer.
const TriggerReaction = "eyes"

const systemPrompt = "Summarize this thread in max 3 sentences, without losing the context of the conversation. Be short an precise, you may use bullet points. Your goal is to give the reader a quick overview of the conversation."

// Messenger is the slice of the Slack client the summarizer needs.
type Messenger interface {
	ThreadReplies(ctx context.Context, channel, threadTS string) ([]slack.Message, error)
	PostEphemeral(ctx context.Context, channel, user, threadTS, text string, blocks []slack.Block) error
}

// Completer produces chat completions. *openai.Client satisfies it.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Summarizer fetches a reacted-to thread, maps it to a chat transcript, and
// posts the model's summary privately to the reacting user.
type Summarizer struct {
	slack  Messenger
	openai Completer
	model  string
}

func New(m Messenger, c Completer, model string) *Summarizer {
	return &Summarizer{slack: m, openai: c, model: model}
}

// Summarize handles a reaction_added event whose reaction matched
// TriggerReaction. Roles follow author equality with the reacting user: the
// reactor's messages become user turns, everyone else's assistant turns.
func (s *Summarizer) Summarize(ctx context.Context, event *slack.Event) error {
	if event.Item == nil || event.Item.Type != "message" {
		return nil
	}
	channel := event.Item.Channel
	threadTS := event.Item.TS

	replies, err := s.slack.ThreadReplies(ctx, channel, threadTS)
	if err != nil {
		return fmt.Errorf("fetching thread for summary: %w", err)
	}
	if len(replies) == 0 {
		return nil
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(replies)+1)
	for _, msg := range replies {
		role := openai.ChatMessageRoleAssistant
		if msg.User == event.User {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Text,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	resp, err := s.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   4096,
		Temperature: 0.3,
	})
	if err != nil {
		return fmt.Errorf("requesting thread summary: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("thread summary response had no choices")
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)

	blocks := []slack.Block{
		slack.SectionBlock("*Thread Summary*"),
		slack.DividerBlock(),
		slack.SectionBlock(summary),
	}
	if err := s.slack.PostEphemeral(ctx, channel, event.User, threadTS, "Thread summary", blocks); err != nil {
		return fmt.Errorf("posting thread summary: %w", err)
	}
	return nil
}
