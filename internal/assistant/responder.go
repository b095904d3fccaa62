package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/cohere"
	"github.com/LeEricCH/cohere-slack-starter-app/internal/slack"
)

// QuestionPrefix leads the question echo message that roots an answer
// thread. Regeneration falls back to the root to recover questions the
// overflow menu had to truncate.
const QuestionPrefix = "*Question:*\n"

const (
	placeholderText  = "Generating response..."
	regeneratingText = "Re-generating..."

	documentValuePrefix = "document_"

	// Slack caps plain_text option labels and values at 75 characters.
	optionTextMaxLen = 75
	// Slack caps section block text at 3000 characters.
	sectionTextMaxLen = 3000
)

// Responder owns the lifecycle of one in-place answer message: it posts the
// placeholder, runs the generation, and overwrites the same message with the
// rendered answer or an error. Regeneration repeats the cycle against the
// same message; the message's identity never changes.
type Responder struct {
	slack     Messenger
	generator Generator
	citations *CitationStore
	logger    zerolog.Logger
}

// NewResponder wires the responder's dependencies.
func NewResponder(m Messenger, g Generator, citations *CitationStore, logger zerolog.Logger) *Responder {
	return &Responder{
		slack:     m,
		generator: g,
		citations: citations,
		logger:    logger.With().Str("component", "responder").Logger(),
	}
}

// Ask posts a placeholder in the thread, generates an answer from the
// thread's transcript plus the question, and overwrites the placeholder
// with the result. It returns the response message's timestamp — the
// identity every later action (regenerate, feedback, detail view) refers
// back to.
func (r *Responder) Ask(ctx context.Context, channel, threadTS, question, askerID string) (string, error) {
	responseTS, err := r.slack.PostMessage(ctx, channel, threadTS, placeholderText, nil)
	if err != nil {
		return "", fmt.Errorf("posting placeholder: %w", err)
	}

	turns, err := threadTurns(ctx, r.slack, channel, threadTS, askerID)
	if err != nil {
		r.renderError(ctx, channel, responseTS, err)
		return responseTS, err
	}
	// The placeholder itself is the newest thread message; the question is
	// passed to the backend explicitly, so the transcript ends before it.
	if len(turns) > 0 {
		turns = turns[:len(turns)-1]
	}

	r.complete(ctx, channel, responseTS, turns, question, askerID)
	return responseTS, nil
}

// Regenerate overwrites an existing answer message with a regenerating
// placeholder and runs a fresh, independent generation cycle against it.
// The question and asker come from the triggering message's own embedded
// metadata, not from transcript scanning: later edits to the thread cannot
// change what "Regenerate" regenerates.
func (r *Responder) Regenerate(ctx context.Context, channel, responseTS, threadTS, question, askerID string) error {
	if err := r.slack.UpdateMessage(ctx, channel, responseTS, regeneratingText, nil); err != nil {
		return fmt.Errorf("writing regenerating placeholder: %w", err)
	}

	// The regeneration transcript is used verbatim: it already contains the
	// original question and the message being regenerated.
	msgs, err := r.slack.ThreadReplies(ctx, channel, threadTS)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrTranscriptUnavailable, err)
		r.renderError(ctx, channel, responseTS, err)
		return err
	}

	r.complete(ctx, channel, responseTS, TurnsFromMessages(msgs, askerID), recoverQuestion(question, msgs), askerID)
	return nil
}

// recoverQuestion swaps a truncated embedded question for the thread root's
// full question text. Overflow option values cap at 75 characters, so long
// questions come back ellipsized; the root echo message still holds the
// full text. The root is used only when it actually extends the truncated
// question, so follow-up answers in the same thread keep their own question.
func recoverQuestion(question string, msgs []slack.Message) string {
	if !strings.HasSuffix(question, "...") || len(msgs) == 0 {
		return question
	}
	root, ok := strings.CutPrefix(msgs[0].Text, QuestionPrefix)
	if !ok {
		return question
	}
	if strings.HasPrefix(root, strings.TrimSuffix(question, "...")) {
		return root
	}
	return question
}

// complete runs the generation and writes the final content. Exactly one
// placeholder write precedes exactly one final write per cycle.
func (r *Responder) complete(ctx context.Context, channel, responseTS string, turns []cohere.Turn, question, askerID string) {
	resp, err := generate(ctx, r.generator, turns, question)
	if err != nil {
		r.renderError(ctx, channel, responseTS, err)
		return
	}

	blocks := answerBlocks(resp.Text, resp.Documents, question, askerID)
	if err := r.slack.UpdateMessage(ctx, channel, responseTS, resp.Text, blocks); err != nil {
		r.logger.Error().Err(err).
			Str("channel", channel).
			Str("response_ts", responseTS).
			Msg("writing rendered answer failed")
		return
	}

	if len(resp.Documents) > 0 {
		r.citations.Record(channel, responseTS, resp.Documents)
	}

	r.logger.Info().
		Str("channel", channel).
		Str("response_ts", responseTS).
		Int("documents", len(resp.Documents)).
		Msg("answer rendered")
}

// renderError overwrites the placeholder with a user-facing error that
// includes the failure reason. No retry: the user can re-ask or click
// Regenerate.
func (r *Responder) renderError(ctx context.Context, channel, responseTS string, cause error) {
	reason := cause.Error()
	if genErr, ok := cause.(*GenerationError); ok {
		reason = genErr.Reason
	}
	text := fmt.Sprintf("Sorry, I encountered an error while generating a response. (Error: %s)", reason)
	if err := r.slack.UpdateMessage(ctx, channel, responseTS, text, nil); err != nil {
		r.logger.Error().Err(err).
			Str("channel", channel).
			Str("response_ts", responseTS).
			Msg("writing error message failed")
	}
}

// ViewDocument resolves a search-result selection made on an answer message
// and shows the document's details ephemerally. Misses — stale citations,
// malformed values — produce an apology notice, never a fault.
func (r *Responder) ViewDocument(ctx context.Context, p *slack.InteractionPayload) {
	channel := p.Channel.ID
	user := p.User.ID
	threadTS := ""
	responseTS := ""
	if p.Message != nil {
		responseTS = p.Message.TS
		threadTS = p.Message.ThreadTS
		if threadTS == "" {
			threadTS = p.Message.TS
		}
	}

	var selected string
	for _, action := range p.Actions {
		if action.ActionID == ActionViewDocument && action.SelectedOption != nil {
			selected = action.SelectedOption.Value
		}
	}
	if selected == "" {
		r.notify(ctx, channel, user, threadTS, "Sorry, I couldn't find the selected document. Please try again.")
		return
	}

	var index int
	if _, err := fmt.Sscanf(selected, documentValuePrefix+"%d", &index); err != nil {
		r.notify(ctx, channel, user, threadTS, "Sorry, I couldn't find the selected document. Please try again.")
		return
	}

	doc, err := r.citations.Resolve(channel, responseTS, index)
	if err != nil {
		r.notify(ctx, channel, user, threadTS, "Sorry, I couldn't find the search results. Please try again.")
		return
	}

	title := fmt.Sprintf(":mag: *%s*", doc.Title)
	if doc.URL != "" {
		title = fmt.Sprintf(":mag: *<%s|%s>*", doc.URL, doc.Title)
	}
	blocks := []slack.Block{
		slack.SectionBlock(title),
		slack.SectionBlock(doc.Snippet),
	}
	if err := r.slack.PostEphemeral(ctx, channel, user, threadTS, doc.Title, blocks); err != nil {
		r.logger.Error().Err(err).Str("channel", channel).Msg("posting document details failed")
	}
}

func (r *Responder) notify(ctx context.Context, channel, user, threadTS, text string) {
	if err := r.slack.PostEphemeral(ctx, channel, user, threadTS, text, nil); err != nil {
		r.logger.Error().Err(err).Str("channel", channel).Msg("posting notice failed")
	}
}

// answerBlocks renders the final answer: the answer section, a divider, a
// search-results picker when documents exist, and the action row whose
// overflow menu embeds the question and asker for later feedback and
// regeneration.
func answerBlocks(answerText string, docs []cohere.Document, question, askerID string) []slack.Block {
	blocks := []slack.Block{
		slack.SectionBlock(truncateText(slack.ToMrkdwn(answerText), sectionTextMaxLen)),
		slack.DividerBlock(),
	}

	if len(docs) > 0 {
		options := make([]slack.Option, 0, len(docs))
		for i, doc := range docs {
			options = append(options, slack.SelectOption(
				truncateText(doc.Title, optionTextMaxLen),
				fmt.Sprintf("%s%d", documentValuePrefix, i),
			))
		}
		picker := slack.StaticSelectElement("Results...", ActionViewDocument, options)
		blocks = append(blocks, slack.SectionBlockWithAccessory("*Search Results:*", &picker))
	}

	blocks = append(blocks, slack.ActionsBlock(
		slack.ButtonElement("Regenerate", "regenerate", ActionRegenerate),
		slack.EmojiButtonElement(":thumbsup:", "like", ActionLike),
		slack.EmojiButtonElement(":thumbsdown:", "dislike", ActionDislike),
		slack.OverflowElement(ActionStoreMeta, []slack.Option{
			slack.SelectOption("META VALUES BELOW", "ignore"),
			slack.SelectOption(
				truncateText("Query: "+question, optionTextMaxLen),
				truncateText(metaQueryPrefix+question, optionTextMaxLen),
			),
			slack.SelectOption(
				truncateText(fmt.Sprintf("Asked by <@%s>", askerID), optionTextMaxLen),
				metaUserPrefix+askerID,
			),
		}),
	))

	return blocks
}

// truncateText limits text to maxLen characters, ellipsizing when cut.
func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-3]) + "..."
}
