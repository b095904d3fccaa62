package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/slack"
)

// Sentiment is the direction of a feedback action.
type Sentiment string

const (
	SentimentLike    Sentiment = "like"
	SentimentDislike Sentiment = "dislike"
)

// feedbackHistoryWindow bounds the duplicate scan: only this many of the
// feedback channel's most recent messages are checked. Best effort, not a
// uniqueness constraint.
const feedbackHistoryWindow = 30

// duplicateMarker is written into every record's fallback text so the scan
// can match it later.
const duplicateMarker = "Original message timestamp: "

// DedupeLog is the optional local idempotency log consulted before the
// channel scan. Nil disables it.
type DedupeLog interface {
	Seen(ctx context.Context, raterID, responseRef string) (bool, error)
	Mark(ctx context.Context, raterID, responseRef string) error
}

// Feedback runs the like/dislike pipeline. It owns no state: the context a
// record needs is read out of the answer message itself, and for the
// two-step dislike flow it rides inside the modal's private_metadata.
type Feedback struct {
	slack     Messenger
	channelID string
	log       DedupeLog
	logger    zerolog.Logger
}

// NewFeedback creates the pipeline posting records to feedbackChannel.
// log may be nil, in which case only the channel scan deduplicates.
func NewFeedback(m Messenger, feedbackChannel string, log DedupeLog, logger zerolog.Logger) *Feedback {
	return &Feedback{
		slack:     m,
		channelID: feedbackChannel,
		log:       log,
		logger:    logger.With().Str("component", "feedback").Logger(),
	}
}

// Process handles a like or dislike click on an answer message. Duplicates
// short-circuit with a notice; likes post a record immediately; dislikes
// open the improvement modal carrying the full context.
func (f *Feedback) Process(ctx context.Context, p *slack.InteractionPayload, sentiment Sentiment) {
	if p.Message == nil {
		f.logger.Warn().Msg("feedback action without message payload")
		return
	}

	meta := ExtractMessageMeta(p.Message)
	responseTS := p.Message.TS
	threadTS := p.Container.ThreadTS
	if threadTS == "" {
		threadTS = p.Container.MessageTS
	}

	fctx := FeedbackContext{
		QuestionText: meta.QuestionText,
		ResponseText: meta.ResponseText,
		AskerID:      meta.AskerID,
		RaterID:      p.User.ID,
		ChannelID:    p.Channel.ID,
		ThreadTS:     threadTS,
		ResponseTS:   responseTS,
		Permalink:    Permalink(p.Team.Domain, p.Channel.ID, threadTS),
	}

	if f.isDuplicate(ctx, fctx.RaterID, responseTS) {
		f.notify(ctx, fctx, "You've already provided feedback for this message.")
		return
	}

	switch sentiment {
	case SentimentLike:
		f.postRecord(ctx, fctx, SentimentLike, "")
	case SentimentDislike:
		f.openModal(ctx, p.TriggerID, fctx)
	}
}

// HandleSubmission finishes the dislike flow: the modal's echoed metadata is
// validated, the optional comment appended, and the record posted.
func (f *Feedback) HandleSubmission(ctx context.Context, p *slack.InteractionPayload) error {
	if p.View == nil {
		return fmt.Errorf("view submission without view payload")
	}
	fctx, err := DecodeFeedbackContext(p.View.PrivateMetadata)
	if err != nil {
		return fmt.Errorf("rejecting modal submission: %w", err)
	}

	comment := ""
	if blockValues, ok := p.View.State.Values[feedbackInputBlockID]; ok {
		comment = blockValues[feedbackInputActionID].Value
	}

	f.postRecord(ctx, *fctx, SentimentDislike, comment)
	return nil
}

// isDuplicate checks the local log first, then scans the feedback channel's
// recent history for the rater's mention alongside the response timestamp
// marker. Scan failures are logged and treated as "not duplicate" — the
// pipeline degrades to possibly repeating a record rather than dropping one.
func (f *Feedback) isDuplicate(ctx context.Context, raterID, responseTS string) bool {
	if f.log != nil {
		seen, err := f.log.Seen(ctx, raterID, responseTS)
		if err != nil {
			f.logger.Warn().Err(err).Msg("feedback log lookup failed")
		} else if seen {
			return true
		}
	}

	msgs, err := f.slack.ChannelHistory(ctx, f.channelID, feedbackHistoryWindow)
	if err != nil {
		f.logger.Warn().Err(err).Msg("feedback channel scan failed")
		return false
	}
	mention := "<@" + raterID + ">"
	marker := duplicateMarker + responseTS
	for _, msg := range msgs {
		if strings.Contains(msg.Text, mention) && strings.Contains(msg.Text, marker) {
			return true
		}
	}
	return false
}

func (f *Feedback) openModal(ctx context.Context, triggerID string, fctx FeedbackContext) {
	metadata, err := fctx.Encode()
	if err != nil {
		f.logger.Error().Err(err).Msg("encoding feedback context failed")
		f.notify(ctx, fctx, "Sorry, there was an issue posting your feedback. Please try again.")
		return
	}

	view := slack.ModalView{
		Type:       "modal",
		CallbackID: FeedbackModalCallbackID,
		Title:      slack.PlainText("Improvement Feedback"),
		Submit:     slack.PlainText("Submit"),
		Blocks: []slack.Block{
			slack.InputBlock(feedbackInputBlockID, "Your feedback", feedbackInputActionID, true),
		},
		PrivateMetadata: metadata,
	}
	if err := f.slack.OpenView(ctx, triggerID, view); err != nil {
		f.logger.Error().Err(err).Msg("opening feedback modal failed")
		f.notify(ctx, fctx, "Sorry, there was an issue posting your feedback. Please try again.")
	}
}

// postRecord composes and posts the feedback record, marks the idempotency
// key, and confirms to the rater. Posting failures become a notice, never a
// propagated fault.
func (f *Feedback) postRecord(ctx context.Context, fctx FeedbackContext, sentiment Sentiment, comment string) {
	text, blocks := composeRecord(fctx, sentiment, comment)
	if _, err := f.slack.PostMessage(ctx, f.channelID, "", text, blocks); err != nil {
		f.logger.Error().Err(err).
			Str("feedback_channel", f.channelID).
			Msg("posting feedback record failed")
		f.notify(ctx, fctx, "Sorry, there was an issue posting your feedback. Please try again.")
		return
	}

	if f.log != nil {
		if err := f.log.Mark(ctx, fctx.RaterID, fctx.ResponseTS); err != nil {
			f.logger.Warn().Err(err).Msg("marking feedback log failed")
		}
	}

	f.notify(ctx, fctx, "Thank you for your feedback!")
	f.logger.Info().
		Str("sentiment", string(sentiment)).
		Str("response_ts", fctx.ResponseTS).
		Msg("feedback recorded")
}

func (f *Feedback) notify(ctx context.Context, fctx FeedbackContext, text string) {
	if err := f.slack.PostEphemeral(ctx, fctx.ChannelID, fctx.RaterID, fctx.ThreadTS, text, nil); err != nil {
		f.logger.Error().Err(err).Str("channel", fctx.ChannelID).Msg("posting feedback notice failed")
	}
}

// composeRecord builds the feedback message. The fallback text carries the
// rater mention and the response timestamp marker the duplicate scan keys
// on.
func composeRecord(fctx FeedbackContext, sentiment Sentiment, comment string) (string, []slack.Block) {
	header := "\U0001F44D Liked Response"
	if sentiment == SentimentDislike {
		header = "\U0001F44E Disliked Response"
	}

	blocks := []slack.Block{
		slack.HeaderBlock(header),
		slack.SectionBlock("*User Query:*\n" + fctx.QuestionText),
		slack.SectionBlock("*Response:*```\n" + fctx.ResponseText + "\n```"),
	}
	if comment != "" {
		blocks = append(blocks, slack.SectionBlock("*Additional Feedback:*\n"+comment))
	}

	attribution := fmt.Sprintf("Query by: <@%s> | Feedback by: <@%s>", fctx.AskerID, fctx.RaterID)
	if fctx.AskerID == fctx.RaterID {
		attribution = fmt.Sprintf("Query & Feedback by: <@%s>", fctx.RaterID)
	}
	blocks = append(blocks, slack.ContextBlock(slack.MrkdwnElement(attribution)))

	if fctx.Permalink != "" {
		blocks = append(blocks, slack.ActionsBlock(
			slack.LinkButtonElement("View Message", fctx.Permalink, ActionViewOriginal),
		))
	}

	text := fmt.Sprintf("Feedback from <@%s> | %s%s", fctx.RaterID, duplicateMarker, fctx.ResponseTS)
	return text, blocks
}
