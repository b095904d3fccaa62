package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/slack"
)

// memoryLog implements DedupeLog in memory.
type memoryLog struct {
	keys map[string]bool
}

func newMemoryLog() *memoryLog { return &memoryLog{keys: map[string]bool{}} }

func (l *memoryLog) Seen(_ context.Context, raterID, responseRef string) (bool, error) {
	return l.keys[raterID+"|"+responseRef], nil
}

func (l *memoryLog) Mark(_ context.Context, raterID, responseRef string) error {
	l.keys[raterID+"|"+responseRef] = true
	return nil
}

func feedbackPayload(raterID string) *slack.InteractionPayload {
	p := &slack.InteractionPayload{Type: slack.InteractionBlockActions}
	p.User.ID = raterID
	p.Team.ID = "T1"
	p.Team.Domain = "acme"
	p.Channel.ID = "C1"
	p.Container.MessageTS = "1700.0002"
	p.Container.ThreadTS = "1700.0000"
	p.TriggerID = "trigger1"
	p.Message = &slack.Message{
		TS:       "1700.0002",
		ThreadTS: "1700.0000",
		Blocks:   answerBlocks("The answer.", nil, "what is Go?", "U1"),
	}
	return p
}

func TestLikePostsRecord(t *testing.T) {
	m := &mockMessenger{}
	f := NewFeedback(m, "CFEED", nil, zerolog.Nop())

	f.Process(context.Background(), feedbackPayload("U2"), SentimentLike)

	if len(m.posts) != 1 {
		t.Fatalf("expected 1 record post, got %d", len(m.posts))
	}
	post := m.posts[0]
	if post.channel != "CFEED" {
		t.Errorf("expected post to feedback channel, got %s", post.channel)
	}
	if !strings.Contains(post.text, "<@U2>") || !strings.Contains(post.text, "Original message timestamp: 1700.0002") {
		t.Errorf("fallback text must carry dedupe markers, got %q", post.text)
	}

	if post.blocks[0].Type != "header" || !strings.Contains(post.blocks[0].Text.Text, "Liked Response") {
		t.Errorf("unexpected header block: %+v", post.blocks[0])
	}
	var joined strings.Builder
	for _, b := range post.blocks {
		if b.Text != nil {
			joined.WriteString(b.Text.Text + "\n")
		}
	}
	body := joined.String()
	if !strings.Contains(body, "what is Go?") {
		t.Errorf("record must include the question, got %q", body)
	}
	if !strings.Contains(body, "The answer.") {
		t.Errorf("record must include the response, got %q", body)
	}
	if got := attributionText(post.blocks); got != "Query by: <@U1> | Feedback by: <@U2>" {
		t.Errorf("expected split attribution in a context block, got %q", got)
	}

	if len(m.ephemerals) != 1 || m.ephemerals[0].text != "Thank you for your feedback!" {
		t.Errorf("expected confirmation, got %+v", m.ephemerals)
	}
}

func TestLikeSelfFeedbackAttribution(t *testing.T) {
	m := &mockMessenger{}
	f := NewFeedback(m, "CFEED", nil, zerolog.Nop())

	f.Process(context.Background(), feedbackPayload("U1"), SentimentLike)

	if len(m.posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(m.posts))
	}
	if got := attributionText(m.posts[0].blocks); got != "Query & Feedback by: <@U1>" {
		t.Errorf("expected merged attribution when asker rates their own question, got %q", got)
	}
}

// attributionText returns the mrkdwn text of the record's context block.
func attributionText(blocks []slack.Block) string {
	for _, b := range blocks {
		if b.Type != "context" {
			continue
		}
		if len(b.Elements) != 1 || b.Elements[0].Type != "mrkdwn" || b.Elements[0].Text == nil {
			return ""
		}
		return b.Elements[0].Text.Text
	}
	return ""
}

func TestDuplicateDetectedByChannelScan(t *testing.T) {
	m := &mockMessenger{
		history: []slack.Message{
			{Text: "Feedback from <@U2> | Original message timestamp: 1700.0002", TS: "1700.0100"},
		},
	}
	f := NewFeedback(m, "CFEED", nil, zerolog.Nop())

	f.Process(context.Background(), feedbackPayload("U2"), SentimentLike)

	if len(m.posts) != 0 {
		t.Errorf("duplicate must not post a record, got %d posts", len(m.posts))
	}
	if len(m.ephemerals) != 1 || m.ephemerals[0].text != "You've already provided feedback for this message." {
		t.Errorf("expected duplicate notice, got %+v", m.ephemerals)
	}
}

func TestDuplicateScanMatchesBothMarkers(t *testing.T) {
	// Same rater, different response: not a duplicate.
	m := &mockMessenger{
		history: []slack.Message{
			{Text: "Feedback from <@U2> | Original message timestamp: 1700.9999"},
			{Text: "Feedback from <@U3> | Original message timestamp: 1700.0002"},
		},
	}
	f := NewFeedback(m, "CFEED", nil, zerolog.Nop())

	f.Process(context.Background(), feedbackPayload("U2"), SentimentLike)

	if len(m.posts) != 1 {
		t.Errorf("expected record posted, got %d", len(m.posts))
	}
}

func TestDuplicateDetectedByLog(t *testing.T) {
	m := &mockMessenger{}
	log := newMemoryLog()
	log.Mark(context.Background(), "U2", "1700.0002")
	f := NewFeedback(m, "CFEED", log, zerolog.Nop())

	f.Process(context.Background(), feedbackPayload("U2"), SentimentLike)

	if len(m.posts) != 0 {
		t.Errorf("duplicate must not post a record, got %d posts", len(m.posts))
	}
}

func TestLikeMarksLog(t *testing.T) {
	m := &mockMessenger{}
	log := newMemoryLog()
	f := NewFeedback(m, "CFEED", log, zerolog.Nop())

	f.Process(context.Background(), feedbackPayload("U2"), SentimentLike)

	seen, _ := log.Seen(context.Background(), "U2", "1700.0002")
	if !seen {
		t.Error("expected log marked after posting")
	}
}

func TestDislikeOpensModal(t *testing.T) {
	m := &mockMessenger{}
	f := NewFeedback(m, "CFEED", nil, zerolog.Nop())

	f.Process(context.Background(), feedbackPayload("U2"), SentimentDislike)

	if len(m.posts) != 0 {
		t.Errorf("dislike must not post before submission, got %d posts", len(m.posts))
	}
	if len(m.views) != 1 {
		t.Fatalf("expected modal opened, got %d views", len(m.views))
	}
	view := m.views[0]
	if view.CallbackID != FeedbackModalCallbackID {
		t.Errorf("unexpected callback id %s", view.CallbackID)
	}
	if len(view.Blocks) != 1 || view.Blocks[0].BlockID != feedbackInputBlockID {
		t.Errorf("unexpected modal blocks: %+v", view.Blocks)
	}

	fctx, err := DecodeFeedbackContext(view.PrivateMetadata)
	if err != nil {
		t.Fatalf("private metadata must round trip: %v", err)
	}
	if fctx.QuestionText != "what is Go?" || fctx.RaterID != "U2" || fctx.ResponseTS != "1700.0002" {
		t.Errorf("unexpected context: %+v", fctx)
	}
	if fctx.Permalink != "https://acme.slack.com/archives/C1/p17000000" {
		t.Errorf("unexpected permalink: %s", fctx.Permalink)
	}
}

func TestSubmissionPostsRecordWithComment(t *testing.T) {
	m := &mockMessenger{}
	f := NewFeedback(m, "CFEED", nil, zerolog.Nop())

	metadata, err := FeedbackContext{
		QuestionText: "what is Go?",
		ResponseText: "The answer.",
		AskerID:      "U1",
		RaterID:      "U2",
		ChannelID:    "C1",
		ThreadTS:     "1700.0000",
		ResponseTS:   "1700.0002",
	}.Encode()
	if err != nil {
		t.Fatal(err)
	}

	p := &slack.InteractionPayload{Type: slack.InteractionViewSubmission}
	p.User.ID = "U2"
	p.View = &slack.ViewPayload{
		CallbackID:      FeedbackModalCallbackID,
		PrivateMetadata: metadata,
		State: slack.ViewState{Values: map[string]map[string]slack.ViewStateValue{
			feedbackInputBlockID: {feedbackInputActionID: {Value: "too vague"}},
		}},
	}

	if err := f.HandleSubmission(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	if len(m.posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(m.posts))
	}
	var body strings.Builder
	for _, b := range m.posts[0].blocks {
		if b.Text != nil {
			body.WriteString(b.Text.Text + "\n")
		}
	}
	if !strings.Contains(body.String(), "Disliked Response") {
		t.Errorf("expected dislike header, got %q", body.String())
	}
	if !strings.Contains(body.String(), "*Additional Feedback:*\ntoo vague") {
		t.Errorf("expected comment section, got %q", body.String())
	}
}

func TestSubmissionRejectsTamperedMetadata(t *testing.T) {
	m := &mockMessenger{}
	f := NewFeedback(m, "CFEED", nil, zerolog.Nop())

	p := &slack.InteractionPayload{Type: slack.InteractionViewSubmission}
	p.View = &slack.ViewPayload{
		CallbackID:      FeedbackModalCallbackID,
		PrivateMetadata: `{"v":1,"channel":"C1"}`,
	}

	if err := f.HandleSubmission(context.Background(), p); err == nil {
		t.Fatal("expected error for invalid metadata")
	}
	if len(m.posts) != 0 {
		t.Errorf("invalid metadata must not post, got %d posts", len(m.posts))
	}
}

func TestPostFailureNotifiesRater(t *testing.T) {
	m := &mockMessenger{postErr: context.DeadlineExceeded}
	f := NewFeedback(m, "CFEED", nil, zerolog.Nop())

	f.Process(context.Background(), feedbackPayload("U2"), SentimentLike)

	if len(m.ephemerals) != 1 {
		t.Fatalf("expected 1 notice, got %d", len(m.ephemerals))
	}
	if !strings.Contains(m.ephemerals[0].text, "issue posting your feedback") {
		t.Errorf("expected failure notice, got %q", m.ephemerals[0].text)
	}
}
