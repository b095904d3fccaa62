package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/slack"
)

// Action identifiers carried by the answer message's interactive elements
// and the feedback modal. The router dispatches on these.
const (
	ActionRegenerate   = "regenerate_response"
	ActionLike         = "like_response"
	ActionDislike      = "dislike_response"
	ActionViewDocument = "view_document_details"
	ActionStoreMeta    = "store_query_and_user"
	ActionViewOriginal = "view_original_message"

	FeedbackModalCallbackID = "improvement_feedback_modal"
	feedbackInputBlockID    = "improvement_feedback"
	feedbackInputActionID   = "feedback_input"
)

// Overflow option value prefixes. The answer message carries its own
// provenance in these opaque values; no server-side lookup exists.
const (
	metaQueryPrefix = "query:"
	metaUserPrefix  = "user:"
)

// feedbackContextVersion guards the modal metadata round trip: the payload
// crosses Slack's servers between the button click and the submission, so
// it is validated like any other network input.
const feedbackContextVersion = 1

// FeedbackContext is everything the feedback composer needs, reconstructed
// from the answer message itself on a button click and carried through the
// dislike modal's private_metadata. The engine holds no state between the
// two steps.
type FeedbackContext struct {
	Version      int    `json:"v"`
	QuestionText string `json:"question_text"`
	ResponseText string `json:"response_text"`
	AskerID      string `json:"asker_id"`
	RaterID      string `json:"rater_id"`
	ChannelID    string `json:"channel"`
	ThreadTS     string `json:"thread_ts"`
	ResponseTS   string `json:"response_ts"`
	Permalink    string `json:"permalink"`
}

// Encode serializes the context for a modal's private_metadata.
func (f FeedbackContext) Encode() (string, error) {
	f.Version = feedbackContextVersion
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("marshalling feedback context: %w", err)
	}
	return string(data), nil
}

// DecodeFeedbackContext parses a modal's echoed private_metadata, rejecting
// unknown versions and payloads missing required fields.
func DecodeFeedbackContext(raw string) (*FeedbackContext, error) {
	var f FeedbackContext
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("unmarshalling feedback context: %w", err)
	}
	if f.Version != feedbackContextVersion {
		return nil, fmt.Errorf("unsupported feedback context version %d", f.Version)
	}
	if f.RaterID == "" || f.ChannelID == "" || f.ResponseTS == "" {
		return nil, fmt.Errorf("feedback context missing required fields")
	}
	return &f, nil
}

// MessageMeta is the provenance extracted from a rendered answer message.
type MessageMeta struct {
	QuestionText string
	AskerID      string
	ResponseText string
}

// ExtractMessageMeta reads an answer message's own blocks: the response
// text from the first section block and the question/asker from the
// overflow menu's option values.
func ExtractMessageMeta(msg *slack.Message) MessageMeta {
	meta := MessageMeta{
		QuestionText: "Query not found",
		AskerID:      "User ID not found",
		ResponseText: "Response not found",
	}
	if msg == nil {
		return meta
	}

	for _, block := range msg.Blocks {
		if block.Type == "section" && block.Text != nil && block.Text.Type == "mrkdwn" {
			meta.ResponseText = block.Text.Text
			break
		}
	}

	for _, block := range msg.Blocks {
		for _, element := range block.Elements {
			if element.Type != "overflow" {
				continue
			}
			for _, option := range element.Options {
				if query, ok := strings.CutPrefix(option.Value, metaQueryPrefix); ok {
					meta.QuestionText = query
				}
				if user, ok := strings.CutPrefix(option.Value, metaUserPrefix); ok {
					meta.AskerID = user
				}
			}
		}
	}
	return meta
}

// Permalink builds the archive link for a message in the team's workspace.
func Permalink(teamDomain, channel, messageTS string) string {
	return fmt.Sprintf("https://%s.slack.com/archives/%s/p%s",
		teamDomain, channel, strings.Replace(messageTS, ".", "", 1))
}
