package slack

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// SlashCommand is the payload Slack delivers when a user invokes a slash
// command, either inside a Socket Mode envelope or as a form POST.
type SlashCommand struct {
	Command   string `json:"command"`
	Text      string `json:"text"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	TeamID    string `json:"team_id"`
	TriggerID string `json:"trigger_id"`
}

// SlashCommandFromForm decodes a slash command from an HTTP form body.
func SlashCommandFromForm(values url.Values) *SlashCommand {
	return &SlashCommand{
		Command:   values.Get("command"),
		Text:      values.Get("text"),
		UserID:    values.Get("user_id"),
		ChannelID: values.Get("channel_id"),
		TeamID:    values.Get("team_id"),
		TriggerID: values.Get("trigger_id"),
	}
}

// Action is one entry of a block_actions payload's actions array.
type Action struct {
	ActionID       string  `json:"action_id"`
	BlockID        string  `json:"block_id"`
	Value          string  `json:"value,omitempty"`
	SelectedOption *Option `json:"selected_option,omitempty"`
}

// ViewState holds the input values of a submitted view, keyed by block_id
// then action_id.
type ViewState struct {
	Values map[string]map[string]ViewStateValue `json:"values"`
}

// ViewStateValue is a single input's submitted value.
type ViewStateValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ViewPayload is the view object echoed back on view_submission.
type ViewPayload struct {
	ID              string    `json:"id"`
	CallbackID      string    `json:"callback_id"`
	PrivateMetadata string    `json:"private_metadata"`
	State           ViewState `json:"state"`
}

// InteractionPayload is the common shape of block_actions and
// view_submission payloads.
type InteractionPayload struct {
	Type string `json:"type"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Team struct {
		ID     string `json:"id"`
		Domain string `json:"domain"`
	} `json:"team"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	Container struct {
		MessageTS string `json:"message_ts"`
		ThreadTS  string `json:"thread_ts"`
	} `json:"container"`
	TriggerID string       `json:"trigger_id"`
	Message   *Message     `json:"message,omitempty"`
	Actions   []Action     `json:"actions,omitempty"`
	View      *ViewPayload `json:"view,omitempty"`
}

// Interaction payload types.
const (
	InteractionBlockActions   = "block_actions"
	InteractionViewSubmission = "view_submission"
)

// ParseInteractionPayload decodes an interaction payload, rejecting payloads
// without a recognized type.
func ParseInteractionPayload(raw []byte) (*InteractionPayload, error) {
	var p InteractionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshalling interaction payload: %w", err)
	}
	switch p.Type {
	case InteractionBlockActions, InteractionViewSubmission:
		return &p, nil
	default:
		return nil, fmt.Errorf("unsupported interaction type %q", p.Type)
	}
}
