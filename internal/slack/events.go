package slack

import "encoding/json"

// EventsAPIPayload is the outer Events API callback body. The inner event is
// left raw so callers can dispatch on its type.
type EventsAPIPayload struct {
	Type      string          `json:"type"`
	TeamID    string          `json:"team_id"`
	EventID   string          `json:"event_id"`
	EventTime int64           `json:"event_time"`
	Challenge string          `json:"challenge,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// ReactionItem identifies the message a reaction was added to.
type ReactionItem struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

// Event is an inner Events API event. One struct covers the event types this
// app reacts to: message, app_mention and reaction_added.
type Event struct {
	Type     string        `json:"type"`
	Subtype  string        `json:"subtype,omitempty"`
	User     string        `json:"user,omitempty"`
	BotID    string        `json:"bot_id,omitempty"`
	Text     string        `json:"text,omitempty"`
	Channel  string        `json:"channel,omitempty"`
	TS       string        `json:"ts,omitempty"`
	ThreadTS string        `json:"thread_ts,omitempty"`
	Reaction string        `json:"reaction,omitempty"`
	Item     *ReactionItem `json:"item,omitempty"`
}

// Events API callback and event types.
const (
	EventsAPICallback      = "event_callback"
	EventsAPIURLVerify     = "url_verification"
	EventTypeMessage       = "message"
	EventTypeAppMention    = "app_mention"
	EventTypeReactionAdded = "reaction_added"
)
