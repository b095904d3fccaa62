package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://slack.com/api"

// Client is a Slack Web API client using the bot token for chat and
// conversations methods and the app-level token for Socket Mode.
type Client struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
	appToken   string
}

// NewClient creates a Slack Web API client. appToken may be empty when
// Socket Mode is not used.
func NewClient(botToken, appToken string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		botToken:   botToken,
		appToken:   appToken,
	}
}

// Message is a single channel or thread message as returned by the
// conversations APIs.
type Message struct {
	User     string  `json:"user"`
	BotID    string  `json:"bot_id,omitempty"`
	Subtype  string  `json:"subtype,omitempty"`
	Text     string  `json:"text"`
	TS       string  `json:"ts"`
	ThreadTS string  `json:"thread_ts,omitempty"`
	Blocks   []Block `json:"blocks,omitempty"`
}

// apiResponse is the envelope every Web API response carries.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (r apiResponse) err(method string) error {
	if r.OK {
		return nil
	}
	if r.Error == "" {
		return fmt.Errorf("slack %s failed", method)
	}
	return fmt.Errorf("slack %s: %s", method, r.Error)
}

type postMessageRequest struct {
	Channel  string  `json:"channel"`
	ThreadTS string  `json:"thread_ts,omitempty"`
	Text     string  `json:"text"`
	Blocks   []Block `json:"blocks,omitempty"`
	Mrkdwn   bool    `json:"mrkdwn"`
}

type postMessageResponse struct {
	apiResponse
	TS string `json:"ts"`
}

// PostMessage posts a message, optionally threaded, and returns its timestamp.
func (c *Client) PostMessage(ctx context.Context, channel, threadTS, text string, blocks []Block) (string, error) {
	req := postMessageRequest{
		Channel:  channel,
		ThreadTS: threadTS,
		Text:     text,
		Blocks:   blocks,
		Mrkdwn:   true,
	}
	var resp postMessageResponse
	if err := c.postJSON(ctx, "chat.postMessage", c.botToken, req, &resp); err != nil {
		return "", err
	}
	if err := resp.err("chat.postMessage"); err != nil {
		return "", err
	}
	return resp.TS, nil
}

type updateMessageRequest struct {
	Channel string  `json:"channel"`
	TS      string  `json:"ts"`
	Text    string  `json:"text"`
	Blocks  []Block `json:"blocks"`
	Mrkdwn  bool    `json:"mrkdwn"`
}

// UpdateMessage overwrites an existing message in place. Passing nil blocks
// clears any previously attached blocks.
func (c *Client) UpdateMessage(ctx context.Context, channel, ts, text string, blocks []Block) error {
	if blocks == nil {
		blocks = []Block{}
	}
	req := updateMessageRequest{Channel: channel, TS: ts, Text: text, Blocks: blocks, Mrkdwn: true}
	var resp apiResponse
	if err := c.postJSON(ctx, "chat.update", c.botToken, req, &resp); err != nil {
		return err
	}
	return resp.err("chat.update")
}

type postEphemeralRequest struct {
	Channel  string  `json:"channel"`
	User     string  `json:"user"`
	ThreadTS string  `json:"thread_ts,omitempty"`
	Text     string  `json:"text,omitempty"`
	Blocks   []Block `json:"blocks,omitempty"`
}

// PostEphemeral posts a message visible only to one user.
func (c *Client) PostEphemeral(ctx context.Context, channel, user, threadTS, text string, blocks []Block) error {
	req := postEphemeralRequest{Channel: channel, User: user, ThreadTS: threadTS, Text: text, Blocks: blocks}
	var resp apiResponse
	if err := c.postJSON(ctx, "chat.postEphemeral", c.botToken, req, &resp); err != nil {
		return err
	}
	return resp.err("chat.postEphemeral")
}

type conversationsResponse struct {
	apiResponse
	Messages []Message `json:"messages"`
}

// ThreadReplies fetches all messages in a thread in chronological order.
func (c *Client) ThreadReplies(ctx context.Context, channel, threadTS string) ([]Message, error) {
	params := url.Values{}
	params.Set("channel", channel)
	params.Set("ts", threadTS)
	var resp conversationsResponse
	if err := c.getForm(ctx, "conversations.replies", params, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("conversations.replies"); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// ChannelHistory fetches the most recent messages in a channel, newest first.
func (c *Client) ChannelHistory(ctx context.Context, channel string, limit int) ([]Message, error) {
	params := url.Values{}
	params.Set("channel", channel)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp conversationsResponse
	if err := c.getForm(ctx, "conversations.history", params, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("conversations.history"); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

type openViewRequest struct {
	TriggerID string    `json:"trigger_id"`
	View      ModalView `json:"view"`
}

// OpenView opens a modal in response to an interaction's trigger_id.
func (c *Client) OpenView(ctx context.Context, triggerID string, view ModalView) error {
	req := openViewRequest{TriggerID: triggerID, View: view}
	var resp apiResponse
	if err := c.postJSON(ctx, "views.open", c.botToken, req, &resp); err != nil {
		return err
	}
	return resp.err("views.open")
}

// AuthTestResponse identifies the authenticated bot.
type AuthTestResponse struct {
	apiResponse
	UserID string `json:"user_id"`
	TeamID string `json:"team_id"`
	Team   string `json:"team"`
	URL    string `json:"url"`
}

// AuthTest verifies the bot token and returns the bot's own identity.
func (c *Client) AuthTest(ctx context.Context) (*AuthTestResponse, error) {
	var resp AuthTestResponse
	if err := c.postJSON(ctx, "auth.test", c.botToken, struct{}{}, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("auth.test"); err != nil {
		return nil, err
	}
	return &resp, nil
}

type connectionsOpenResponse struct {
	apiResponse
	URL string `json:"url"`
}

// ConnectionsOpen requests a Socket Mode websocket URL using the app token.
func (c *Client) ConnectionsOpen(ctx context.Context) (string, error) {
	var resp connectionsOpenResponse
	if err := c.postJSON(ctx, "apps.connections.open", c.appToken, struct{}{}, &resp); err != nil {
		return "", err
	}
	if err := resp.err("apps.connections.open"); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("slack apps.connections.open returned empty url")
	}
	return resp.URL, nil
}

func (c *Client) postJSON(ctx context.Context, method, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling %s request: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)
	return c.do(req, method, out)
}

func (c *Client) getForm(ctx context.Context, method string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+method+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken)
	return c.do(req, method, out)
}

func (c *Client) do(req *http.Request, method string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack %s returned status %d: %s", method, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshalling %s response: %w", method, err)
	}
	return nil
}
