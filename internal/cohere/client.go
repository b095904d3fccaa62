package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultEndpoint = "https://api.cohere.ai/v1/chat"

// Role tags one side of a chat_history turn.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// Turn is one chat_history entry.
type Turn struct {
	Role    Role   `json:"role"`
	Message string `json:"message"`
}

// ConnectorOptions restricts a connector; Site limits web search to a domain.
type ConnectorOptions struct {
	Site string `json:"site,omitempty"`
}

// Connector enables a retrieval augmentation such as web search.
type Connector struct {
	ID      string            `json:"id"`
	Options *ConnectorOptions `json:"options,omitempty"`
}

// WebSearchConnector returns the web-search connector, optionally restricted
// to a single site.
func WebSearchConnector(site string) Connector {
	c := Connector{ID: "web-search"}
	if site != "" {
		c.Options = &ConnectorOptions{Site: site}
	}
	return c
}

// Document is a search result supporting a generated answer.
type Document struct {
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// ChatRequest describes one chat call. Model falls back to the client's
// default when empty.
type ChatRequest struct {
	Model      string
	History    []Turn
	Message    string
	Connectors []Connector
}

// ChatResponse is the answer text plus any supporting documents.
type ChatResponse struct {
	Text      string
	Documents []Document
}

// Client calls the Cohere chat API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates a Cohere chat client with a default model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model       string      `json:"model"`
	ChatHistory []Turn      `json:"chat_history"`
	Message     string      `json:"message"`
	Connectors  []Connector `json:"connectors,omitempty"`
}

type chatResponse struct {
	Text      string     `json:"text"`
	Documents []Document `json:"documents,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Chat performs a single chat call. It makes exactly one attempt: callers
// surface failures to the user instead of retrying.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	history := req.History
	if history == nil {
		history = []Turn{}
	}
	apiReq := chatRequest{
		Model:       model,
		ChatHistory: history,
		Message:     req.Message,
		Connectors:  req.Connectors,
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshalling cohere request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating cohere request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("cohere request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading cohere response: %w", err)
	}

	var apiResp chatResponse
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		// Error bodies carry a message field when Cohere produced the error.
		if json.Unmarshal(respBody, &apiResp) == nil && apiResp.Message != "" {
			return nil, fmt.Errorf("cohere returned status %d: %s", httpResp.StatusCode, apiResp.Message)
		}
		return nil, fmt.Errorf("cohere returned status %d", httpResp.StatusCode)
	}

	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshalling cohere response: %w", err)
	}

	return &ChatResponse{Text: apiResp.Text, Documents: apiResp.Documents}, nil
}
