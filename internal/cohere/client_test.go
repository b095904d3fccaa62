package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testChatClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-key", "command")
	c.endpoint = srv.URL
	return c
}

func TestChatSendsHistoryAndConnectors(t *testing.T) {
	var got chatRequest
	c := testChatClient(t, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %s", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"text":"Paris","documents":[{"title":"Wikipedia","url":"https://en.wikipedia.org/wiki/Paris"}]}`))
	})

	resp, err := c.Chat(context.Background(), ChatRequest{
		History:    []Turn{{Role: RoleUser, Message: "hi"}},
		Message:    "capital of France?",
		Connectors: []Connector{WebSearchConnector("")},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got.Model != "command" {
		t.Errorf("expected default model command, got %s", got.Model)
	}
	if len(got.ChatHistory) != 1 || got.ChatHistory[0].Role != RoleUser {
		t.Errorf("unexpected chat_history: %+v", got.ChatHistory)
	}
	if len(got.Connectors) != 1 || got.Connectors[0].ID != "web-search" {
		t.Errorf("unexpected connectors: %+v", got.Connectors)
	}
	if resp.Text != "Paris" {
		t.Errorf("expected text Paris, got %q", resp.Text)
	}
	if len(resp.Documents) != 1 || resp.Documents[0].Title != "Wikipedia" {
		t.Errorf("unexpected documents: %+v", resp.Documents)
	}
}

func TestChatNilHistoryMarshalsAsEmptyArray(t *testing.T) {
	var raw map[string]json.RawMessage
	c := testChatClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"text":"ok"}`))
	})

	if _, err := c.Chat(context.Background(), ChatRequest{Message: "q"}); err != nil {
		t.Fatal(err)
	}
	if string(raw["chat_history"]) != "[]" {
		t.Errorf("expected chat_history to be [], got %s", raw["chat_history"])
	}
}

func TestChatSiteRestrictedConnector(t *testing.T) {
	conn := WebSearchConnector("docs.example.com")
	if conn.Options == nil || conn.Options.Site != "docs.example.com" {
		t.Errorf("expected site option, got %+v", conn.Options)
	}
	if unrestricted := WebSearchConnector(""); unrestricted.Options != nil {
		t.Errorf("expected nil options without site, got %+v", unrestricted.Options)
	}
}

func TestChatErrorIncludesReason(t *testing.T) {
	c := testChatClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api token"}`))
	})

	_, err := c.Chat(context.Background(), ChatRequest{Message: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "invalid api token") {
		t.Errorf("expected status and reason in error, got: %v", err)
	}
}

func TestChatErrorWithoutBody(t *testing.T) {
	c := testChatClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Chat(context.Background(), ChatRequest{Message: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status in error, got: %v", err)
	}
}

func TestChatExplicitModelOverridesDefault(t *testing.T) {
	var got chatRequest
	c := testChatClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"text":"ok"}`))
	})

	if _, err := c.Chat(context.Background(), ChatRequest{Model: "command-r", Message: "q"}); err != nil {
		t.Fatal(err)
	}
	if got.Model != "command-r" {
		t.Errorf("expected model command-r, got %s", got.Model)
	}
}
