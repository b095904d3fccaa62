package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("xoxb-test", "xapp-test")
	c.baseURL = srv.URL
	return c
}

func TestPostMessageReturnsTimestamp(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.postMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"ok":true,"ts":"1700000000.000100"}`))
	})

	ts, err := c.PostMessage(context.Background(), "C1", "1699.0001", "hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	if ts != "1700000000.000100" {
		t.Errorf("expected ts 1700000000.000100, got %s", ts)
	}
	if gotAuth != "Bearer xoxb-test" {
		t.Errorf("expected bot token auth, got %s", gotAuth)
	}
	if gotBody["thread_ts"] != "1699.0001" {
		t.Errorf("expected thread_ts in request, got %v", gotBody["thread_ts"])
	}
}

func TestPostMessageAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	})

	_, err := c.PostMessage(context.Background(), "C1", "", "hello", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "channel_not_found") {
		t.Errorf("expected slack error reason, got: %v", err)
	}
}

func TestUpdateMessageClearsBlocksWithNil(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.update" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"ok":true}`))
	})

	if err := c.UpdateMessage(context.Background(), "C1", "1700.0001", "text", nil); err != nil {
		t.Fatal(err)
	}
	blocks, ok := gotBody["blocks"].([]any)
	if !ok {
		t.Fatalf("expected blocks array in request, got %T", gotBody["blocks"])
	}
	if len(blocks) != 0 {
		t.Errorf("expected empty blocks array, got %d entries", len(blocks))
	}
}

func TestThreadRepliesDecodesMessages(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations.replies" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ts"); got != "1700.0001" {
			t.Errorf("expected ts query param, got %s", got)
		}
		w.Write([]byte(`{"ok":true,"messages":[
			{"user":"U1","text":"question","ts":"1700.0001"},
			{"user":"UBOT","text":"answer","ts":"1700.0002","thread_ts":"1700.0001"}
		]}`))
	})

	msgs, err := c.ThreadReplies(context.Background(), "C1", "1700.0001")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].User != "UBOT" || msgs[1].ThreadTS != "1700.0001" {
		t.Errorf("unexpected second message: %+v", msgs[1])
	}
}

func TestChannelHistorySetsLimit(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "30" {
			t.Errorf("expected limit=30, got %s", got)
		}
		w.Write([]byte(`{"ok":true,"messages":[]}`))
	})

	msgs, err := c.ChannelHistory(context.Background(), "C1", 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages, got %d", len(msgs))
	}
}

func TestConnectionsOpenUsesAppToken(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer xapp-test" {
			t.Errorf("expected app token auth, got %s", got)
		}
		w.Write([]byte(`{"ok":true,"url":"wss://example.invalid/link"}`))
	})

	url, err := c.ConnectionsOpen(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if url != "wss://example.invalid/link" {
		t.Errorf("unexpected url %s", url)
	}
}

func TestAuthTestIdentity(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"user_id":"UBOT","team_id":"T1"}`))
	})

	auth, err := c.AuthTest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if auth.UserID != "UBOT" || auth.TeamID != "T1" {
		t.Errorf("unexpected identity: %+v", auth)
	}
}

func TestOpenViewSendsCallbackID(t *testing.T) {
	var gotBody struct {
		TriggerID string    `json:"trigger_id"`
		View      ModalView `json:"view"`
	}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"ok":true}`))
	})

	view := ModalView{
		Type:       "modal",
		CallbackID: "cb",
		Title:      PlainText("Title"),
		Submit:     PlainText("Submit"),
	}
	if err := c.OpenView(context.Background(), "trigger1", view); err != nil {
		t.Fatal(err)
	}
	if gotBody.TriggerID != "trigger1" || gotBody.View.CallbackID != "cb" {
		t.Errorf("unexpected request: %+v", gotBody)
	}
}

func TestParseInteractionPayloadRejectsUnknownType(t *testing.T) {
	_, err := ParseInteractionPayload([]byte(`{"type":"shortcut"}`))
	if err == nil {
		t.Fatal("expected error for unknown interaction type")
	}
}

func TestParseInteractionPayloadBlockActions(t *testing.T) {
	raw := []byte(`{
		"type":"block_actions",
		"user":{"id":"U1"},
		"team":{"id":"T1","domain":"acme"},
		"channel":{"id":"C1"},
		"container":{"message_ts":"1700.0002","thread_ts":"1700.0001"},
		"trigger_id":"tr1",
		"actions":[{"action_id":"like_response","value":"like"}]
	}`)
	p, err := ParseInteractionPayload(raw)
	if err != nil {
		t.Fatal(err)
	}
	if p.User.ID != "U1" || p.Team.Domain != "acme" {
		t.Errorf("unexpected payload identity: %+v", p)
	}
	if len(p.Actions) != 1 || p.Actions[0].ActionID != "like_response" {
		t.Errorf("unexpected actions: %+v", p.Actions)
	}
}
