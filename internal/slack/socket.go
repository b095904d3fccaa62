package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
)

// SocketEnvelope is a Socket Mode envelope. Envelopes carrying an
// envelope_id must be acknowledged before Slack will deliver more events.
type SocketEnvelope struct {
	EnvelopeID string          `json:"envelope_id,omitempty"`
	Type       string          `json:"type,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Socket Mode envelope types.
const (
	EnvelopeEventsAPI     = "events_api"
	EnvelopeSlashCommands = "slash_commands"
	EnvelopeInteractive   = "interactive"
	EnvelopeHello         = "hello"
	EnvelopeDisconnect    = "disconnect"
)

// ConnectSocket opens a Socket Mode websocket connection via
// apps.connections.open.
func (c *Client) ConnectSocket(ctx context.Context) (*websocket.Conn, error) {
	wssURL, err := c.ConnectionsOpen(ctx)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wssURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing slack socket: %w", err)
	}
	return conn, nil
}

// ConsumeSocket reads envelopes from a Socket Mode connection, acking each
// one that carries an envelope_id, and passes them to onEnvelope. It returns
// when the context is canceled, the connection fails, or Slack asks for a
// reconnect via a disconnect envelope (returned as nil so the caller can
// redial).
func ConsumeSocket(ctx context.Context, conn *websocket.Conn, onEnvelope func(SocketEnvelope) error) error {
	if conn == nil {
		return fmt.Errorf("slack websocket connection is nil")
	}
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var envelope SocketEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			continue
		}
		if strings.TrimSpace(envelope.EnvelopeID) != "" {
			if err := conn.WriteJSON(map[string]string{"envelope_id": envelope.EnvelopeID}); err != nil {
				return err
			}
		}
		switch envelope.Type {
		case EnvelopeHello:
			continue
		case EnvelopeDisconnect:
			return nil
		}
		if onEnvelope == nil {
			continue
		}
		if err := onEnvelope(envelope); err != nil {
			return err
		}
	}
}
