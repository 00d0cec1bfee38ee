package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/wanderlust/internal/adapters/nats"
	"github.com/samirrijal/wanderlust/internal/core/domain"
	"github.com/samirrijal/wanderlust/internal/pkg/metrics"
)

// wsMessage is sent from client to drive the session.
type wsMessage struct {
	Action string `json:"action"` // "submit" | "snapshot"
	Text   string `json:"text"`
}

// SessionWebSocketHandler relays the events of one session to the client
// and accepts messages for it. On connect the current snapshot is sent.
// Clients send JSON: {"action":"submit","text":"Where should we eat?"}
func SessionWebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		id := c.Params("id")
		logger := slog.Default().With("session_id", id, "remote_addr", c.RemoteAddr().String())
		logger.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		sendSnapshot := func() bool {
			snap, err := deps.Sessions.Snapshot(context.Background(), id)
			if err != nil {
				_ = writeJSON(map[string]string{"error": wsErrorCode(err)})
				return false
			}
			_ = writeJSON(map[string]interface{}{"type": "snapshot", "session": snap})
			return true
		}
		if !sendSnapshot() {
			return
		}

		if deps.NATS != nil {
			sub, err := deps.NATS.Subscribe(natsadapter.SessionSubject(id, ""), func(msg *nats.Msg) {
				_ = writeJSON(json.RawMessage(msg.Data))
			})
			if err != nil {
				logger.Error("ws subscribe", "error", err)
				return
			}
			defer func() { _ = sub.Unsubscribe() }()
		}

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			switch m.Action {
			case "submit":
				if err := deps.Sessions.Submit(context.Background(), id, m.Text); err != nil {
					_ = writeJSON(map[string]string{"error": wsErrorCode(err)})
					continue
				}
				_ = writeJSON(map[string]interface{}{"accepted": true, "state": domain.StateGenerating})
			case "snapshot":
				sendSnapshot()
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		logger.Info("ws client disconnected")
	}
}

func wsErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrSessionBusy):
		return "session_busy"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}
