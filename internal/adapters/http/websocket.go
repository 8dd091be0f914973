package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"areascope/internal/adapters/mapsync"
	natsadapter "areascope/internal/adapters/nats"
	"areascope/internal/pkg/metrics"
)

// wsEnvelope wraps every server→client message with its channel so a single
// socket carries render commands, mode changes, notices, and area events.
type wsEnvelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// channelForSubject maps a NATS subject to the client-facing channel name.
func channelForSubject(subject string) string {
	switch subject {
	case natsadapter.SubjectRender:
		return "render"
	case natsadapter.SubjectMode:
		return "mode"
	case natsadapter.SubjectNotice:
		return "notice"
	default:
		return "event"
	}
}

// WebSocketHandler upgrades a map client to WebSocket. Outbound, it relays
// render commands and state changes from NATS; inbound, it accepts gesture
// events and hands them to the dispatcher. On connect the client receives an
// upsert for every visible area so a fresh map converges without a REST call.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		session := c.Query("session")
		slog.Info("map client connected", "remote", remoteAddr, "session", session)

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		write := func(channel string, data []byte) error {
			payload, err := json.Marshal(wsEnvelope{Channel: channel, Data: data})
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, payload)
		}

		// Replay the current area list so the client starts in sync.
		for _, cmd := range deps.Map.Snapshot() {
			data, err := json.Marshal(cmd)
			if err != nil {
				continue
			}
			if err := write("render", data); err != nil {
				return
			}
		}

		subjects := []string{
			natsadapter.SubjectRender,
			natsadapter.SubjectMode,
			natsadapter.SubjectNotice,
			natsadapter.SubjectAreaPrefix + ">",
		}
		subs := make([]*nats.Subscription, 0, len(subjects))
		for _, subject := range subjects {
			sub, err := deps.NATS.Subscribe(subject, func(msg *nats.Msg) {
				_ = write(channelForSubject(msg.Subject), msg.Data)
			})
			if err != nil {
				slog.Error("ws subscribe", "error", err, "subject", subject)
				return
			}
			subs = append(subs, sub)
		}
		defer func() {
			for _, sub := range subs {
				_ = sub.Unsubscribe()
			}
		}()

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

		// Inbound gestures
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var ev mapsync.GestureEvent
			if err := json.Unmarshal(msg, &ev); err != nil {
				_ = write("error", []byte(`{"error":"invalid JSON"}`))
				continue
			}
			if ev.Session == "" {
				ev.Session = session
			}

			if err := deps.Gestures.Handle(context.Background(), ev); err != nil {
				slog.Warn("gesture dispatch", "error", err, "type", ev.Type, "session", ev.Session)
			}
		}

		slog.Info("map client disconnected", "remote", remoteAddr, "session", session)
	}
}
