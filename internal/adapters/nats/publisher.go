package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"areascope/internal/core/domain"
)

// Subjects carried over NATS. Area events go through JetStream so a relay
// restart misses nothing recent; render commands, mode changes, and notices
// are ephemeral UI state and use plain core NATS.
const (
	SubjectAreaPrefix = "areas.event."
	SubjectRender     = "areas.render"
	SubjectMode       = "areas.mode"
	SubjectNotice     = "areas.notice"
)

// Publisher implements ports.EventPublisher on NATS.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the area event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "AREA_EVENTS",
		Subjects:  []string{"areas.event.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist; try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishAreaEvent(ctx context.Context, ev domain.AreaEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectAreaPrefix+string(ev.Type), data)
	return err
}

func (p *Publisher) PublishModeChange(ctx context.Context, sessionID string, mode domain.Mode) error {
	payload := struct {
		Session string      `json:"session"`
		Mode    domain.Mode `json:"mode"`
	}{Session: sessionID, Mode: mode}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectMode, data)
}

func (p *Publisher) PublishNotice(ctx context.Context, message string) error {
	data, err := json.Marshal(struct {
		Message string `json:"message"`
	}{Message: message})
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectNotice, data)
}

// PublishRenderCommand forwards an already-encoded render command to every
// connected map client.
func (p *Publisher) PublishRenderCommand(ctx context.Context, data []byte) error {
	return p.conn.Publish(SubjectRender, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
