package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"areascope/internal/core/ports"
	"areascope/internal/pkg/metrics"
)

// DefaultNoticeTTL is how long a notice stays visible.
const DefaultNoticeTTL = 3 * time.Second

// NoticeService holds the single transient user-facing status message.
// Overlapping notices replace each other; every Show restarts the expiry
// window for the new message.
type NoticeService struct {
	mu      sync.Mutex
	current string
	gen     uint64

	ttl       time.Duration
	publisher ports.EventPublisher
}

// NewNoticeService creates a NoticeService. A non-positive ttl falls back to
// DefaultNoticeTTL.
func NewNoticeService(ttl time.Duration) *NoticeService {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &NoticeService{ttl: ttl}
}

// SetPublisher wires the event bus so clients can show the toast. Optional.
func (n *NoticeService) SetPublisher(p ports.EventPublisher) { n.publisher = p }

// Show sets the current message and schedules its expiry. The generation
// counter keeps a stale timer from clearing a newer message.
func (n *NoticeService) Show(message string) {
	n.mu.Lock()
	n.current = message
	n.gen++
	gen := n.gen
	n.mu.Unlock()

	metrics.NoticesShown.Inc()
	if n.publisher != nil {
		if err := n.publisher.PublishNotice(context.Background(), message); err != nil {
			slog.Debug("publish notice", "error", err)
		}
	}

	time.AfterFunc(n.ttl, func() {
		n.mu.Lock()
		if n.gen == gen {
			n.current = ""
		}
		n.mu.Unlock()
	})
}

// Current returns the message currently on display, or "" after expiry.
func (n *NoticeService) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
