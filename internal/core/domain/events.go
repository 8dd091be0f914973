package domain

import "time"

// AreaEventType classifies a mutation of the area list.
type AreaEventType string

const (
	AreaCreated    AreaEventType = "created"
	AreaUpdated    AreaEventType = "updated"
	AreaDeleted    AreaEventType = "deleted"
	AreaVisibility AreaEventType = "visibility"
)

// AreaEvent records a single mutation of the area list. Area is nil for
// deletions.
type AreaEvent struct {
	Type AreaEventType `json:"type"`
	ID   int64         `json:"id"`
	Area *Area         `json:"area,omitempty"`
	Time time.Time     `json:"time"`
}
