package resource

import (
	"time"

	"github.com/Additional-Code/depot/internal/resource"
)

// Action names the mutation an Event records.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event is published on the message bus after every committed mutation.
type Event struct {
	Kind       resource.Kind `json:"kind"`
	Action     Action        `json:"action"`
	ID         int64         `json:"id"`
	Owner      int64         `json:"owner"`
	Actor      string        `json:"actor,omitempty"`
	Summary    string        `json:"summary"`
	OccurredAt time.Time     `json:"occurred_at"`
}
