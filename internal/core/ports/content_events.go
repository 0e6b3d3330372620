package ports

import (
	"context"
	"time"
)

type ContentAction string

const (
	ActionCreated ContentAction = "created"
	ActionUpdated ContentAction = "updated"
	ActionDeleted ContentAction = "deleted"
)

// ContentEvent announces a successful mutation of a resource item.
type ContentEvent struct {
	Resource string        `json:"resource"`
	Action   ContentAction `json:"action"`
	ID       string        `json:"id"`
	At       time.Time     `json:"at"`
}

// ContentEventPublisher fans content changes out to other systems.
type ContentEventPublisher interface {
	PublishContentChanged(ctx context.Context, evt ContentEvent) error
}
