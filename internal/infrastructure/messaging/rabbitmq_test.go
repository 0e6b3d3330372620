package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/agridynamic/admin-console/internal/core/ports"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error { f.closed = true; return nil }

func TestPublishContentChanged(t *testing.T) {
	ch := &fakeChannel{}
	b := newBroker(ch, "content.changed", zerolog.Nop())

	err := b.PublishContentChanged(context.Background(), ports.ContentEvent{Resource: "articles", Action: ports.ActionCreated, ID: "a1"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(ch.published) != 1 || ch.keys[0] != "content.changed" {
		t.Fatalf("expected one message on content.changed, got %v", ch.keys)
	}
	msg := ch.published[0]
	if msg.Type != "articles.created" || msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("unexpected publishing %+v", msg)
	}
	var evt ports.ContentEvent
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		t.Fatalf("body: %v", err)
	}
	if evt.ID != "a1" || evt.At.IsZero() {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestPublishContentChanged_BreakerOpens(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	b := newBroker(ch, "q", zerolog.Nop())

	for i := 0; i < 3; i++ {
		_ = b.PublishContentChanged(context.Background(), ports.ContentEvent{Resource: "partners", Action: ports.ActionDeleted})
	}
	err := b.PublishContentChanged(context.Background(), ports.ContentEvent{Resource: "partners", Action: ports.ActionDeleted})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
}

func TestPublishContentChanged_ExpiredContext(t *testing.T) {
	ch := &fakeChannel{}
	b := newBroker(ch, "q", zerolog.Nop())
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	if err := b.PublishContentChanged(ctx, ports.ContentEvent{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if len(ch.published) != 0 {
		t.Fatalf("nothing must be published")
	}
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	if err := newBroker(ch, "q", zerolog.Nop()).Close(); err != nil || !ch.closed {
		t.Fatalf("expected channel closed, err=%v", err)
	}
}
