package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
)

// ControllerState is the request lifecycle of a ResourceController.
type ControllerState string

const (
	StateIdle    ControllerState = "idle"
	StateLoading ControllerState = "loading"
	StateReady   ControllerState = "ready"
	StateError   ControllerState = "error"
)

// Definition describes one resource collection: its endpoint name, its form
// schema and the payload adjustments its backend expects.
type Definition[T domain.Item] struct {
	Name      string
	Label     string
	Schema    domain.Schema
	CanCreate bool
	// OnCreate and OnUpdate adjust a built payload before it is sent.
	OnCreate func(p *ports.Payload)
	OnUpdate func(p *ports.Payload, previous T)
}

// ResourceSnapshot is a copy of a controller's observable state.
type ResourceSnapshot[T domain.Item] struct {
	State ControllerState
	Items []T
	Err   error
}

type controllerOptions struct {
	publisher ports.ContentEventPublisher
	optimizer ports.ImageOptimizer
	now       func() time.Time
}

// ControllerOption configures optional collaborators of a ResourceController.
type ControllerOption func(*controllerOptions)

// WithPublisher announces every successful mutation on pub.
func WithPublisher(pub ports.ContentEventPublisher) ControllerOption {
	return func(o *controllerOptions) { o.publisher = pub }
}

// WithImageOptimizer passes every uploaded file through opt.
func WithImageOptimizer(opt ports.ImageOptimizer) ControllerOption {
	return func(o *controllerOptions) { o.optimizer = opt }
}

// ResourceController mirrors one backend collection in memory. The local list
// is a cache: replaced wholesale by FetchAll and patched in place after each
// successful mutation. At most one mutation runs at a time; a second one
// fails with domain.ErrBusy instead of queueing.
type ResourceController[T domain.Item] struct {
	def  Definition[T]
	gw   ports.ResourceGateway[T]
	log  zerolog.Logger
	opts controllerOptions

	mutating atomic.Bool

	mu    sync.RWMutex
	state ControllerState
	items []T
	err   error
}

func NewResourceController[T domain.Item](def Definition[T], gw ports.ResourceGateway[T], log zerolog.Logger, opts ...ControllerOption) *ResourceController[T] {
	o := controllerOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &ResourceController[T]{
		def:   def,
		gw:    gw,
		log:   log.With().Str("resource", def.Name).Logger(),
		opts:  o,
		state: StateIdle,
	}
}

func (c *ResourceController[T]) Definition() Definition[T] { return c.def }

// FetchAll replaces the local list with the server's. On failure the previous
// list stays available and the controller enters the error state.
func (c *ResourceController[T]) FetchAll(ctx context.Context) ([]T, error) {
	c.setState(StateLoading, nil)
	items, err := c.refetch(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("fetch failed, keeping previous list")
		return c.Items(), err
	}
	c.log.Debug().Int("count", len(items)).Msg("list fetched")
	return c.Items(), nil
}

// Create submits draft as a new item and adds the server's copy to the list.
func (c *ResourceController[T]) Create(ctx context.Context, draft domain.FormDraft) (T, error) {
	var zero T
	if !c.def.CanCreate {
		return zero, fmt.Errorf("create %s: %w", c.def.Name, domain.ErrNotSupported)
	}
	if !c.mutating.CompareAndSwap(false, true) {
		return zero, domain.ErrBusy
	}
	defer c.mutating.Store(false)

	payload, err := BuildPayload(c.def.Schema, draft, nil, c.opts.optimizer)
	if err != nil {
		return zero, err
	}
	if c.def.OnCreate != nil {
		c.def.OnCreate(&payload)
	}

	c.setState(StateLoading, nil)
	created, err := c.gw.Create(ctx, payload)
	if err != nil {
		err = fmt.Errorf("create %s: %w", c.def.Name, err)
		c.setState(StateError, err)
		return zero, err
	}

	if created.ItemID() == "" {
		// No body to reconcile with: the list is the only authoritative copy.
		c.log.Debug().Msg("create returned no item, refetching")
		if _, ferr := c.refetch(ctx); ferr != nil {
			c.log.Warn().Err(ferr).Msg("refetch after create failed")
		}
		c.publish(ctx, ports.ActionCreated, "")
		return created, nil
	}

	c.mu.Lock()
	if i := c.indexLocked(created.ItemID()); i >= 0 {
		c.items[i] = created
	} else {
		c.items = append(c.items, created)
	}
	c.state, c.err = StateReady, nil
	c.mu.Unlock()

	c.log.Info().Str("id", created.ItemID()).Msg("item created")
	c.publish(ctx, ports.ActionCreated, created.ItemID())
	return created, nil
}

// Update submits draft for the item with id. The item must be in the local
// list: its last-known values decide which image URLs count as changed.
func (c *ResourceController[T]) Update(ctx context.Context, id string, draft domain.FormDraft) (T, error) {
	var zero T
	if !c.mutating.CompareAndSwap(false, true) {
		return zero, domain.ErrBusy
	}
	defer c.mutating.Store(false)

	previous, ok := c.Find(id)
	if !ok {
		return zero, fmt.Errorf("update %s %s: %w", c.def.Name, id, domain.ErrNotFound)
	}
	prevValues := map[string]string{}
	if src, ok := any(previous).(domain.FormSource); ok {
		prevValues = src.FormValues()
	}

	payload, err := BuildPayload(c.def.Schema, draft, prevValues, c.opts.optimizer)
	if err != nil {
		return zero, err
	}
	if c.def.OnUpdate != nil {
		c.def.OnUpdate(&payload, previous)
	}

	c.setState(StateLoading, nil)
	updated, err := c.gw.Update(ctx, id, payload)
	if err != nil {
		err = fmt.Errorf("update %s %s: %w", c.def.Name, id, err)
		c.setState(StateError, err)
		return zero, err
	}
	if updated.ItemID() == "" {
		if updated, err = c.gw.Get(ctx, id); err != nil {
			c.log.Warn().Err(err).Str("id", id).Msg("reload after update failed, keeping previous copy")
			updated = previous
		}
	}

	c.mu.Lock()
	if i := c.indexLocked(id); i >= 0 {
		c.items[i] = updated
	}
	c.state, c.err = StateReady, nil
	c.mu.Unlock()

	c.log.Info().Str("id", id).Msg("item updated")
	c.publish(ctx, ports.ActionUpdated, id)
	return updated, nil
}

// Delete removes the item with id after confirm approves it. Nothing is sent
// when confirmation is declined or confirm is nil.
func (c *ResourceController[T]) Delete(ctx context.Context, id string, confirm ports.Confirmer) error {
	if !c.mutating.CompareAndSwap(false, true) {
		return domain.ErrBusy
	}
	defer c.mutating.Store(false)

	prompt := fmt.Sprintf("Are you sure you want to delete this %s? This cannot be undone.", c.def.Label)
	if confirm == nil || !confirm.Confirm(ctx, prompt) {
		c.log.Debug().Str("id", id).Msg("delete declined")
		return domain.ErrConfirmationDeclined
	}

	c.setState(StateLoading, nil)
	if err := c.gw.Delete(ctx, id); err != nil {
		err = fmt.Errorf("delete %s %s: %w", c.def.Name, id, err)
		c.setState(StateError, err)
		return err
	}

	c.mu.Lock()
	if i := c.indexLocked(id); i >= 0 {
		c.items = append(c.items[:i:i], c.items[i+1:]...)
	}
	c.state, c.err = StateReady, nil
	c.mu.Unlock()

	c.log.Info().Str("id", id).Msg("item deleted")
	c.publish(ctx, ports.ActionDeleted, id)
	return nil
}

// Find returns the last-known copy of the item with id.
func (c *ResourceController[T]) Find(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Items copies the local list.
func (c *ResourceController[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

func (c *ResourceController[T]) Snapshot() ResourceSnapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ResourceSnapshot[T]{
		State: c.state,
		Items: append([]T(nil), c.items...),
		Err:   c.err,
	}
}

// Busy reports whether a mutation is in flight.
func (c *ResourceController[T]) Busy() bool { return c.mutating.Load() }

func (c *ResourceController[T]) refetch(ctx context.Context) ([]T, error) {
	items, err := c.gw.List(ctx)
	if err != nil {
		err = fmt.Errorf("list %s: %w", c.def.Name, err)
		c.setState(StateError, err)
		return nil, err
	}
	c.mu.Lock()
	c.items = append([]T(nil), items...)
	c.state, c.err = StateReady, nil
	c.mu.Unlock()
	return items, nil
}

func (c *ResourceController[T]) setState(s ControllerState, err error) {
	c.mu.Lock()
	c.state, c.err = s, err
	c.mu.Unlock()
}

func (c *ResourceController[T]) indexLocked(id string) int {
	for i, it := range c.items {
		if it.ItemID() == id {
			return i
		}
	}
	return -1
}

func (c *ResourceController[T]) publish(ctx context.Context, action ports.ContentAction, id string) {
	if c.opts.publisher == nil {
		return
	}
	evt := ports.ContentEvent{Resource: c.def.Name, Action: action, ID: id, At: c.opts.now().UTC()}
	if err := c.opts.publisher.PublishContentChanged(ctx, evt); err != nil {
		c.log.Warn().Err(err).Str("action", string(action)).Msg("content event not published")
	}
}
