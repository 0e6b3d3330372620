package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agridynamic/admin-console/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	publishTimeout = 5 * time.Second
)

var (
	// ErrQueueFull is returned when a worker channel has no room left.
	ErrQueueFull = errors.New("content event queue full")
	// ErrClosed is returned for events offered after Close.
	ErrClosed = errors.New("content event dispatcher closed")
)

// Dispatcher moves content events off the request path. Events are sharded by
// resource and item id onto a fixed set of workers, so changes to one item
// reach the downstream publisher in order.
type Dispatcher struct {
	workers []chan ports.ContentEvent
	next    ports.ContentEventPublisher
	log     zerolog.Logger
	wg      sync.WaitGroup

	// mu guards closed; senders hold the read lock across the channel send.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

var _ ports.ContentEventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers in front
// of next. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, next ports.ContentEventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ContentEvent, numWorkers),
		next:    next,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ContentEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled or
// after Close once their channel is drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// PublishContentChanged enqueues evt without blocking. It returns ErrClosed
// once Close has been called.
func (d *Dispatcher) PublishContentChanged(_ context.Context, evt ports.ContentEvent) error {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.workers[d.shardIndex(evt.Resource+"/"+evt.ID)] <- evt:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the workers to drain. Calls
// after the first return once the drain is done.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
		d.mu.Unlock()
	})
	d.wg.Wait()
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ContentEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			pctx, cancel := context.WithTimeout(ctx, publishTimeout)
			if err := d.next.PublishContentChanged(pctx, evt); err != nil {
				d.log.Error().Err(err).
					Str("resource", evt.Resource).
					Str("id", evt.ID).
					Int("worker_id", id).
					Msg("content event publish failed")
			}
			cancel()
		}
	}
}
