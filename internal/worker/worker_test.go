package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hydrogen-admin/internal/events"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/stream"
	"hydrogen-admin/internal/worker"

	"github.com/stretchr/testify/assert"
)

type queueSource struct {
	mu     sync.Mutex
	queue  []events.Event
	closed bool
	done   chan struct{}
}

func newQueue(evs ...events.Event) *queueSource {
	return &queueSource{queue: evs, done: make(chan struct{})}
}

func (q *queueSource) Read(ctx context.Context) (events.Event, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return events.Event{}, stream.ErrSourceClosed
	}
	if len(q.queue) > 0 {
		ev := q.queue[0]
		q.queue = q.queue[1:]
		q.mu.Unlock()
		return ev, nil
	}
	q.mu.Unlock()
	select {
	case <-ctx.Done():
		return events.Event{}, ctx.Err()
	case <-q.done:
		return events.Event{}, stream.ErrSourceClosed
	}
}

func (q *queueSource) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	return nil
}

// brokenSource fails every read.
type brokenSource struct {
	reads atomic.Int32
}

func (b *brokenSource) Read(ctx context.Context) (events.Event, error) {
	b.reads.Add(1)
	return events.Event{}, errors.New("broker unreachable")
}

func (b *brokenSource) Close() error { return nil }

type processorFunc func(ctx context.Context, cmd events.Command) error

func (f processorFunc) Process(ctx context.Context, cmd events.Command) error { return f(ctx, cmd) }

func nothing(ctx context.Context, cmd events.Command) error { return nil }

func run(ctx context.Context, w *worker.Worker) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	return done
}

func TestWorkerProcessesOnlyCommands(t *testing.T) {
	source := newQueue(
		events.Event{Name: events.PublishCollections, Session: "a"},
		events.Event{Name: events.PublishProgress, Session: "a"},
		events.Event{Name: events.ShopifyCreate, Session: "b"},
		events.Event{Name: events.PublishProducts, Session: "c"},
	)

	var mu sync.Mutex
	var seen []events.Name
	ctx, cancel := context.WithCancel(context.Background())
	w := worker.New(source, processorFunc(func(ctx context.Context, cmd events.Command) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, cmd.Name)
		if cmd.Name == events.ShopifyCreate {
			return errors.New("registry down")
		}
		if len(seen) == 3 {
			cancel()
		}
		return nil
	}), logger.Nop())

	select {
	case <-run(ctx, w):
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	w.Stop()

	assert.Equal(t, []events.Name{events.PublishCollections, events.ShopifyCreate, events.PublishProducts}, seen)
	assert.True(t, source.closed)
}

func TestWorkerExitsWhenSourceIsClosed(t *testing.T) {
	source := newQueue()
	w := worker.New(source, processorFunc(nothing), logger.Nop())

	done := run(context.Background(), w)
	time.Sleep(20 * time.Millisecond)
	w.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker kept reading a closed source")
	}
}

func TestWorkerPausesAfterReadErrors(t *testing.T) {
	source := &brokenSource{}
	w := worker.New(source, processorFunc(nothing), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := run(ctx, w)
	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop while backing off")
	}
	assert.LessOrEqual(t, source.reads.Load(), int32(2))
}
