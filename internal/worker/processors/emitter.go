package processors

import (
	"context"
	"sync"
	"time"

	"hydrogen-admin/internal/events"
	"hydrogen-admin/internal/logger"
)

// Sink delivers events back to the admin.
type Sink interface {
	Send(ctx context.Context, ev events.Event) error
}

// emitter stamps a per-session sequence on everything it sends.
type emitter struct {
	sink    Sink
	logger  *logger.Logger
	session string

	mu   sync.Mutex
	seq  uint64
	last time.Time
}

func newEmitter(sink Sink, logger *logger.Logger, session string) *emitter {
	return &emitter{sink: sink, logger: logger, session: session, last: time.Now()}
}

func (e *emitter) emit(ctx context.Context, name events.Name, payload interface{}) {
	ev, err := events.New(name, e.session, payload)
	if err != nil {
		e.logger.Error("Failed to build %s: %v", name, err)
		return
	}

	e.mu.Lock()
	e.seq++
	ev.Seq = e.seq
	e.last = time.Now()
	err = e.sink.Send(ctx, ev)
	e.mu.Unlock()

	if err != nil {
		e.logger.Error("Failed to emit %s for session %s: %v", name, e.session, err)
	}
}

func (e *emitter) idleSince(now time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return now.Sub(e.last)
}

// sequences hands out one emitter per session, so a chained run keeps one
// increasing seq across its publish:collections and publish:products
// commands. Emitters idle for longer than idle are dropped.
type sequences struct {
	sink   Sink
	logger *logger.Logger
	idle   time.Duration

	mu       sync.Mutex
	emitters map[string]*emitter
}

func newSequences(sink Sink, logger *logger.Logger, idle time.Duration) *sequences {
	return &sequences{sink: sink, logger: logger, idle: idle, emitters: make(map[string]*emitter)}
}

func (s *sequences) acquire(session string) *emitter {
	if session == "" {
		return newEmitter(s.sink, s.logger, session)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, e := range s.emitters {
		if id != session && e.idleSince(now) > s.idle {
			delete(s.emitters, id)
		}
	}
	e, ok := s.emitters[session]
	if !ok {
		e = newEmitter(s.sink, s.logger, session)
		s.emitters[session] = e
	}
	return e
}

// release forgets a session that will receive no further commands.
func (s *sequences) release(session string) {
	s.mu.Lock()
	delete(s.emitters, session)
	s.mu.Unlock()
}
