package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"hydrogen-admin/internal/events"
	"hydrogen-admin/internal/logger"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Dialer opens a fresh event source. It is called again after a failure.
type Dialer func(ctx context.Context) (Source, error)

type Options struct {
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	// SessionTTL drops sessions that saw no event for this long.
	SessionTTL time.Duration
	// DoneRetention keeps a finished session readable for late clients.
	DoneRetention time.Duration
	// SweepInterval is how often Run evicts expired sessions.
	SweepInterval time.Duration
}

// Hub owns every open session of this process.
type Hub struct {
	sink   Sink
	logger *logger.Logger
	opts   Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub(sink Sink, logger *logger.Logger, opts Options) *Hub {
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = 5
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 1500 * time.Millisecond
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.DoneRetention <= 0 {
		opts.DoneRetention = 10 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	return &Hub{
		sink:     sink,
		logger:   logger,
		opts:     opts,
		sessions: map[string]*Session{},
	}
}

// Open registers a session and connects it, which sends its start command.
func (h *Hub) Open(ctx context.Context, mode events.Mode, storeName, storeID string, start json.RawMessage) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid session mode %q", mode)
	}
	session := newSession(uuid.NewString(), events.NewState(mode, storeName, storeID, start))

	h.mu.Lock()
	h.sessions[session.ID] = session
	h.mu.Unlock()

	h.logger.Info("Opened %s session %s for store %s", mode, session.ID, storeID)
	h.Dispatch(ctx, events.Event{Name: events.Connect, Session: session.ID})
	return session, nil
}

func (h *Hub) Get(id string) (*Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	session, ok := h.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (h *Hub) Close(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

// Evict drops the sessions that expired at now and returns how many.
func (h *Hub) Evict(now time.Time) int {
	var expired []string
	for _, s := range h.list() {
		if s.expired(now, h.opts.SessionTTL, h.opts.DoneRetention) {
			expired = append(expired, s.ID)
		}
	}
	if len(expired) == 0 {
		return 0
	}

	h.mu.Lock()
	for _, id := range expired {
		delete(h.sessions, id)
	}
	h.mu.Unlock()
	h.logger.Debug("Evicted %d expired sessions", len(expired))
	return len(expired)
}

func (h *Hub) sweep(ctx context.Context) {
	ticker := time.NewTicker(h.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.Evict(now)
		}
	}
}

func (h *Hub) list() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// Send delivers a command that is not tied to an open session.
func (h *Hub) Send(ctx context.Context, cmd events.Command) error {
	return h.sink.Send(ctx, cmd)
}

// Dispatch folds ev into its session and sends the resulting commands. A
// command that cannot be delivered is reported back as connect_error.
func (h *Hub) Dispatch(ctx context.Context, ev events.Event) {
	session, err := h.Get(ev.Session)
	if err != nil {
		h.logger.Debug("Dropping %s for unknown session %q", ev.Name, ev.Session)
		return
	}

	cmds, applied := session.apply(ev)
	if !applied {
		h.logger.Debug("Duplicate %s seq %d for session %s", ev.Name, ev.Seq, ev.Session)
		return
	}
	for _, cmd := range cmds {
		if err := h.sink.Send(ctx, cmd); err != nil {
			h.logger.Error("Failed to send %s for session %s: %v", cmd.Name, session.ID, err)
			session.apply(events.Event{Name: events.ConnectError, Session: session.ID})
			continue
		}
		h.logger.Info("Sent %s for session %s", cmd.Name, session.ID)
	}
}

func (h *Hub) broadcast(ctx context.Context, name events.Name) {
	for _, s := range h.list() {
		h.Dispatch(ctx, events.Event{Name: name, Session: s.ID})
	}
}

// Run reads events until ctx ends. A broken source is redialed up to
// ReconnectAttempts times, ReconnectDelay apart; sessions see disconnect
// while it is down and connect once it is back. Expired sessions are evicted
// while Run is active.
func (h *Hub) Run(ctx context.Context, dial Dialer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go h.sweep(ctx)

	failures := 0
	down := false

	for {
		source, err := dial(ctx)
		if err == nil {
			if down {
				h.broadcast(ctx, events.Connect)
				down = false
			}
			err = h.drain(ctx, source, &failures)
			source.Close()
		}
		if ctx.Err() != nil {
			return nil
		}

		failures++
		h.logger.Warn("Event source failed (attempt %d/%d): %v", failures, h.opts.ReconnectAttempts, err)
		if !down {
			h.broadcast(ctx, events.Disconnect)
			down = true
		}
		if failures >= h.opts.ReconnectAttempts {
			h.broadcast(ctx, events.ConnectError)
			return fmt.Errorf("event source unavailable after %d attempts: %w", failures, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(h.opts.ReconnectDelay):
		}
	}
}

func (h *Hub) drain(ctx context.Context, source Source, failures *int) error {
	for {
		ev, err := source.Read(ctx)
		if err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				h.logger.Warn("Skipping event: %v", err)
				continue
			}
			return err
		}
		*failures = 0
		h.Dispatch(ctx, ev)
	}
}
