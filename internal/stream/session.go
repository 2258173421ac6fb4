package stream

import (
	"sync"
	"time"

	"hydrogen-admin/internal/events"
)

// Update is what subscribers receive: the event and the state after it.
type Update struct {
	Event events.Event `json:"event"`
	State events.State `json:"state"`
}

type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	state   events.State
	seen    map[uint64]bool
	subs    map[chan Update]struct{}
	touched time.Time
}

func newSession(id string, state events.State) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		state:     state,
		seen:      map[uint64]bool{},
		subs:      map[chan Update]struct{}{},
		touched:   now,
	}
}

func (s *Session) Snapshot() events.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// expired reports whether the session can be dropped at now. Sessions with
// a live subscriber are kept.
func (s *Session) expired(now time.Time, ttl, retain time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return false
	}
	idle := now.Sub(s.touched)
	if s.state.Done() {
		return idle > retain
	}
	return idle > ttl
}

// Subscribe returns a channel of updates and a func that releases it.
// Slow subscribers miss updates rather than block the session.
func (s *Session) Subscribe(buffer int) (<-chan Update, func()) {
	ch := make(chan Update, buffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// apply folds ev and fans the result out. Duplicate sequenced deliveries are
// dropped here.
func (s *Session) apply(ev events.Event) ([]events.Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Seq != 0 {
		if s.seen[ev.Seq] {
			return nil, false
		}
		s.seen[ev.Seq] = true
	}

	var cmds []events.Command
	s.state, cmds = events.Reduce(s.state, ev)
	s.touched = time.Now()

	update := Update{Event: ev, State: s.state}
	for ch := range s.subs {
		select {
		case ch <- update:
		default:
		}
	}
	return cmds, true
}
