package realtime

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event kinds carried by lead change notifications.
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
	EventAll    = "*"
)

// Event is a row change notification. It only signals that a refetch is due.
type Event struct {
	Table  string    `json:"table"`
	Event  string    `json:"event"`
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

// ValidEvent reports whether kind is a subscribable event filter.
func ValidEvent(kind string) bool {
	switch kind {
	case EventInsert, EventUpdate, EventDelete, EventAll:
		return true
	default:
		return false
	}
}

// Hub fans events out to subscribers of the owning user.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	logger *zap.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{subs: make(map[*Subscription]struct{}), logger: logger}
}

// Subscription receives the events of one user matching one event filter.
type Subscription struct {
	hub    *Hub
	userID uuid.UUID
	kind   string
	ch     chan Event
	once   sync.Once
}

// Subscribe registers a subscriber. buffer bounds how many undelivered events
// are kept before new ones are dropped.
func (h *Hub) Subscribe(userID uuid.UUID, kind string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	if kind == "" {
		kind = EventAll
	}
	sub := &Subscription{hub: h, userID: userID, kind: kind, ch: make(chan Event, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Events is closed once the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

func (s *Subscription) wants(e Event) bool {
	if s.userID != e.UserID {
		return false
	}
	return s.kind == EventAll || s.kind == e.Event
}

// Publish delivers e without blocking. Subscribers with a full buffer miss it.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.wants(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			h.logger.Debug("dropping realtime event for slow subscriber",
				zap.String("table", e.Table),
				zap.String("event", e.Event),
				zap.Stringer("user_id", e.UserID),
			)
		}
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
