package sse

import (
	"sync"
	"sync/atomic"

	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/metrics"
)

// Event is one message pushed to a user's open streams. ID increases
// monotonically per hub and is written as the SSE id field.
type Event struct {
	ID   uint64
	Name string
	Data any
}

// Config sizes the hub. Zero values fall back to the defaults.
type Config struct {
	// Buffer is the per-connection queue length. A full queue drops events.
	Buffer int
	// MaxPerUser caps concurrent streams per user; the oldest is closed
	// when a new one would exceed it.
	MaxPerUser int
}

const (
	defaultBuffer     = 16
	defaultMaxPerUser = 5
)

// Subscription is one open stream.
type Subscription struct {
	hub    *Hub
	userID string
	ch     chan Event
	closed bool
}

// Events yields pushed events until the subscription is closed.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() { s.hub.remove(s) }

// Hub fans events out to every open stream of a user.
type Hub struct {
	cfg  Config
	seq  atomic.Uint64
	mu   sync.Mutex
	subs map[string][]*Subscription
}

func NewHub(cfg Config) *Hub {
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = defaultMaxPerUser
	}
	return &Hub{cfg: cfg, subs: make(map[string][]*Subscription)}
}

// Subscribe opens a stream for userID.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{hub: h, userID: userID, ch: make(chan Event, h.cfg.Buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.subs[userID]
	for len(list) >= h.cfg.MaxPerUser {
		oldest := list[0]
		list = list[1:]
		h.closeLocked(oldest)
		metrics.StreamDropped.WithLabelValues("evicted").Inc()
	}
	h.subs[userID] = append(list, sub)
	metrics.StreamSubscribers.Inc()
	return sub
}

// Publish delivers to every stream of userID without blocking and returns
// how many streams accepted the event.
func (h *Hub) Publish(userID, name string, data any) int {
	ev := Event{ID: h.seq.Add(1), Name: name, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, sub := range h.subs[userID] {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			metrics.StreamDropped.WithLabelValues("full").Inc()
		}
	}
	return delivered
}

// SubscriberCount returns the open streams for userID.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.subs[sub.userID]
	for i, s := range list {
		if s == sub {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(h.subs, sub.userID)
	} else {
		h.subs[sub.userID] = list
	}
	h.closeLocked(sub)
}

func (h *Hub) closeLocked(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
	metrics.StreamSubscribers.Dec()
}
