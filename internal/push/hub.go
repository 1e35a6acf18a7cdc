// Package push delivers best-effort realtime events to connected users.
// Events flow through an in-process hub; with redis configured they are
// bridged over pub/sub so any instance can reach a user connected elsewhere.
package push

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fieldforge/fieldforge/internal/observability/metrics"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

// Event is one realtime notification addressed to a single user.
type Event struct {
	UserID  string          `json:"user_id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
}

// Hub fans events out to subscribers keyed by user id. Delivery is
// best-effort; a slow subscriber loses events rather than blocking the
// publisher.
type Hub struct {
	mu               sync.RWMutex
	streams          map[string]*stream
	metrics          *metrics.Metrics
	bufferSize       int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	buffer []Event
	subs   map[uint64]chan Event
	nextID uint64
}

type Subscription struct {
	hub    *Hub
	userID string
	id     uint64
	ch     chan Event
	once   sync.Once
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		streams:          make(map[string]*stream),
		metrics:          m,
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	userID := strings.TrimSpace(event.UserID)
	if userID == "" {
		return
	}
	h.mu.RLock()
	stream := h.streams[userID]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	stream.buffer = append(stream.buffer, event)
	if len(stream.buffer) > h.bufferSize {
		stream.buffer = stream.buffer[len(stream.buffer)-h.bufferSize:]
	}
	subs := make([]chan Event, 0, len(stream.subs))
	for _, ch := range stream.subs {
		subs = append(subs, ch)
	}
	stream.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			h.metrics.PushDropped.Inc()
		}
	}
}

// Subscribe attaches to the user's stream and returns the recent backlog.
func (h *Hub) Subscribe(userID string) (*Subscription, []Event, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil, errors.New("invalid_user_id")
	}

	stream := h.ensureStream(userID)
	stream.mu.Lock()
	if stream.subs == nil {
		stream.subs = make(map[uint64]chan Event)
	}
	id := stream.nextID
	stream.nextID++
	ch := make(chan Event, h.subscriberBuffer)
	stream.subs[id] = ch
	backlog := append([]Event(nil), stream.buffer...)
	stream.mu.Unlock()

	return &Subscription{
		hub:    h,
		userID: userID,
		id:     id,
		ch:     ch,
	}, backlog, nil
}

func (h *Hub) ensureStream(userID string) *stream {
	h.mu.RLock()
	current := h.streams[userID]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.streams[userID]
	if current == nil {
		current = &stream{subs: make(map[uint64]chan Event)}
		h.streams[userID] = current
	}
	return current
}

func (h *Hub) unsubscribe(userID string, id uint64) {
	if h == nil {
		return
	}

	h.mu.RLock()
	stream := h.streams[userID]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	delete(stream.subs, id)
	remaining := len(stream.subs)
	stream.mu.Unlock()
	if remaining != 0 {
		return
	}

	h.mu.Lock()
	current := h.streams[userID]
	if current != stream {
		h.mu.Unlock()
		return
	}
	stream.mu.Lock()
	empty := len(stream.subs) == 0
	stream.mu.Unlock()
	if empty {
		delete(h.streams, userID)
	}
	h.mu.Unlock()
}

func (s *Subscription) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.userID, s.id)
	})
}
