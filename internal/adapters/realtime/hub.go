// Package realtime fans out row-change events to live subscribers.
package realtime

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"aidmap-api/internal/pkg/logger"
	"aidmap-api/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event types
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
)

// Topic names
const (
	TopicOpenRequests = "aid_requests:open"
)

// CommunityTopic is the feed of a neighborhood's chat
func CommunityTopic(neighborhoodID string) string {
	return "community:" + neighborhoodID
}

// DirectTopic is the feed shared by two users. The pair is order independent.
func DirectTopic(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return "dm:" + strings.Join(pair, ":")
}

// RequestTopic is the feed of one aid request thread
func RequestTopic(aidRequestID string) string {
	return "request:" + aidRequestID
}

// Event is a row change published on a topic
type Event struct {
	Topic     string          `json:"topic"`
	Type      string          `json:"event"`
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Data      json.RawMessage `json:"data"`
	Origin    string          `json:"origin,omitempty"`
}

// NewEvent builds an event carrying row serialized as JSON
func NewEvent(topic, eventType, id string, createdAt time.Time, row interface{}) (Event, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", topic, err)
	}
	return Event{
		Topic:     topic,
		Type:      eventType,
		ID:        id,
		CreatedAt: createdAt,
		Data:      data,
	}, nil
}

// Publisher accepts events for fan-out
type Publisher interface {
	Publish(event Event)
}

// Subscription is one live listener on a topic
type Subscription struct {
	ID    string
	Topic string
	C     chan Event
}

// Hub keeps topic → subscriber sets. Sends never block: a subscriber
// whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Subscription
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[string]*Subscription)}
}

// Subscribe registers a listener on topic with the given channel buffer
func (h *Hub) Subscribe(topic string, buffer int) *Subscription {
	sub := &Subscription{
		ID:    uuid.NewString(),
		Topic: topic,
		C:     make(chan Event, buffer),
	}

	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]*Subscription)
		h.topics[topic] = subs
	}
	subs[sub.ID] = sub
	total := len(subs)
	h.mu.Unlock()

	metrics.SubscriberAdded()
	logger.WithFields(logrus.Fields{"topic": topic, "subscribers": total}).
		Debug("📡 realtime subscriber registered")
	return sub
}

// Unsubscribe removes the listener and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[sub.Topic]
	if !ok {
		return
	}
	if _, ok := subs[sub.ID]; !ok {
		return
	}
	delete(subs, sub.ID)
	close(sub.C)
	if len(subs) == 0 {
		delete(h.topics, sub.Topic)
	}
	metrics.SubscriberRemoved()
}

// Publish delivers event to every subscriber of its topic
func (h *Hub) Publish(event Event) {
	h.Deliver(event)
}

// Deliver is Publish returning the number of subscribers reached
func (h *Hub) Deliver(event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, sub := range h.topics[event.Topic] {
		select {
		case sub.C <- event:
			sent++
			metrics.RecordEvent("delivered")
		default:
			metrics.RecordEvent("dropped")
			logger.WithFields(logrus.Fields{"topic": event.Topic, "subscription": sub.ID}).
				Warn("⚠️ realtime channel full, skipping")
		}
	}
	return sent
}

// Subscribers returns the listener count of topic
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
