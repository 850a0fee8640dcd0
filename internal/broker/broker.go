// Package broker fans out lifecycle and chat events to live
// subscribers. Delivery is best-effort at-most-once: a publish never
// blocks on a slow receiver, and late subscribers never see past
// events.
package broker

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SenjeyB/LinkadooDemo/internal/metrics"
)

// TopicLobbies is the global lobby-list topic.
const TopicLobbies = "lobbies"

// defaultBuffer is the per-subscriber event queue size. Events beyond
// it are dropped rather than blocking the publisher.
const defaultBuffer = 64

// TopicParticipants names the participant topic of one lobby.
func TopicParticipants(lobbyID int64) string {
	return fmt.Sprintf("lobby.%d.participants", lobbyID)
}

// TopicMessages names the message topic of one lobby.
func TopicMessages(lobbyID int64) string {
	return fmt.Sprintf("lobby.%d.messages", lobbyID)
}

// Subscription is one receiver on one topic. Events arrive on C until
// Unsubscribe closes it.
type Subscription struct {
	ID    uuid.UUID
	Topic string
	C     <-chan interface{}

	ch chan interface{}
}

// Broker is a concurrent-safe topic -> subscriber-set registry.
type Broker struct {
	mu     sync.RWMutex
	topics map[string]map[uuid.UUID]*Subscription
	buffer int
	logger zerolog.Logger
}

// New creates an empty broker.
func New(logger zerolog.Logger) *Broker {
	return &Broker{
		topics: make(map[string]map[uuid.UUID]*Subscription),
		buffer: defaultBuffer,
		logger: logger,
	}
}

// Subscribe registers a new receiver on topic.
func (b *Broker) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		ID:    uuid.New(),
		Topic: topic,
		ch:    make(chan interface{}, b.buffer),
	}
	sub.C = sub.ch

	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.topics[topic]
	if !ok {
		set = make(map[uuid.UUID]*Subscription)
		b.topics[topic] = set
	}
	set[sub.ID] = sub

	metrics.BrokerSubscribers.Inc()
	return sub
}

// Unsubscribe removes a receiver and closes its channel. It is a no-op
// for a subscription that has already been removed.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.topics[sub.Topic]
	if !ok {
		return
	}
	if _, ok := set[sub.ID]; !ok {
		return
	}
	delete(set, sub.ID)
	if len(set) == 0 {
		delete(b.topics, sub.Topic)
	}
	close(sub.ch)

	metrics.BrokerSubscribers.Dec()
}

// Publish delivers event to every current subscriber of topic. It
// never blocks and never reports per-subscriber failure; a full
// subscriber queue drops the event for that subscriber only.
func (b *Broker) Publish(topic string, event interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	metrics.EventsPublished.WithLabelValues(kind(topic)).Inc()

	for _, sub := range b.topics[topic] {
		select {
		case sub.ch <- event:
		default:
			metrics.EventsDropped.Inc()
			b.logger.Warn().
				Str("topic", topic).
				Str("subscriber", sub.ID.String()).
				Msg("subscriber queue full, event dropped")
		}
	}
}

// Subscribers returns the number of live subscriptions across all
// topics.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, set := range b.topics {
		n += len(set)
	}
	return n
}

// kind collapses per-lobby topics to a low-cardinality metric label.
func kind(topic string) string {
	if topic == TopicLobbies {
		return "lobbies"
	}
	if i := strings.LastIndexByte(topic, '.'); i >= 0 {
		return topic[i+1:]
	}
	return "other"
}
