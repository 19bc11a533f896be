package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler receives published events
type Handler func(Event)

// Bus is a simple synchronous publish/subscribe event bus.
// Subscribers receive events on a buffered channel; a slow subscriber drops
// events rather than blocking publishers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	handlers    []Handler
	nextID      int
	log         zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[int]chan Event),
		log:         log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a channel subscriber and returns its id for Unsubscribe.
// The returned channel is closed on Unsubscribe.
func (b *Bus) Subscribe() (int, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a channel subscriber
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// OnEvent registers a callback invoked synchronously for every event
func (b *Bus) OnEvent(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish emits a typed event payload to all subscribers
func (b *Bus) Publish(data EventData) {
	evt := Event{
		Type:      data.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			b.log.Warn().Str("type", string(evt.Type)).Msg("Dropping event for slow subscriber")
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}

	b.log.Debug().Str("type", string(evt.Type)).Msg("Event published")
}
