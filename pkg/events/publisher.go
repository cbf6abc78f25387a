package events

import "sync"

// EventType represents the type of event
type EventType string

// Define event types
const (
	EventGameCreated      EventType = "GAME_CREATED"
	EventMoveProcessed    EventType = "MOVE_PROCESSED"
	EventDrawOffered      EventType = "DRAW_OFFERED"
	EventGameOver         EventType = "GAME_OVER"
	EventGameTerminated   EventType = "GAME_TERMINATED"
	EventConnectionClosed EventType = "CONNECTION_CLOSED"

	allEvents EventType = "*"
)

// Event represents an event in the system
type Event struct {
	Type         EventType
	GameID       string // Optional, can be empty for non-game events
	ConnectionID string // Connection that owns the game, if any
	Payload      interface{}
}

// Handler is a function that processes events
type Handler func(event Event)

// Publisher is the central event publisher
type Publisher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
}

// NewPublisher creates a new event publisher
func NewPublisher() *Publisher {
	return &Publisher{
		subscribers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for a specific event type
func (p *Publisher) Subscribe(eventType EventType, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subscribers[eventType] = append(p.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for all event types
func (p *Publisher) SubscribeAll(handler Handler) {
	p.Subscribe(allEvents, handler)
}

// Publish broadcasts an event to its subscribers and to the "all events"
// handlers. Handlers run concurrently and must not assume any ordering.
func (p *Publisher) Publish(event Event) {
	p.mu.RLock()
	handlers := p.subscribers[event.Type]
	allHandlers := p.subscribers[allEvents]
	p.mu.RUnlock()

	for _, handler := range handlers {
		go handler(event)
	}

	for _, handler := range allHandlers {
		go handler(event)
	}
}
