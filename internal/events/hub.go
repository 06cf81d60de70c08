package events

import (
	"encoding/json"
	"sync"
)

// Event names published by the registry.
const (
	EventAdded        = "added"
	EventUpdated      = "updated"
	EventStatsUpdated = "stats_updated"
)

// Topics lists every event the hub carries, in publish order.
var Topics = []string{EventAdded, EventUpdated, EventStatsUpdated}

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Envelope is the wire form of a published event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Marshal encodes an event envelope for broadcast.
func Marshal(event string, data any) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Hub fans events out to subscribers by event name. Publishers do not block
// on slow consumers; a failed send drops the subscriber.
type Hub struct {
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
}

type message struct {
	event   string
	payload []byte
}

type subscription struct {
	event  string
	client Subscriber
}

// NewHub creates an initialized Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			if _, ok := h.clients[sub.event]; !ok {
				h.clients[sub.event] = make(map[Subscriber]struct{})
			}
			h.clients[sub.event][sub.client] = struct{}{}
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.event]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.event)
				}
			}
		case msg := <-h.broadcast:
			if clients, ok := h.clients[msg.event]; ok {
				for c := range clients {
					if err := c.Send(msg.payload); err != nil {
						c.Close()
						delete(clients, c)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.event)
				}
			}
		}
	}
}

// Register subscribes a client to one event name.
func (h *Hub) Register(event string, client Subscriber) {
	h.register <- subscription{event: event, client: client}
}

// RegisterAll subscribes a client to every registry event.
func (h *Hub) RegisterAll(client Subscriber) {
	for _, event := range Topics {
		h.Register(event, client)
	}
}

// Unregister removes a client from one event name.
func (h *Hub) Unregister(event string, client Subscriber) {
	h.unreg <- subscription{event: event, client: client}
}

// UnregisterAll removes a client from every registry event.
func (h *Hub) UnregisterAll(client Subscriber) {
	for _, event := range Topics {
		h.Unregister(event, client)
	}
}

// Broadcast sends payload to all subscribers of the event.
func (h *Hub) Broadcast(event string, payload []byte) {
	h.broadcast <- message{event: event, payload: payload}
}

// ChanSubscriber delivers payloads on a buffered channel. It exists for
// in-process consumers and tests.
type ChanSubscriber struct {
	C      chan []byte
	once   sync.Once
	closed chan struct{}
}

// NewChanSubscriber returns a subscriber buffering up to size payloads.
func NewChanSubscriber(size int) *ChanSubscriber {
	return &ChanSubscriber{C: make(chan []byte, size), closed: make(chan struct{})}
}

// Send queues the payload, dropping it when the buffer is full.
func (c *ChanSubscriber) Send(payload []byte) error {
	select {
	case <-c.closed:
		return errClosed
	case c.C <- payload:
		return nil
	default:
		return nil
	}
}

// Close marks the subscriber closed.
func (c *ChanSubscriber) Close() {
	c.once.Do(func() { close(c.closed) })
}
