package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// TopicService carries service-wide alerts to every subscriber
const TopicService = "service"

const (
	EventAlert     = "alert"
	EventSearch    = "search"
	EventSelection = "selection"
)

// Event is the envelope pushed to WebSocket clients
type Event struct {
	Type    string    `json:"type"`
	Topic   string    `json:"topic"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

type Client struct {
	ID     string
	Send   chan []byte
	topics map[string]struct{}
	mu     sync.RWMutex

	sendMu sync.Mutex
	closed bool
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:     id,
		Send:   make(chan []byte, bufferSize),
		topics: make(map[string]struct{}),
	}
}

// Enqueue queues data without blocking. It reports false when the buffer is
// full or the client has been closed.
func (c *Client) Enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// close closes Send once; later Enqueue calls are no-ops
func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) isClosed() bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.closed
}

func (c *Client) HasTopic(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.topics[topic]
	return ok
}

func (c *Client) addTopics(topics []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		c.topics[t] = struct{}{}
	}
}

func (c *Client) removeTopics(topics []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.topics, t)
	}
}

func (c *Client) Topics() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	topics := make([]string, 0, len(c.topics))
	for t := range c.topics {
		topics = append(topics, t)
	}
	return topics
}

// Hub fans events out to the clients subscribed to their topic. A session
// ID is a topic, as is TopicService.
type Hub struct {
	mu           sync.RWMutex
	clients      map[*Client]struct{}
	topicClients map[string]map[*Client]struct{}
	stopped      bool

	publish chan Event

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:      make(map[*Client]struct{}),
		topicClients: make(map[string]map[*Client]struct{}),
		publish:      make(chan Event, 256),
		logger:       logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case ev := <-h.publish:
			h.fanout(ev)
		}
	}
}

// Subscribe adds topics for a registered client. Unknown clients are ignored.
func (h *Hub) Subscribe(client *Client, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	client.addTopics(topics)

	for _, t := range topics {
		if h.topicClients[t] == nil {
			h.topicClients[t] = make(map[*Client]struct{})
		}
		h.topicClients[t][client] = struct{}{}
	}
}

func (h *Hub) Unsubscribe(client *Client, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.removeTopics(topics)
	h.dropFromTopics(client, topics)
}

// Publish queues an event for topic. It never blocks; when the queue is
// full the event is dropped.
func (h *Hub) Publish(topic, eventType string, payload any) {
	ev := Event{Type: eventType, Topic: topic, Payload: payload, SentAt: time.Now()}
	select {
	case h.publish <- ev:
	default:
		h.logger.Warn("publish channel full, dropping event", "topic", topic, "type", eventType)
	}
}

// Register adds the client. A client that was already unregistered stays
// out, and once the hub has stopped new clients are closed right away.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		client.close()
		return
	}
	if client.isClosed() {
		h.mu.Unlock()
		return
	}
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client registered", "client_id", client.ID, "total", total)
}

// Unregister removes the client and closes its Send channel
func (h *Hub) Unregister(client *Client) {
	h.removeClient(client)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanout(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.topicClients[ev.Topic]
	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to encode event", "type", ev.Type, "error", err)
		return
	}

	for client := range clients {
		if !client.Enqueue(data) {
			h.logger.Debug("client send buffer full", "client_id", client.ID)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.close()
	if _, ok := h.clients[client]; !ok {
		return
	}

	h.dropFromTopics(client, client.Topics())

	delete(h.clients, client)
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) dropFromTopics(client *Client, topics []string) {
	for _, t := range topics {
		if h.topicClients[t] != nil {
			delete(h.topicClients[t], client)
			if len(h.topicClients[t]) == 0 {
				delete(h.topicClients, t)
			}
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.close()
	}
	h.clients = make(map[*Client]struct{})
	h.topicClients = make(map[string]map[*Client]struct{})
	h.stopped = true
}
