package realtime

import (
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"sync"
)

const topicStripes = 64

// Message is what the server writes to a socket.
type Message struct {
	Type  string `json:"type"` // snapshot, error, unsubscribed
	Topic string `json:"topic,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Request is what a client sends to manage its subscriptions.
type Request struct {
	Action string `json:"action"` // subscribe, unsubscribe
	Topic  string `json:"topic"`
}

// Hub fans topic snapshots out to subscribed clients.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}

	// 同一 topic 的发布与订阅快照串行
	stripes [topicStripes]sync.Mutex
}

func (h *Hub) topicLock(topic string) *sync.Mutex {
	f := fnv.New32a()
	f.Write([]byte(topic))
	return &h.stripes[f.Sum32()%topicStripes]
}

// SubscribeSnapshot registers c on topic and queues the snapshot returned by
// load. Publishes to topic wait until the snapshot is queued, so no older
// state can reach c after a newer one.
func (h *Hub) SubscribeSnapshot(c *Client, topic string, load func() (any, error)) error {
	l := h.topicLock(topic)
	l.Lock()
	defer l.Unlock()

	data, err := load()
	if err != nil {
		return err
	}
	h.Subscribe(c, topic)
	c.Send(Message{Type: "snapshot", Topic: topic, Data: data})
	return nil
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Subscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Client]struct{})
		h.topics[topic] = subs
	}
	subs[c] = struct{}{}
	c.topics[topic] = struct{}{}
}

func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(c, topic)
}

func (h *Hub) unsubscribeLocked(c *Client, topic string) {
	delete(c.topics, topic)
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Remove drops every subscription held by c.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic := range c.topics {
		h.unsubscribeLocked(c, topic)
	}
}

// Subscribers reports how many clients listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish sends payload as a snapshot of topic. A client whose buffer is
// full is disconnected instead of blocking the publisher.
func (h *Hub) Publish(topic string, payload any) {
	data, err := json.Marshal(Message{Type: "snapshot", Topic: topic, Data: payload})
	if err != nil {
		slog.Error("failed to encode snapshot", "topic", topic, "error", err)
		return
	}

	var slow []*Client
	l := h.topicLock(topic)
	l.Lock()
	h.mu.RLock()
	for c := range h.topics[topic] {
		if !c.enqueue(data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	l.Unlock()

	for _, c := range slow {
		slog.Warn("dropping slow subscriber", "user_id", c.UserID, "topic", topic)
		c.Close()
		h.Remove(c)
	}
}
