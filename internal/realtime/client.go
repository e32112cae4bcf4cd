package realtime

import (
	"encoding/json"
	"sync"
)

const sendBuffer = 32

// Client is one socket's outbound queue. topics is guarded by Hub.mu.
type Client struct {
	UserID string

	send   chan []byte
	done   chan struct{}
	once   sync.Once
	topics map[string]struct{}
}

func NewClient(userID string) *Client {
	return &Client{
		UserID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		topics: make(map[string]struct{}),
	}
}

// Messages is the outbound queue, drained by the connection writer.
func (c *Client) Messages() <-chan []byte { return c.send }

// Done is closed once the client has been shut down.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// Send queues msg; false when the client is closed or its buffer is full.
func (c *Client) Send(msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	return c.enqueue(data)
}

func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
