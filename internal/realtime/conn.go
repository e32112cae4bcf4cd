package realtime

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Loader returns the current snapshot of topic as seen by userID, or an
// error when userID may not read it.
type Loader func(userID, topic string) (any, error)

// Serve runs the socket until either side goes away; all of the client's
// subscriptions are removed when it returns.
func (h *Hub) Serve(conn *websocket.Conn, c *Client, load Loader) {
	go c.writePump(conn)
	h.readPump(conn, c, load)
}

func (h *Hub) readPump(conn *websocket.Conn, c *Client, load Loader) {
	defer func() {
		h.Remove(c)
		c.Close()
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "user_id", c.UserID, "error", err)
			}
			return
		}

		switch req.Action {
		case "subscribe":
			err := h.SubscribeSnapshot(c, req.Topic, func() (any, error) {
				return load(c.UserID, req.Topic)
			})
			if err != nil {
				c.Send(Message{Type: "error", Topic: req.Topic, Error: err.Error()})
			}
		case "unsubscribe":
			h.Unsubscribe(c, req.Topic)
			c.Send(Message{Type: "unsubscribed", Topic: req.Topic})
		default:
			c.Send(Message{Type: "error", Topic: req.Topic, Error: "unknown action " + req.Action})
		}
	}
}

func (c *Client) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
