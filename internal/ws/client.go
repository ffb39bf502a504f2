package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps a websocket connection and serializes writes, since online
// broadcasts and targeted pushes run on different goroutines.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) write(payload []byte) error {
	if c == nil || c.conn == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) close() {
	if c == nil || c.conn == nil {
		return
	}
	c.conn.Close()
}
