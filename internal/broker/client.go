package broker

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"
)

const pingInterval = 30 * time.Second

// Client pumps one subscription over a WebSocket connection.
type Client struct {
	broker *Broker
	sub    *Subscription
	conn   *ws.Conn
}

func NewClient(b *Broker, sub *Subscription, conn *ws.Conn) *Client {
	return &Client{broker: b, sub: sub, conn: conn}
}

// Run starts the write pump and runs the read pump. It blocks until the
// connection closes, then deregisters the subscription.
func (c *Client) Run(ctx context.Context) {
	defer c.broker.Unsubscribe(c.sub.HouseholdID, c.sub.ID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump reads and discards all incoming messages. It returns on error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

// writePump drains the subscription and writes events to the WebSocket.
// The periodic ping event doubles as the heartbeat: a failed write is how
// a dead peer is detected when the transport never signals closure.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	ping, _ := json.Marshal(NewPing())

	for {
		select {
		case msg, ok := <-c.sub.C():
			if !ok {
				// broker closed the channel, connection is done
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Write(ctx, ws.MessageText, ping); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
