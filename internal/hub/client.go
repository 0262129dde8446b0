package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// FrameHandler receives inbound frames and the close notification of a
// Client. HandleFrame runs on the client's read goroutine.
type FrameHandler interface {
	HandleFrame(c *Client, message []byte)
	HandleClose(c *Client)
}

// Client is one websocket connection registered with the Hub.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	roomCode string
	clientID string
	handler  FrameHandler

	send      chan []byte
	done      chan struct{}
	closed    *atomic.Bool
	closeOnce sync.Once
}

var _ Session = (*Client)(nil)

// NewClient creates a Client. Call Run to register it and start the pumps.
func NewClient(hub *Hub, conn *websocket.Conn, roomCode, clientID string, handler FrameHandler) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		roomCode: roomCode,
		clientID: clientID,
		handler:  handler,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		closed:   atomic.NewBool(false),
	}
}

// Run registers the client with the hub and starts its read and write
// goroutines.
func (c *Client) Run() {
	c.hub.Register(c, c.roomCode, c.clientID)
	go c.WritePump()
	go c.ReadPump()
}

func (c *Client) RoomCode() string { return c.roomCode }
func (c *Client) ClientID() string { return c.clientID }

// Send implements Session.
func (c *Client) Send(message []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case <-c.done:
		return false
	case c.send <- message:
		return true
	default:
		return false
	}
}

// Closed implements Session.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Close deregisters the client and closes the connection. The handler's
// HandleClose runs exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		c.hub.Remove(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		if c.handler != nil {
			c.handler.HandleClose(c)
		}
	})
}

func (c *Client) logCtx() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"room_code": c.roomCode, "client_id": c.clientID})
}

// ReadPump reads frames from the connection and hands text frames to the
// handler. It runs in its own goroutine and closes the client on exit.
func (c *Client) ReadPump() {
	defer func() {
		c.Close()
		c.logCtx().Info("readPump exited, client closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logCtx().WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				c.logCtx().Debug("WebSocket connection closed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.logCtx().Debugf("Ignoring non-text message type %d", messageType)
			continue
		}
		if c.handler != nil {
			c.handler.HandleFrame(c, message)
		}
	}
}

// WritePump writes queued messages and periodic pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		c.logCtx().Debug("writePump exited")
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logCtx().WithError(err).Warn("Failed to write message to websocket")
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logCtx().WithError(err).Warn("Failed to send ping message")
				c.Close()
				return
			}
		}
	}
}
