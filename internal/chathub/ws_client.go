package chathub

import (
	"context"
	"sync"
	"teamchat/backend/internal/apperr"
	"teamchat/backend/internal/auth"
	"teamchat/backend/internal/models"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Значення за замовчуванням для WebSocket-з'єднання
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 64
)

// PumpOptions tunes a WebSocketClient. Zero values fall back to defaults.
type PumpOptions struct {
	SendBuffer     int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

func (o PumpOptions) withDefaults() PumpOptions {
	if o.SendBuffer <= 0 {
		o.SendBuffer = sendBufferSize
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = maxMessageSize
	}
	if o.WriteWait <= 0 {
		o.WriteWait = writeWait
	}
	if o.PongWait <= 0 {
		o.PongWait = pongWait
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = (o.PongWait * 9) / 10
	}
	return o
}

// WebSocketClient реалізує інтерфейс chathub.Conn поверх gorilla/websocket.
type WebSocketClient struct {
	handle ConnectionHandle
	userID string
	conn   *websocket.Conn
	hub    *ManagerService
	opts   PumpOptions

	send      chan models.Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, userID string, opts PumpOptions) *WebSocketClient {
	opts = opts.withDefaults()
	return &WebSocketClient{
		handle: NewConnectionHandle(),
		userID: userID,
		conn:   conn,
		hub:    hub,
		opts:   opts,
		send:   make(chan models.Event, opts.SendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *WebSocketClient) Handle() ConnectionHandle { return c.handle }
func (c *WebSocketClient) UserID() string           { return c.userID }

// Push кладе подію в буфер відправки. writePump запише її у WebSocket.
func (c *WebSocketClient) Push(ctx context.Context, ev models.Event) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- ev:
		return nil
	case <-c.done:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close зупиняє writePump, який надішле close-фрейм і закриє з'єднання.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Serve attaches the client to the hub as id and runs its pumps until the
// connection ends. The session is always detached before Serve returns.
func (c *WebSocketClient) Serve(ctx context.Context, id auth.Identity) error {
	sess := NewSession(c)
	if err := c.hub.Attach(ctx, sess, id); err != nil {
		_, title := apperr.StatusCode(err)
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, title)
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteWait))
		c.conn.Close()
		return err
	}
	defer c.hub.Detach(sess)

	go c.writePump()
	c.readPump(sess)
	return nil
}

func (c *WebSocketClient) logger() *logrus.Entry {
	return c.hub.log.WithFields(logrus.Fields{"user_id": c.userID, "conn_id": c.handle})
}

// readPump читає фрейми з WebSocket і по черзі передає їх у хаб.
func (c *WebSocketClient) readPump(sess *Session) {
	defer c.Close()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger().WithError(err).Warn("Error reading message")
			}
			return
		}

		// Фрейми одного з'єднання обробляються строго послідовно.
		c.hub.Invoke(sess, message)
	}
}

// writePump читає події з каналу send і записує їх у WebSocket.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger().WithError(err).Debug("Error writing event")
				c.Close()
				return
			}

		case <-ticker.C:
			// Надсилаємо Ping для підтримки з'єднання активним
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
