package signal

import (
	"context"
	"sync"
	"time"

	"interviewsignal/internal/core/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// client is one WebSocket connection. The read pump runs in the HTTP handler
// goroutine and the write pump in its own goroutine; only the write pump
// writes to the socket.
type client struct {
	conn    *websocket.Conn
	session *domain.Connection
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter // nil when message rate limiting is off

	// guarded by Hub.mu
	rooms map[domain.RoomID]struct{}

	closeOnce   sync.Once
	closeCode   int
	closeReason string

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration

	logger *zap.SugaredLogger
}

func newClient(conn *websocket.Conn, session *domain.Connection, cfg ServerConfig, logger *zap.SugaredLogger) *client {
	c := &client{
		conn:         conn,
		session:      session,
		send:         make(chan []byte, cfg.SendBufferSize),
		done:         make(chan struct{}),
		rooms:        make(map[domain.RoomID]struct{}),
		pingInterval: cfg.PingInterval,
		pongTimeout:  cfg.PongTimeout,
		writeTimeout: cfg.WriteTimeout,
		logger:       logger,
	}
	if cfg.MessagesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), cfg.MessageBurst)
	}
	return c
}

// enqueue never blocks. A client that cannot keep up is dropped rather than
// stalling the sender.
func (c *client) enqueue(msg []byte) error {
	select {
	case <-c.done:
		return domain.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warnw("send buffer full, dropping client",
			"connection_id", c.session.ID,
			"user_id", c.session.UserID(),
		)
		c.shutdown(websocket.CloseTryAgainLater, "send buffer full")
		return domain.ErrSendBufferFull
	}
}

// shutdown marks the session closed and asks the write pump to flush and
// close the socket. Safe to call more than once.
func (c *client) shutdown(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		c.session.MarkClosed()
		close(c.done)
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.shutdown(websocket.CloseAbnormalClosure, "write failed")
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.shutdown(websocket.CloseAbnormalClosure, "ping failed")
				return
			}

		case <-c.done:
			c.flush()
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeReason))
			return
		}
	}
}

// flush writes frames queued before shutdown, such as session:replaced.
func (c *client) flush() {
	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// readPump reads frames until the socket fails and hands each to handle.
func (c *client) readPump(ctx context.Context, maxMessageSize int64, onPong func(), handle func([]byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
		onPong()
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Infow("unexpected websocket close",
					"connection_id", c.session.ID,
					"user_id", c.session.UserID(),
					"error", err,
				)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))

		if ctx.Err() != nil {
			return
		}
		handle(data)
	}
}
