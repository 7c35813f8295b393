package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"diagramador-collab-server/domain"
)

const (
	writeWait = 10 * time.Second

	DefaultPongWait       = 60 * time.Second
	DefaultSendBufferSize = 256
	DefaultMaxMessageSize = 1 << 20
)

type Options struct {
	SendBufferSize int
	MaxMessageSize int64
	PongWait       time.Duration
	PingPeriod     time.Duration
}

// NewUpgrader accepts the listed origins, or any origin when the list is empty.
func NewUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			return slices.Contains(origins, r.Header.Get("Origin"))
		},
	}
}

type Conn struct {
	id         string
	room       string
	ws         *websocket.Conn
	send       chan []byte
	done       chan struct{}
	once       sync.Once
	session    domain.Session
	maxSize    int64
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewConn(id, room string, ws *websocket.Conn, s domain.Session, opts Options) *Conn {
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = DefaultSendBufferSize
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}
	if opts.PongWait <= 0 {
		opts.PongWait = DefaultPongWait
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = (opts.PongWait * 9) / 10
	}
	return &Conn{
		id:         id,
		room:       room,
		ws:         ws,
		send:       make(chan []byte, opts.SendBufferSize),
		done:       make(chan struct{}),
		session:    s,
		maxSize:    opts.MaxMessageSize,
		pongWait:   opts.PongWait,
		pingPeriod: opts.PingPeriod,
	}
}

func (c *Conn) ID() string   { return c.id }
func (c *Conn) Room() string { return c.room }

func (c *Conn) Send(data []byte) error {
	select {
	case <-c.done:
		return domain.ErrConnectionClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return domain.ErrSendBufferFull
	}
}

// Close stops accepting messages. The write pump flushes what is already
// queued and then closes the socket, which ends the read pump.
func (c *Conn) Close() error {
	c.once.Do(func() {
		close(c.done)
	})
	return nil
}

func (c *Conn) Start(ctx context.Context) {
	c.session.Open(c)
	go c.writePump()
	go c.readPump(ctx)
}

func (c *Conn) readPump(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		c.session.Close(c)
		c.Close()
	}()

	c.ws.SetReadLimit(c.maxSize)
	c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				slog.Error("read error", "clientId", c.id, "error", err)
			}
			return
		}

		c.session.Handle(ctx, c, data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.flush()
			return
		}
	}
}

func (c *Conn) flush() {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	for {
		select {
		case message := <-c.send:
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
