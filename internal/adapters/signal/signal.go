// Package signal is the websocket transport for estimation sessions. It
// upgrades connections, pumps frames, and translates the wire protocol
// into coordinator events.
package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"planpoker/internal/config"
	"planpoker/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Coord   *core.Coordinator
	Cfg     *config.Config
	limiter *EventRateLimiter
}

func NewController(coord *core.Coordinator, cfg *config.Config) *Controller {
	return &Controller{
		Coord:   coord,
		Cfg:     cfg,
		limiter: NewEventRateLimiter(cfg.EventLimit, cfg.EventInterval),
	}
}

// wsConn wraps one websocket connection with a buffered outbound queue.
// It implements core.Sink; TrySend never blocks the caller.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

// envelope is the wire shape of a room event.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func (c *wsConn) TrySend(ev core.Event) error {
	b, err := json.Marshal(envelope{Type: ev.Type, Data: ev.Payload})
	if err != nil {
		return err
	}
	return c.trySendRaw(b)
}

func (c *wsConn) trySendRaw(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSession upgrades the request and runs the session until the peer
// goes away. The session key of the cookie middleware ends up only in
// logs; identity inside a room is the chosen nickname.
func (ctl *Controller) HandleSession(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, ctl.Cfg.SendBuffer),
	}

	sess := core.NewSession()
	ctl.Coord.Connect(sess)
	log.Info().Str("module", "signal").Str("sid", string(sess.ID())).Str("client", c.GetString("client_token")).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, sess, conn)
	}()
}
