package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"planpoker/internal/core"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		}
	}
}

// readPump drives the session. Leaving the loop for any reason counts as
// the disconnect event; a second exit path cannot run the cleanup twice
// because Disconnect is idempotent.
func (ctl *Controller) readPump(ctx context.Context, sess *core.Session, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sess.ID())).Msg("readPump closing")
		ctl.Coord.Disconnect(sess)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sess.ID())).Msg("readPump read error")
				}
				return
			}
			ctl.handleFrame(sess, c, data)
		}
	}
}

// handleFrame dispatches one inbound frame. A fault while handling an
// event is confined to this connection: it is logged and the connection
// dropped, other sessions and rooms keep running.
func (ctl *Controller) handleFrame(sess *core.Session, c *wsConn, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("module", "signal").Str("sid", string(sess.ID())).Msg("fault while handling frame, dropping connection")
			c.Close()
		}
	}()

	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(sess, c, data)
	case "nickname":
		ctl.handleNickname(sess, c, data)
	case "user_estimate":
		ctl.handleEstimate(sess, c, data)
	case "clear_estimator":
		ctl.handleClearEstimator(sess, c)
	case "disconnect":
		// Explicit goodbye. Closing the conn ends readPump, which runs
		// the same cleanup as a dropped peer.
		c.Close()
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) reply(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("reply marshal")
		return
	}
	_ = c.trySendRaw(b)
}
