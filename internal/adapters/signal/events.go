package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"planpoker/internal/core"
	"planpoker/internal/domain"
)

func (ctl *Controller) handleJoin(sess *core.Session, conn *wsConn, data []byte) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.reply(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	ctl.Coord.Join(sess, domain.RoomKey(p.Room), conn)
	resp := struct {
		Type string `json:"type"`
		Room string `json:"room"`
		OK   bool   `json:"ok"`
	}{
		Type: "joined",
		Room: p.Room,
		OK:   true,
	}
	ctl.reply(conn, resp)
}

func (ctl *Controller) handleNickname(sess *core.Session, conn *wsConn, data []byte) {
	type nicknamePayload struct {
		Type     string `json:"type"`
		Nickname string `json:"nickname"`
	}
	var p nicknamePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad nickname payload")
		ctl.reply(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	type nicknameAck struct {
		Type     string `json:"type"`
		OK       bool   `json:"ok"`
		Nickname string `json:"nickname"`
	}

	name, err := ctl.Coord.Nickname(sess, p.Nickname)
	if err != nil {
		// Precondition failure: not an error frame, a negative ack.
		// The client may retry after joining a room.
		ctl.reply(conn, nicknameAck{Type: "nickname_ack", OK: false, Nickname: ""})
		return
	}
	ctl.reply(conn, nicknameAck{Type: "nickname_ack", OK: true, Nickname: name})
}

func (ctl *Controller) handleEstimate(sess *core.Session, conn *wsConn, data []byte) {
	type estimatePayload struct {
		Type     string `json:"type"`
		Estimate string `json:"estimate"`
	}
	var p estimatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad estimate payload")
		ctl.reply(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	if !ctl.limiter.Allow(sess.ID()) {
		ctl.reply(conn, map[string]any{
			"type":  "error",
			"error": "rate_limited",
		})
		return
	}

	if err := ctl.Coord.Estimate(sess, p.Estimate); err != nil {
		if errors.Is(err, core.ErrNoNickname) {
			ctl.reply(conn, map[string]any{
				"type":  "error",
				"error": "nickname not set",
			})
			return
		}
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sess.ID())).Msg("estimate")
	}
}

func (ctl *Controller) handleClearEstimator(sess *core.Session, conn *wsConn) {
	if err := ctl.Coord.ClearEstimates(sess); err != nil {
		ctl.reply(conn, map[string]any{
			"type":  "error",
			"error": "room not set",
		})
	}
}
