// Package core is the room/session coordination engine: connection
// lifecycle, per-room nickname rosters, vote collection with the all-voted
// reveal rule, and room-scoped broadcast.
package core

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"planpoker/internal/domain"
)

var (
	// ErrNoRoom is the precondition failure for events that need a
	// joined room. It is reported to the caller as a negative ack,
	// never propagated further.
	ErrNoRoom = errors.New("room not set")

	// ErrNoNickname guards the estimate path: votes are keyed by
	// nickname, so there is nothing to record without one.
	ErrNoNickname = errors.New("nickname not set")
)

// Coordinator wires session lifecycle events to the registry, the per-room
// estimators, and the broadcast router. It is the only component driven by
// externally triggered transitions.
type Coordinator struct {
	registry *Registry
	router   Broadcaster
}

func NewCoordinator(registry *Registry, router Broadcaster) *Coordinator {
	return &Coordinator{registry: registry, router: router}
}

// Connect marks the start of a session's lifecycle.
func (c *Coordinator) Connect(sess *Session) {
	log.Info().Str("module", "core.coordinator").Str("sid", string(sess.id)).Msg("session started")
}

// Join puts the session into the room and subscribes its sink to the
// room's multicast group. Rejoining another room leaves the old group
// first. Always succeeds.
func (c *Coordinator) Join(sess *Session, room domain.RoomKey, sink Sink) {
	if prev, ok := sess.Room(); ok && prev != room {
		c.router.Unsubscribe(prev, sess.id)
	}
	sess.room = room
	c.registry.GetOrCreate(room)
	c.router.Subscribe(room, sess.id, sink)
	log.Info().Str("module", "core.coordinator").Str("sid", string(sess.id)).Str("room", string(room)).Msg("joined room")
}

// Nickname registers the display name in the session's room. The roster
// keeps duplicates; a second nickname for the same session appends again.
// Without a joined room it returns ErrNoRoom and mutates nothing.
func (c *Coordinator) Nickname(sess *Session, name string) (string, error) {
	room, ok := sess.Room()
	if !ok {
		log.Info().Str("module", "core.coordinator").Str("sid", string(sess.id)).Msg("room not set")
		return "", ErrNoRoom
	}
	state := c.registry.GetOrCreate(room)
	roster := state.AddNickname(name)
	sess.nickname = name
	log.Info().Str("module", "core.coordinator").Str("sid", string(sess.id)).Str("nickname", name).Int("count", len(roster)).Msg("nickname set")

	c.router.EmitToRoom(room, Announcement(fmt.Sprintf("%s has connected", name)))
	c.router.BroadcastToRoom(room, NicknamesEvent(roster))
	return name, nil
}

// Estimate records the session's vote. When estimates from at least as
// many distinct nicknames as roster entries are in, the round is revealed:
// the histogram goes to the whole room and the estimator is cleared.
// Otherwise the room gets a narrower submitted notice.
func (c *Coordinator) Estimate(sess *Session, value string) error {
	nickname, ok := sess.Nickname()
	if !ok {
		return ErrNoNickname
	}
	room, _ := sess.Room()
	state := c.registry.GetOrCreate(room)

	hist, revealed := state.SubmitEstimate(nickname, value)
	log.Info().Str("module", "core.coordinator").Str("nickname", nickname).Str("estimate", value).Bool("revealed", revealed).Msg("estimate recorded")

	if revealed {
		c.router.BroadcastToRoom(room, EstimateToRoom(hist))
		return nil
	}
	c.router.EmitToRoom(room, EstimateSubmitted(nickname))
	return nil
}

// ClearEstimates resets the room's open round and tells the room who
// asked for it.
func (c *Coordinator) ClearEstimates(sess *Session) error {
	room, ok := sess.Room()
	if !ok {
		return ErrNoRoom
	}
	state := c.registry.GetOrCreate(room)
	state.ClearEstimates()
	nickname, _ := sess.Nickname()
	c.router.BroadcastToRoom(room, EstimatesCleared(nickname))
	return nil
}

// Disconnect is the terminal transition, reachable from any state and
// idempotent. It removes one roster instance of the nickname and the
// nickname's estimate, announces the departure, and leaves the multicast
// group. A departed participant leaves no residue that could block a
// later reveal.
func (c *Coordinator) Disconnect(sess *Session) {
	if sess.closed {
		return
	}
	sess.closed = true
	log.Info().Str("module", "core.coordinator").Str("sid", string(sess.id)).Msg("disconnected")

	room, hasRoom := sess.Room()
	if !hasRoom {
		return
	}
	if nickname, ok := sess.Nickname(); ok {
		state := c.registry.GetOrCreate(room)
		roster := state.Leave(nickname)
		c.router.EmitToRoom(room, Announcement(fmt.Sprintf("%s has disconnected", nickname)))
		c.router.BroadcastToRoom(room, NicknamesEvent(roster))
	}
	c.router.Unsubscribe(room, sess.id)
}
