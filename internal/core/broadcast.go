package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"planpoker/internal/domain"
)

// Router keeps one multicast group per room and fans events out to every
// live subscriber. Delivery is fire-and-forget: a recipient whose queue is
// full misses the frame, the triggering event is never stalled. Per
// recipient, frames arrive in emission order (the sink queue is FIFO).
type Router struct {
	mu    sync.RWMutex
	rooms map[domain.RoomKey]map[SessionID]Sink
}

func NewRouter() *Router {
	return &Router{rooms: make(map[domain.RoomKey]map[SessionID]Sink)}
}

// Subscribe adds the session's sink to the room's multicast group.
func (r *Router) Subscribe(room domain.RoomKey, sid SessionID, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.rooms[room]
	if !ok {
		group = make(map[SessionID]Sink)
		r.rooms[room] = group
	}
	group[sid] = sink
	log.Debug().Str("module", "core.router").Str("room", string(room)).Str("sid", string(sid)).Msg("subscribed")
}

// Unsubscribe removes the session from the room's multicast group.
// No-op when the session was never subscribed.
func (r *Router) Unsubscribe(room domain.RoomKey, sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if group, ok := r.rooms[room]; ok {
		delete(group, sid)
	}
}

// BroadcastToRoom delivers the event to every subscriber of the room,
// the sender included.
func (r *Router) BroadcastToRoom(room domain.RoomKey, ev Event) {
	r.deliver(room, ev)
}

// EmitToRoom delivers a narrower room notice. Same mechanism as
// BroadcastToRoom; the split preserves audience intent at call sites.
func (r *Router) EmitToRoom(room domain.RoomKey, ev Event) {
	r.deliver(room, ev)
}

func (r *Router) deliver(room domain.RoomKey, ev Event) {
	r.mu.RLock()
	sinks := make([]Sink, 0, len(r.rooms[room]))
	for _, sink := range r.rooms[room] {
		sinks = append(sinks, sink)
	}
	r.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.TrySend(ev); err != nil {
			log.Warn().Err(err).Str("module", "core.router").Str("room", string(room)).Str("event", ev.Type).Msg("dropped frame")
		}
	}
}

// Subscribers reports the size of the room's multicast group.
func (r *Router) Subscribers(room domain.RoomKey) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
