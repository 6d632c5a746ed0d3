package core

import "planpoker/internal/domain"

type SessionID string

// Event is a transport-agnostic room event. The signal adapter decides how
// it goes on the wire.
type Event struct {
	Type    string
	Payload any
}

const (
	EventAnnouncement      = "announcement"
	EventNicknames         = "nicknames"
	EventEstimateSubmitted = "estimate_submitted"
	EventEstimateToRoom    = "estimate_to_room"
	EventEstimatesCleared  = "estimates_cleared"
)

func Announcement(message string) Event {
	return Event{Type: EventAnnouncement, Payload: message}
}

func NicknamesEvent(roster []string) Event {
	return Event{Type: EventNicknames, Payload: roster}
}

func EstimateSubmitted(nickname string) Event {
	return Event{Type: EventEstimateSubmitted, Payload: nickname}
}

func EstimateToRoom(histogram map[string]int) Event {
	return Event{Type: EventEstimateToRoom, Payload: histogram}
}

func EstimatesCleared(nickname string) Event {
	return Event{Type: EventEstimatesCleared, Payload: nickname}
}

// Sink is one subscriber's outbound queue. TrySend must never block; a
// full queue returns an error and the frame is dropped for that recipient.
type Sink interface {
	TrySend(ev Event) error
}

// Broadcaster fans room events out to every live subscriber of a room.
type Broadcaster interface {
	Subscribe(room domain.RoomKey, sid SessionID, sink Sink)
	Unsubscribe(room domain.RoomKey, sid SessionID)
	BroadcastToRoom(room domain.RoomKey, ev Event)
	EmitToRoom(room domain.RoomKey, ev Event)
}
