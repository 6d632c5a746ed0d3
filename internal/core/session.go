package core

import (
	"github.com/google/uuid"

	"planpoker/internal/domain"
)

// Session is the per-connection state: which room the connection joined
// and the nickname it chose there. The empty string means unset. A Session
// is owned by exactly one connection and mutated only through Coordinator
// dispatch; it is never shared between connections.
type Session struct {
	id       SessionID
	room     domain.RoomKey
	nickname string
	closed   bool
}

func NewSession() *Session {
	return &Session{id: SessionID(uuid.NewString())}
}

func (s *Session) ID() SessionID {
	return s.id
}

func (s *Session) Room() (domain.RoomKey, bool) {
	return s.room, s.room != ""
}

func (s *Session) Nickname() (string, bool) {
	return s.nickname, s.nickname != ""
}
