// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const MaxRoomNameLen = 50

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
)

// RoomKey is the opaque, stable identifier a live session coordinates
// under. The CRUD layer maps stored rooms to keys via their slug.
type RoomKey string

// Room is a stored room record.
type Room struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Room) Key() RoomKey {
	return RoomKey(r.Slug)
}

// ValidateRoomName rejects names the rooms table cannot hold.
func ValidateRoomName(name string) error {
	if len(name) == 0 {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return ErrRoomNameTooLong
	}
	return nil
}

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	hyphenRuns = regexp.MustCompile(`[-\s]+`)
)

// Slugify turns a display name into a URL slug: strip punctuation,
// lowercase, collapse whitespace and hyphen runs into single hyphens.
func Slugify(name string) string {
	s := nonWord.ReplaceAllString(name, "")
	s = strings.ToLower(strings.TrimSpace(s))
	return hyphenRuns.ReplaceAllString(s, "-")
}
