package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"planpoker/internal/domain"
)

func TestRegistry_GetOrCreate_Lazy(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	// Given no room has been referenced
	req.Equal(0, reg.Len())

	// When a room key is referenced
	state := reg.GetOrCreate(domain.RoomKey("standup"))

	// Then the state exists, empty
	req.NotNil(state)
	req.Equal(1, reg.Len())
	req.Empty(state.Roster())
	req.Equal(0, state.EstimateCount())
}

func TestRegistry_GetOrCreate_IdentityStable(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	room := domain.RoomKey("standup")

	// Given one session mutates the room state
	first := reg.GetOrCreate(room)
	first.AddNickname("alice")

	// When another session looks the room up
	second := reg.GetOrCreate(room)

	// Then it observes the same underlying state, not a copy
	req.Same(first, second)
	req.Equal([]string{"alice"}, second.Roster())
}

func TestRoomState_DuplicateNicknames(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	state := reg.GetOrCreate(domain.RoomKey("standup"))

	// Given two participants with the same display name
	state.AddNickname("bob")
	roster := state.AddNickname("bob")
	req.Equal([]string{"bob", "bob"}, roster)

	// When one of them leaves
	roster = state.Leave("bob")

	// Then a single instance is removed, not both
	req.Equal([]string{"bob"}, roster)
}

func TestRoomState_Leave_RemovesEstimate(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	state := reg.GetOrCreate(domain.RoomKey("standup"))

	state.AddNickname("alice")
	state.AddNickname("bob")
	_, revealed := state.SubmitEstimate("alice", "5")
	req.False(revealed)
	req.Equal(1, state.EstimateCount())

	// When alice leaves
	roster := state.Leave("alice")

	// Then both her roster entry and her vote are gone
	req.Equal([]string{"bob"}, roster)
	req.Equal(0, state.EstimateCount())
}

func TestRoomState_SubmitEstimate_RevealClearsRound(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	state := reg.GetOrCreate(domain.RoomKey("standup"))
	state.AddNickname("alice")
	state.AddNickname("bob")

	// Given one of two participants voted
	hist, revealed := state.SubmitEstimate("alice", "5")
	req.False(revealed)
	req.Nil(hist)

	// When the last participant votes
	hist, revealed = state.SubmitEstimate("bob", "5")

	// Then the histogram comes back and the estimator is empty
	req.True(revealed)
	req.Equal(map[string]int{"5": 2}, hist)
	req.Equal(0, state.EstimateCount())
}
