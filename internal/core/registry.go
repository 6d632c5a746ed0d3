package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"planpoker/internal/domain"
)

// RoomState is the shared mutable state of one room: the insertion-ordered
// nickname roster (duplicates allowed) and the open estimation round.
// Every read-modify-write runs under the room's own mutex, so concurrent
// sessions in the same room never interleave; rooms stay independent.
type RoomState struct {
	mu        sync.Mutex
	roster    []string
	estimator *Estimator
}

// AddNickname appends the name to the roster, duplicates included, and
// returns a snapshot of the updated roster for broadcasting.
func (s *RoomState) AddNickname(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = append(s.roster, name)
	return s.rosterSnapshot()
}

// Leave removes a single roster instance of the nickname (not all
// duplicates) and deletes its estimate, returning the updated roster.
func (s *RoomState) Leave(nickname string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.roster {
		if n == nickname {
			s.roster = append(s.roster[:i], s.roster[i+1:]...)
			break
		}
	}
	s.estimator.RemoveEstimate(nickname)
	return s.rosterSnapshot()
}

// SubmitEstimate upserts the vote and applies the reveal rule atomically:
// once every roster entry is matched by a distinct estimate, the round
// closes — the histogram is returned and the estimator cleared.
func (s *RoomState) SubmitEstimate(nickname, value string) (hist map[string]int, revealed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimator.AddEstimate(nickname, value)
	if s.estimator.Count() >= len(s.roster) {
		hist = s.estimator.Histogram()
		s.estimator.Clear()
		return hist, true
	}
	return nil, false
}

// ClearEstimates resets the open round.
func (s *RoomState) ClearEstimates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimator.Clear()
}

// Roster returns a snapshot of the current roster.
func (s *RoomState) Roster() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterSnapshot()
}

// EstimateCount reports how many distinct nicknames have voted.
func (s *RoomState) EstimateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimator.Count()
}

func (s *RoomState) rosterSnapshot() []string {
	out := make([]string, len(s.roster))
	copy(out, s.roster)
	return out
}

// Registry is the process-wide room key -> RoomState map. States are
// created lazily on first reference and live for the process lifetime.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomKey]*RoomState
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomKey]*RoomState)}
}

// GetOrCreate returns the RoomState for the key, creating it if absent.
// Repeated calls with the same key return the same instance, never a
// copy — sessions must observe each other's mutations.
func (r *Registry) GetOrCreate(room domain.RoomKey) *RoomState {
	r.mu.RLock()
	state, ok := r.rooms[room]
	r.mu.RUnlock()
	if ok {
		return state
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok = r.rooms[room]; ok {
		return state
	}
	state = &RoomState{estimator: NewEstimator()}
	r.rooms[room] = state
	log.Debug().Str("module", "core.registry").Str("room", string(room)).Msg("created room state")
	return state
}

// Len reports how many rooms have been referenced since process start.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
