package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"planpoker/internal/domain"
)

type fixture struct {
	registry *Registry
	router   *Router
	coord    *Coordinator
}

func newFixture() *fixture {
	registry := NewRegistry()
	router := NewRouter()
	return &fixture{
		registry: registry,
		router:   router,
		coord:    NewCoordinator(registry, router),
	}
}

// join connects a fresh session into the room with its own recording sink.
func (f *fixture) join(room string) (*Session, *fakeSink) {
	sess := NewSession()
	sink := &fakeSink{}
	f.coord.Connect(sess)
	f.coord.Join(sess, domain.RoomKey(room), sink)
	return sess, sink
}

func lastEvent(t *testing.T, sink *fakeSink, eventType string) Event {
	t.Helper()
	events := sink.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == eventType {
			return events[i]
		}
	}
	t.Fatalf("no %q event delivered", eventType)
	return Event{}
}

func TestNickname_AppendsAndBroadcasts(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	// Given two sessions in the same room
	alice, aliceSink := f.join("standup")
	_, bobSink := f.join("standup")

	// When alice picks a nickname
	name, err := f.coord.Nickname(alice, "alice")
	req.NoError(err)
	req.Equal("alice", name)

	// Then both sessions get the announcement and the roster
	for _, sink := range []*fakeSink{aliceSink, bobSink} {
		req.Equal([]string{EventAnnouncement, EventNicknames}, sink.Types())
		req.Equal("alice has connected", sink.Events()[0].Payload)
		req.Equal([]string{"alice"}, sink.Events()[1].Payload)
	}
}

func TestNickname_WithoutJoin_NegativeAck(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	sess := NewSession()
	f.coord.Connect(sess)

	// When a nickname arrives before any join
	name, err := f.coord.Nickname(sess, "alice")

	// Then the caller gets a falsy ack with an empty name
	req.ErrorIs(err, ErrNoRoom)
	req.Empty(name)

	// And no roster anywhere was mutated
	req.Equal(0, f.registry.Len())
	_, ok := sess.Nickname()
	req.False(ok)
}

func TestEstimate_WithoutNickname(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	sess, _ := f.join("standup")

	err := f.coord.Estimate(sess, "5")

	req.ErrorIs(err, ErrNoNickname)
	req.Equal(0, f.registry.GetOrCreate(domain.RoomKey("standup")).EstimateCount())
}

func TestEstimate_PartialRound_SubmittedNotice(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	// Given a roster of three, two of them voted
	alice, aliceSink := f.join("standup")
	bob, _ := f.join("standup")
	carol, _ := f.join("standup")
	for sess, name := range map[*Session]string{alice: "alice", bob: "bob", carol: "carol"} {
		_, err := f.coord.Nickname(sess, name)
		req.NoError(err)
	}

	req.NoError(f.coord.Estimate(alice, "5"))
	req.NoError(f.coord.Estimate(bob, "3"))

	// Then no histogram fires, only submitted notices
	req.NotContains(aliceSink.Types(), EventEstimateToRoom)
	req.Equal("alice", lastEvent(t, aliceSink, EventEstimateSubmitted).Payload)

	// And the round stays open
	req.Equal(2, f.registry.GetOrCreate(domain.RoomKey("standup")).EstimateCount())
}

func TestEstimate_FullRound_RevealsAndClears(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	// Given room "standup" with roster ["alice", "bob"]
	alice, aliceSink := f.join("standup")
	bob, bobSink := f.join("standup")
	_, err := f.coord.Nickname(alice, "alice")
	req.NoError(err)
	_, err = f.coord.Nickname(bob, "bob")
	req.NoError(err)

	// When alice votes, the room hears "alice voted"
	req.NoError(f.coord.Estimate(alice, "5"))
	req.Equal("alice", lastEvent(t, bobSink, EventEstimateSubmitted).Payload)

	// When bob completes the round, everyone gets the histogram
	req.NoError(f.coord.Estimate(bob, "5"))
	for _, sink := range []*fakeSink{aliceSink, bobSink} {
		req.Equal(map[string]int{"5": 2}, lastEvent(t, sink, EventEstimateToRoom).Payload)
	}

	// And the estimator is empty immediately after
	req.Equal(0, f.registry.GetOrCreate(domain.RoomKey("standup")).EstimateCount())
}

func TestClearEstimates_BroadcastsRequester(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	alice, _ := f.join("standup")
	bob, bobSink := f.join("standup")
	_, err := f.coord.Nickname(alice, "alice")
	req.NoError(err)
	_, err = f.coord.Nickname(bob, "bob")
	req.NoError(err)
	req.NoError(f.coord.Estimate(alice, "8"))

	// When alice resets the round
	req.NoError(f.coord.ClearEstimates(alice))

	// Then the room learns who cleared and the tally is gone
	req.Equal("alice", lastEvent(t, bobSink, EventEstimatesCleared).Payload)
	req.Equal(0, f.registry.GetOrCreate(domain.RoomKey("standup")).EstimateCount())
}

func TestClearEstimates_WithoutRoom(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	sess := NewSession()

	req.ErrorIs(f.coord.ClearEstimates(sess), ErrNoRoom)
}

func TestDisconnect_CleansUpAndAnnounces(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	alice, _ := f.join("room1")
	bob, bobSink := f.join("room1")
	_, err := f.coord.Nickname(alice, "alice")
	req.NoError(err)
	_, err = f.coord.Nickname(bob, "bob")
	req.NoError(err)
	req.NoError(f.coord.Estimate(alice, "5"))

	// When alice disconnects
	f.coord.Disconnect(alice)

	// Then her roster entry and estimate are gone
	state := f.registry.GetOrCreate(domain.RoomKey("room1"))
	req.Equal([]string{"bob"}, state.Roster())
	req.Equal(0, state.EstimateCount())

	// And the room was told, roster last
	req.Equal("alice has disconnected", lastEvent(t, bobSink, EventAnnouncement).Payload)
	req.Equal([]string{"bob"}, lastEvent(t, bobSink, EventNicknames).Payload)

	// And she no longer receives room traffic
	req.Equal(1, f.router.Subscribers(domain.RoomKey("room1")))
}

func TestDisconnect_Idempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	alice, _ := f.join("room1")
	bob, bobSink := f.join("room1")
	_, err := f.coord.Nickname(alice, "alice")
	req.NoError(err)
	_, err = f.coord.Nickname(bob, "bob")
	req.NoError(err)

	f.coord.Disconnect(alice)
	seen := len(bobSink.Events())

	// A repeated disconnect signal is ignored
	f.coord.Disconnect(alice)
	req.Len(bobSink.Events(), seen)
	req.Equal([]string{"bob"}, f.registry.GetOrCreate(domain.RoomKey("room1")).Roster())
}

func TestDisconnect_StaleEstimateCannotSkewReveal(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	// Given three participants, one votes and then leaves
	alice, _ := f.join("standup")
	bob, bobSink := f.join("standup")
	carol, _ := f.join("standup")
	for sess, name := range map[*Session]string{alice: "alice", bob: "bob", carol: "carol"} {
		_, err := f.coord.Nickname(sess, name)
		req.NoError(err)
	}
	req.NoError(f.coord.Estimate(alice, "13"))
	f.coord.Disconnect(alice)

	// When the remaining two complete the round
	req.NoError(f.coord.Estimate(bob, "5"))
	req.NoError(f.coord.Estimate(carol, "8"))

	// Then the reveal fires and the departed vote is not in it
	hist := lastEvent(t, bobSink, EventEstimateToRoom).Payload
	req.Equal(map[string]int{"5": 1, "8": 1}, hist)
}

func TestRoomIsolation_AcrossCoordinator(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	// Given two sessions in "standup" and one in "retro"
	_, sink1 := f.join("standup")
	_, sink2 := f.join("standup")
	_, elsewhere := f.join("retro")

	// When a third standup session sets a nickname
	third, _ := f.join("standup")
	_, err := f.coord.Nickname(third, "carol")
	req.NoError(err)

	// Then both standup sessions saw every broadcast, the retro one none
	req.Contains(sink1.Types(), EventNicknames)
	req.Contains(sink2.Types(), EventNicknames)
	req.Empty(elsewhere.Events())
}

func TestJoin_SwitchingRoomsLeavesOldGroup(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	sess, sink := f.join("standup")

	// When the session rejoins into another room
	f.coord.Join(sess, domain.RoomKey("retro"), sink)

	// Then it no longer receives the old room's traffic
	req.Equal(0, f.router.Subscribers(domain.RoomKey("standup")))
	req.Equal(1, f.router.Subscribers(domain.RoomKey("retro")))

	room, ok := sess.Room()
	req.True(ok)
	req.Equal(domain.RoomKey("retro"), room)
}
