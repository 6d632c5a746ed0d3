package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimator_Count_DistinctParticipants(t *testing.T) {
	req := require.New(t)
	est := NewEstimator()

	// Given an empty round
	req.Equal(0, est.Count())

	// When participants vote, one of them twice
	est.AddEstimate("alice", "3")
	est.AddEstimate("bob", "5")
	est.AddEstimate("alice", "8")

	// Then count follows distinct participants, last write wins
	req.Equal(2, est.Count())
	req.Equal(map[string]int{"8": 1, "5": 1}, est.Histogram())
}

func TestEstimator_Histogram_GroupsByValue(t *testing.T) {
	req := require.New(t)
	est := NewEstimator()

	est.AddEstimate("A", "3")
	est.AddEstimate("B", "5")
	est.AddEstimate("C", "3")

	req.Equal(map[string]int{"3": 2, "5": 1}, est.Histogram())
}

func TestEstimator_RemoveEstimate_DeletesKey(t *testing.T) {
	req := require.New(t)
	est := NewEstimator()

	est.AddEstimate("alice", "5")
	est.AddEstimate("bob", "8")

	// When alice's estimate is removed
	est.RemoveEstimate("alice")

	// Then it is really gone, not silently kept
	req.Equal(1, est.Count())
	req.Equal(map[string]int{"8": 1}, est.Histogram())

	// And removing an absent participant is a no-op
	est.RemoveEstimate("carol")
	req.Equal(1, est.Count())
}

func TestEstimator_Clear(t *testing.T) {
	req := require.New(t)
	est := NewEstimator()

	est.AddEstimate("alice", "5")
	est.AddEstimate("bob", "5")
	est.Clear()

	req.Equal(0, est.Count())
	req.Empty(est.Histogram())

	// Cleared estimator accepts a fresh round
	est.AddEstimate("alice", "1")
	req.Equal(1, est.Count())
}
