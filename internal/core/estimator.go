package core

// Estimator holds the open estimation round of one room: at most one
// estimate per nickname, last write wins. It carries no lock of its own;
// the owning RoomState serializes access.
type Estimator struct {
	estimates map[string]string
}

func NewEstimator() *Estimator {
	return &Estimator{estimates: make(map[string]string)}
}

// AddEstimate upserts the participant's estimate for the current round.
func (e *Estimator) AddEstimate(nickname, value string) {
	e.estimates[nickname] = value
}

// RemoveEstimate drops the participant's estimate. No-op when absent.
func (e *Estimator) RemoveEstimate(nickname string) {
	delete(e.estimates, nickname)
}

// Count reports how many distinct participants have estimated so far.
func (e *Estimator) Count() int {
	return len(e.estimates)
}

// Histogram groups current estimates by value: value -> number of
// participants who chose it. Iteration order is unspecified.
func (e *Estimator) Histogram() map[string]int {
	hist := make(map[string]int, len(e.estimates))
	for _, v := range e.estimates {
		hist[v]++
	}
	return hist
}

// Clear ends the round, dropping all estimates.
func (e *Estimator) Clear() {
	e.estimates = make(map[string]string)
}
