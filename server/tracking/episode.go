package tracking

import "fmt"

// Condition is a security condition that is reported once per episode
type Condition int

const (
	ConditionZone Condition = iota
	ConditionNightActivity
	ConditionStationary
	numConditions
)

func (c Condition) String() string {
	switch c {
	case ConditionZone:
		return "zone"
	case ConditionNightActivity:
		return "nightActivity"
	case ConditionStationary:
		return "stationary"
	}
	return "unknown"
}

// EpisodeState is the lifecycle of a single condition on a single track
type EpisodeState int

const (
	EpisodeQuiescent        EpisodeState = iota // Condition does not hold, and has not been reported
	EpisodeActiveUnreported                     // Condition holds, but no event has been emitted yet
	EpisodeActiveReported                       // An event has been emitted for this episode
)

func (s EpisodeState) String() string {
	switch s {
	case EpisodeQuiescent:
		return "quiescent"
	case EpisodeActiveUnreported:
		return "active-unreported"
	case EpisodeActiveReported:
		return "active-reported"
	}
	return "unknown"
}

func (s EpisodeState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *EpisodeState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "quiescent":
		*s = EpisodeQuiescent
	case "active-unreported":
		*s = EpisodeActiveUnreported
	case "active-reported":
		*s = EpisodeActiveReported
	default:
		return fmt.Errorf("Unknown episode state '%v'", string(b))
	}
	return nil
}

// EpisodeTable holds the state of every condition for one track
type EpisodeTable [numConditions]EpisodeState

// Observe records whether the condition holds in this frame, and returns true
// if an event must be emitted. The reported state is sticky: once an episode
// has been reported, only End() returns it to quiescent.
func (e *EpisodeTable) Observe(c Condition, holds bool) bool {
	switch {
	case e[c] == EpisodeActiveReported:
		return false
	case holds:
		e[c] = EpisodeActiveUnreported
		return true
	default:
		e[c] = EpisodeQuiescent
		return false
	}
}

// MarkReported is called once the event for the current episode has been emitted
func (e *EpisodeTable) MarkReported(c Condition) {
	e[c] = EpisodeActiveReported
}

// End closes the current episode of c, so that the next occurrence is reported again
func (e *EpisodeTable) End(c Condition) {
	e[c] = EpisodeQuiescent
}

func (e *EpisodeTable) Reported(c Condition) bool {
	return e[c] == EpisodeActiveReported
}
