// Package lockout implements the progressive account lockout state
// machine. It is pure policy: callers persist the resulting State inside
// the identity document and are responsible for doing so atomically.
package lockout

import "time"

// DefaultThreshold is the number of consecutive failures that trips a lock.
const DefaultThreshold = 5

// DefaultSchedule is the progressive lockout schedule. The first lock
// lasts 15 minutes; each further failure while locked-then-expired moves
// one step down the schedule, capping at 24 hours.
var DefaultSchedule = []time.Duration{
	15 * time.Minute,
	30 * time.Minute,
	60 * time.Minute,
	120 * time.Minute,
	1440 * time.Minute,
}

// State is the per-identity lockout record. The zero value is an open,
// never-failed state.
type State struct {
	FailureCount  int        `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
}

// Policy defines a public type used by homeaze-auth APIs.
//
// Policy instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Policy struct {
	Threshold int
	Schedule  []time.Duration
}

// NewPolicy returns a Policy with the given threshold and schedule,
// substituting defaults for zero values.
func NewPolicy(threshold int, schedule []time.Duration) Policy {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if len(schedule) == 0 {
		schedule = DefaultSchedule
	}
	return Policy{Threshold: threshold, Schedule: schedule}
}

// Locked reports whether the state is inside an active lockout window.
func (p Policy) Locked(s State, now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// Remaining returns the time left in the active lockout window, or zero
// when the state is open.
func (p Policy) Remaining(s State, now time.Time) time.Duration {
	if !p.Locked(s, now) {
		return 0
	}
	return s.LockedUntil.Sub(now)
}

// RemainingAttempts returns how many further failures the state can
// absorb before the next failure trips a lock. Zero means the very next
// failure locks.
func (p Policy) RemainingAttempts(s State) int {
	left := p.Threshold - s.FailureCount - 1
	if left < 0 {
		return 0
	}
	return left
}

// RecordFailure applies one failed verification attempt. It returns the
// next state and whether this failure transitioned into Locked. A failure
// after an expired lock window re-enters the counting path at the
// existing counter, so sustained attack extends the penalty.
func (p Policy) RecordFailure(s State, now time.Time) (State, bool) {
	next := s
	next.FailureCount++
	t := now
	next.LastFailureAt = &t

	if next.FailureCount < p.Threshold {
		return next, false
	}

	until := now.Add(p.Duration(next.FailureCount))
	next.LockedUntil = &until
	return next, true
}

// RecordSuccess resets the state after a successful verification.
// Counters reset unconditionally and any lock window is cleared.
func (p Policy) RecordSuccess(s State) State {
	return State{}
}

// Duration returns the lockout window for the given cumulative failure
// count. The schedule index is min(failureCount-threshold, len-1), so
// the penalty is non-decreasing and capped at the last schedule entry.
func (p Policy) Duration(failureCount int) time.Duration {
	idx := failureCount - p.Threshold
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.Schedule) {
		idx = len(p.Schedule) - 1
	}
	return p.Schedule[idx]
}
