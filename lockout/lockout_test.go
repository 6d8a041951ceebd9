package lockout

import (
	"testing"
	"time"
)

func TestRecordFailureBelowThreshold(t *testing.T) {
	p := NewPolicy(0, nil)
	now := time.Now()

	var s State
	for i := 0; i < p.Threshold-1; i++ {
		var locked bool
		s, locked = p.RecordFailure(s, now)
		if locked {
			t.Fatalf("attempt %d: locked before threshold", i+1)
		}
	}
	if s.FailureCount != p.Threshold-1 {
		t.Fatalf("expected %d failures, got %d", p.Threshold-1, s.FailureCount)
	}
	if s.LockedUntil != nil {
		t.Fatal("expected no lock window before threshold")
	}
	if s.LastFailureAt == nil || !s.LastFailureAt.Equal(now) {
		t.Fatal("expected last failure timestamp to be recorded")
	}
}

func TestThresholdFailureLocks(t *testing.T) {
	p := NewPolicy(0, nil)
	now := time.Now()

	var s State
	var locked bool
	for i := 0; i < p.Threshold; i++ {
		s, locked = p.RecordFailure(s, now)
	}
	if !locked {
		t.Fatal("expected lock on threshold failure")
	}
	if !p.Locked(s, now) {
		t.Fatal("expected state to report locked")
	}

	want := now.Add(15 * time.Minute)
	if !s.LockedUntil.Equal(want) {
		t.Fatalf("expected first lock until %v, got %v", want, *s.LockedUntil)
	}
}

func TestProgressiveScheduleNonDecreasing(t *testing.T) {
	p := NewPolicy(0, nil)
	now := time.Now()

	var s State
	for i := 0; i < p.Threshold; i++ {
		s, _ = p.RecordFailure(s, now)
	}

	expected := []time.Duration{
		30 * time.Minute,
		60 * time.Minute,
		120 * time.Minute,
		1440 * time.Minute,
		1440 * time.Minute, // capped
		1440 * time.Minute,
	}

	for i, want := range expected {
		// Simulate the lock window expiring and another failure arriving.
		now = s.LockedUntil.Add(time.Second)
		var locked bool
		s, locked = p.RecordFailure(s, now)
		if !locked {
			t.Fatalf("step %d: expected re-lock", i)
		}
		if got := s.LockedUntil.Sub(now); got != want {
			t.Fatalf("step %d: expected window %v, got %v", i, want, got)
		}
	}
}

func TestSuccessResetsUnconditionally(t *testing.T) {
	p := NewPolicy(0, nil)
	now := time.Now()

	var s State
	for i := 0; i < p.Threshold+2; i++ {
		s, _ = p.RecordFailure(s, now)
	}

	s = p.RecordSuccess(s)
	if s.FailureCount != 0 || s.LockedUntil != nil || s.LastFailureAt != nil {
		t.Fatalf("expected clean state after success, got %+v", s)
	}
}

func TestRemaining(t *testing.T) {
	p := NewPolicy(0, nil)
	now := time.Now()

	var s State
	for i := 0; i < p.Threshold; i++ {
		s, _ = p.RecordFailure(s, now)
	}

	if got := p.Remaining(s, now); got != 15*time.Minute {
		t.Fatalf("expected 15m remaining, got %v", got)
	}
	if got := p.Remaining(s, now.Add(16*time.Minute)); got != 0 {
		t.Fatalf("expected 0 remaining after expiry, got %v", got)
	}
}

func TestRemainingAttempts(t *testing.T) {
	p := NewPolicy(3, nil)

	var s State
	now := time.Now()
	if got := p.RemainingAttempts(s); got != 2 {
		t.Fatalf("expected 2 remaining attempts, got %d", got)
	}

	s, _ = p.RecordFailure(s, now)
	s, _ = p.RecordFailure(s, now)
	if got := p.RemainingAttempts(s); got != 0 {
		t.Fatalf("expected 0 remaining attempts, got %d", got)
	}
}
