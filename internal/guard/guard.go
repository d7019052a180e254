// Package guard implements the per-origin brute-force defense state machine:
// failed attempts escalate to a short temporary lockout, and repeated
// lockouts escalate to an extended block. State is keyed by origin
// identifier (client IP or a generated fallback token) and persists across
// sessions to defeat retry-by-reload.
package guard

import "time"

const (
	// MaxAttempts failures trigger a temporary lockout.
	MaxAttempts = 3
	// MaxLockouts lockout cycles trigger a brute-force block.
	MaxLockouts = 3

	// TempLockDuration is the cooldown applied after MaxAttempts failures.
	TempLockDuration = 30 * time.Second
	// BruteForceDuration is the extended block applied after MaxLockouts
	// lockout cycles.
	BruteForceDuration = 600 * time.Second
)

// State is the persisted admission-control record for one origin.
type State struct {
	OriginKey       string
	FailedAttempts  int
	LockoutCount    int
	TempLockUntil   *time.Time
	BruteForceUntil *time.Time
	LastAttempt     time.Time
}

// Verdict is the outcome of an admission check.
type Verdict int

const (
	Allowed Verdict = iota
	BlockedTemp
	BlockedBruteForce
)

// Decision carries the admission verdict and, when blocked, the remaining
// wait. Callers derive any countdown display from the stored timestamp; the
// decision itself is recomputed on every check.
type Decision struct {
	Verdict   Verdict
	Remaining time.Duration
}

// Allowed reports whether the attempt may proceed.
func (d Decision) Allowed() bool { return d.Verdict == Allowed }

// Event describes the escalation recorded by a failure.
type Event int

const (
	EventNone Event = iota
	EventTempLock
	EventBruteForce
)

// CheckAdmission evaluates the state against now. An active brute-force
// block takes precedence over an active temp lock.
func CheckAdmission(s State, now time.Time) Decision {
	if s.BruteForceUntil != nil && now.Before(*s.BruteForceUntil) {
		return Decision{Verdict: BlockedBruteForce, Remaining: s.BruteForceUntil.Sub(now)}
	}
	if s.TempLockUntil != nil && now.Before(*s.TempLockUntil) {
		return Decision{Verdict: BlockedTemp, Remaining: s.TempLockUntil.Sub(now)}
	}
	return Decision{Verdict: Allowed}
}

// RecordFailure applies one failed attempt. Reaching MaxAttempts starts a
// temp lock, counts the lockout, and resets the attempt tally; reaching
// MaxLockouts within the same event escalates to a brute-force block, which
// overrides the temp lock that would otherwise apply.
func RecordFailure(s State, now time.Time) (State, Event) {
	s.LastAttempt = now
	s.FailedAttempts++
	if s.FailedAttempts < MaxAttempts {
		return s, EventNone
	}

	until := now.Add(TempLockDuration)
	s.TempLockUntil = &until
	s.LockoutCount++
	s.FailedAttempts = 0

	if s.LockoutCount >= MaxLockouts {
		blocked := now.Add(BruteForceDuration)
		s.BruteForceUntil = &blocked
		s.LockoutCount = 0
		s.TempLockUntil = nil
		return s, EventBruteForce
	}
	return s, EventTempLock
}

// RecordSuccess fully clears the escalation ladder.
func RecordSuccess(s State) State {
	s.FailedAttempts = 0
	s.LockoutCount = 0
	s.TempLockUntil = nil
	s.BruteForceUntil = nil
	return s
}

// OnTempLockExpiry clears an elapsed temp lock and resets the attempt tally.
// LockoutCount is preserved; that is what lets repeated temp locks
// accumulate into a brute-force block.
func OnTempLockExpiry(s State) State {
	s.TempLockUntil = nil
	s.FailedAttempts = 0
	return s
}

// OnBruteForceExpiry clears an elapsed brute-force block and resets both
// counters.
func OnBruteForceExpiry(s State) State {
	s.BruteForceUntil = nil
	s.LockoutCount = 0
	s.FailedAttempts = 0
	return s
}

// Expire applies lazy expiry to elapsed locks so counters reset even when no
// countdown fired. Returns the updated state and whether anything changed.
func Expire(s State, now time.Time) (State, bool) {
	changed := false
	if s.BruteForceUntil != nil && !now.Before(*s.BruteForceUntil) {
		s = OnBruteForceExpiry(s)
		changed = true
	}
	if s.TempLockUntil != nil && !now.Before(*s.TempLockUntil) {
		s = OnTempLockExpiry(s)
		changed = true
	}
	return s, changed
}
