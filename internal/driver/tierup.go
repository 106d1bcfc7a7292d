package driver

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Thresholds configures the tier-up predicate of §4.7: compile iff the
// observed call count or cumulative baseline time at or exceeds either one.
type Thresholds struct {
	CallCount    int
	BaselineTime time.Duration
}

// DefaultThresholds returns the §4.7 defaults: 1000 calls or 100ms
// cumulative baseline time.
func DefaultThresholds() Thresholds {
	return Thresholds{CallCount: 1000, BaselineTime: 100 * time.Millisecond}
}

// ShouldTierUp is the pure tier-up predicate of §6: (function id, observed
// call count, cumulative baseline time) -> bool. It takes no function id
// because it has nothing stateful to look up; TierUpRegistry below is the
// stateful wrapper that does.
func ShouldTierUp(th Thresholds, callCount int, cumulative time.Duration) bool {
	return callCount >= th.CallCount || cumulative >= th.BaselineTime
}

// functionStats is the per-function bookkeeping the baseline tier reports
// incrementally as it interprets a function.
type functionStats struct {
	callCount    int
	baselineTime time.Duration
}

// TierUpRegistry is the one piece of state in this module that is genuinely
// shared across concurrent compiles (§5: "no shared mutable state across
// compiles" describes the per-compile arenas, not this bookkeeping), so it
// is guarded with a deadlock-detecting mutex rather than a plain one,
// matching the style the rest of this stack uses for anything
// cross-goroutine.
type TierUpRegistry struct {
	mu         deadlock.Mutex
	thresholds Thresholds
	stats      map[string]functionStats
}

// NewTierUpRegistry creates a registry enforcing th across every function id
// it tracks.
func NewTierUpRegistry(th Thresholds) *TierUpRegistry {
	return &TierUpRegistry{thresholds: th, stats: map[string]functionStats{}}
}

// RecordBaselineCall registers one more baseline-tier invocation of fnID,
// taking d to execute, and reports whether the function should now tier up.
func (r *TierUpRegistry) RecordBaselineCall(fnID string, d time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats[fnID]
	s.callCount++
	s.baselineTime += d
	r.stats[fnID] = s
	return ShouldTierUp(r.thresholds, s.callCount, s.baselineTime)
}

// Stats returns a snapshot of fnID's current counters, for diagnostics.
func (r *TierUpRegistry) Stats(fnID string) (callCount int, baselineTime time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats[fnID]
	return s.callCount, s.baselineTime
}
