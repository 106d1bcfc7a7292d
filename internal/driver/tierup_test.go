package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldTierUpOnCallCount(t *testing.T) {
	th := Thresholds{CallCount: 1000, BaselineTime: time.Hour}
	assert.False(t, ShouldTierUp(th, 999, 0))
	assert.True(t, ShouldTierUp(th, 1000, 0))
}

func TestShouldTierUpOnBaselineTime(t *testing.T) {
	th := Thresholds{CallCount: 1000000, BaselineTime: 100 * time.Millisecond}
	assert.False(t, ShouldTierUp(th, 1, 99*time.Millisecond))
	assert.True(t, ShouldTierUp(th, 1, 100*time.Millisecond))
}

func TestDefaultThresholdsMatchesSpecDefaults(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, 1000, th.CallCount)
	assert.Equal(t, 100*time.Millisecond, th.BaselineTime)
}

func TestTierUpRegistryAccumulatesPerFunction(t *testing.T) {
	r := NewTierUpRegistry(Thresholds{CallCount: 3, BaselineTime: time.Hour})

	assert.False(t, r.RecordBaselineCall("f", 10*time.Millisecond))
	assert.False(t, r.RecordBaselineCall("f", 10*time.Millisecond))
	assert.True(t, r.RecordBaselineCall("f", 10*time.Millisecond))

	count, total := r.Stats("f")
	assert.Equal(t, 3, count)
	assert.Equal(t, 30*time.Millisecond, total)
}

func TestTierUpRegistryTracksFunctionsIndependently(t *testing.T) {
	r := NewTierUpRegistry(Thresholds{CallCount: 2, BaselineTime: time.Hour})

	assert.False(t, r.RecordBaselineCall("f", time.Millisecond))
	assert.False(t, r.RecordBaselineCall("g", time.Millisecond))
	assert.True(t, r.RecordBaselineCall("g", time.Millisecond))

	fCount, _ := r.Stats("f")
	gCount, _ := r.Stats("g")
	assert.Equal(t, 1, fCount)
	assert.Equal(t, 2, gCount)
}
