package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testRegistry(cooldown time.Duration) *BreakerRegistry {
	return NewBreakerRegistry(BreakerConfig{FailureThreshold: 3, Cooldown: cooldown})
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	r := testRegistry(time.Minute)

	require.True(t, r.Allow("p:m"))
	r.RecordFailure("p:m")
	r.RecordFailure("p:m")
	require.True(t, r.Allow("p:m"))
	r.RecordFailure("p:m")

	require.Equal(t, StateOpen, r.State("p:m"))
	require.False(t, r.Allow("p:m"))
}

func TestSuccessResetsConsecutiveFailures(t *testing.T) {
	r := testRegistry(time.Minute)

	r.RecordFailure("p:m")
	r.RecordFailure("p:m")
	r.RecordSuccess("p:m")
	r.RecordFailure("p:m")
	r.RecordFailure("p:m")

	require.Equal(t, StateClosed, r.State("p:m"))
	require.True(t, r.Allow("p:m"))
}

func TestHalfOpenSingleProbeThenClose(t *testing.T) {
	r := testRegistry(30 * time.Millisecond)

	for i := 0; i < 3; i++ {
		r.RecordFailure("p:m")
	}
	require.False(t, r.Allow("p:m"))

	time.Sleep(40 * time.Millisecond)

	// Exactly one trial call gets through after the cooldown.
	require.True(t, r.Allow("p:m"))
	require.Equal(t, StateHalfOpen, r.State("p:m"))
	require.False(t, r.Allow("p:m"))

	r.RecordSuccess("p:m")
	require.Equal(t, StateClosed, r.State("p:m"))
	require.True(t, r.Allow("p:m"))
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
	r := testRegistry(30 * time.Millisecond)

	for i := 0; i < 3; i++ {
		r.RecordFailure("p:m")
	}
	time.Sleep(40 * time.Millisecond)
	require.True(t, r.Allow("p:m"))

	// Failed probe restarts the cooldown clock.
	r.RecordFailure("p:m")
	require.Equal(t, StateOpen, r.State("p:m"))
	require.False(t, r.Allow("p:m"))

	time.Sleep(40 * time.Millisecond)
	require.True(t, r.Allow("p:m"))
}

func TestKeysAreIndependent(t *testing.T) {
	r := testRegistry(time.Minute)

	for i := 0; i < 3; i++ {
		r.RecordFailure("dead:endpoint")
	}

	require.False(t, r.Allow("dead:endpoint"))
	require.True(t, r.Allow("healthy:endpoint"))
	require.Equal(t, StateClosed, r.State("healthy:endpoint"))
}

func TestSnapshotReportsStates(t *testing.T) {
	r := testRegistry(time.Minute)
	r.RecordFailure("a")
	for i := 0; i < 3; i++ {
		r.RecordFailure("b")
	}

	snap := r.Snapshot()
	require.Equal(t, "closed", snap["a"].State)
	require.Equal(t, 1, snap["a"].Failures)
	require.Equal(t, "open", snap["b"].State)
}

func TestLimiterBurstThenDeny(t *testing.T) {
	l := NewLimiter()
	l.Configure("market", 1, 2)

	require.True(t, l.Allow("market"))
	require.True(t, l.Allow("market"))
	require.False(t, l.Allow("market"))

	// Unconfigured providers are unthrottled.
	require.True(t, l.Allow("pairs"))
}
