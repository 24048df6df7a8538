package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(3, 15*time.Second, 1)

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.RecordFailure()
	}
	require.Equal(t, CircuitStateClosed, b.State())

	require.NoError(t, b.Allow())
	b.RecordFailure()

	require.Equal(t, CircuitStateOpen, b.State())
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(2, 15*time.Second, 1)

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	require.Equal(t, CircuitStateClosed, b.State())
	require.NoError(t, b.Allow())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	t.Parallel()

	current := time.Unix(1000, 0)
	b := NewCircuitBreaker(1, 10*time.Second, 2)
	b.now = func() time.Time { return current }

	b.RecordFailure()
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	current = current.Add(11 * time.Second)
	require.Equal(t, CircuitStateHalfOpen, b.State())

	// Probe budget is capped at halfOpenMaxReq concurrent requests.
	require.NoError(t, b.Allow())
	require.NoError(t, b.Allow())
	require.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	b.RecordSuccess()
	b.RecordSuccess()
	require.Equal(t, CircuitStateClosed, b.State())
	require.NoError(t, b.Allow())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	current := time.Unix(2000, 0)
	b := NewCircuitBreaker(1, 10*time.Second, 1)
	b.now = func() time.Time { return current }

	b.RecordFailure()
	current = current.Add(11 * time.Second)

	require.NoError(t, b.Allow())
	b.RecordFailure()

	require.Equal(t, CircuitStateOpen, b.State())
	require.True(t, errors.Is(b.Allow(), ErrCircuitOpen))
}
