package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	fail := func(ctx context.Context) error { return eris.New("boom") }

	require.Error(t, cb.Execute(context.Background(), fail))
	assert.Equal(t, CircuitClosed, cb.State())

	require.Error(t, cb.Execute(context.Background(), fail))
	assert.Equal(t, CircuitOpen, cb.State())

	err := cb.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 30 * time.Second}).
		WithNow(func() time.Time { return now })

	require.Error(t, cb.Execute(context.Background(), func(ctx context.Context) error {
		return eris.New("boom")
	}))
	assert.Equal(t, CircuitOpen, cb.State())

	now = now.Add(31 * time.Second)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	require.NoError(t, cb.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	}))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: 10 * time.Second}).
		WithNow(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error { return eris.New("boom") })
	}
	assert.Equal(t, CircuitOpen, cb.State())

	now = now.Add(11 * time.Second)
	require.Error(t, cb.Execute(context.Background(), func(ctx context.Context) error {
		return eris.New("still down")
	}))
	assert.Equal(t, CircuitOpen, cb.State())
}
