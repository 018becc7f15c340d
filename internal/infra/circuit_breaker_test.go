package infra_test

import (
	"errors"
	"testing"
	"time"

	"blendresto/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errHub = errors.New("hub unreachable")

func falla() error { return errHub }
func ok() error    { return nil }

func TestCircuitBreakerAbreTrasFallas(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      time.Minute,
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(falla), errHub)
	}
	assert.Equal(t, infra.CBOpen, cb.State())

	// Open fast-fails without invoking fn
	llamado := false
	err := cb.Execute(func() error { llamado = true; return nil })
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.False(t, llamado)
}

func TestCircuitBreakerMedioAbiertoYCierre(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Millisecond,
	})

	require.Error(t, cb.Execute(falla))
	require.Equal(t, infra.CBOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, infra.CBHalfOpen, cb.State())

	// Two good probes close the circuit
	require.NoError(t, cb.Execute(ok))
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, infra.CBClosed, cb.State())
}

func TestCircuitBreakerProbeFallidoReabre(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
	})

	require.Error(t, cb.Execute(falla))
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, infra.CBHalfOpen, cb.State())

	require.Error(t, cb.Execute(falla))
	assert.Equal(t, infra.CBOpen, cb.State())
}

func TestCircuitBreakerExitoResetaFallas(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		OpenTimeout:      time.Minute,
	})

	require.Error(t, cb.Execute(falla))
	require.NoError(t, cb.Execute(ok))
	require.Error(t, cb.Execute(falla))
	// The streak was broken, so the circuit stays closed
	assert.Equal(t, infra.CBClosed, cb.State())
}

func TestCBStateString(t *testing.T) {
	assert.Equal(t, "closed", infra.CBClosed.String())
	assert.Equal(t, "open", infra.CBOpen.String())
	assert.Equal(t, "half-open", infra.CBHalfOpen.String())
}
