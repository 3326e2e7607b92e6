package commission

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{
	StatusPending, StatusBlocked, StatusDispatched, StatusInProgress,
	StatusCompleted, StatusFailed, StatusCancelled,
}

func TestValidateTransitionAllowedEdges(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusDispatched},
		{StatusPending, StatusBlocked},
		{StatusPending, StatusCancelled},
		{StatusBlocked, StatusPending},
		{StatusBlocked, StatusCancelled},
		{StatusDispatched, StatusInProgress},
		{StatusDispatched, StatusFailed},
		{StatusInProgress, StatusCompleted},
		{StatusInProgress, StatusFailed},
		{StatusInProgress, StatusCancelled},
	}

	for _, edge := range allowed {
		t.Run(string(edge.from)+"->"+string(edge.to), func(t *testing.T) {
			// Validation is side-effect free; repeated calls must agree.
			for range 3 {
				assert.NoError(t, ValidateTransition(edge.from, edge.to))
			}
		})
	}
}

func TestValidateTransitionRejectsEverythingElse(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusDispatched}:    true,
		{StatusPending, StatusBlocked}:       true,
		{StatusPending, StatusCancelled}:     true,
		{StatusBlocked, StatusPending}:       true,
		{StatusBlocked, StatusCancelled}:     true,
		{StatusDispatched, StatusInProgress}: true,
		{StatusDispatched, StatusFailed}:     true,
		{StatusInProgress, StatusCompleted}:  true,
		{StatusInProgress, StatusFailed}:     true,
		{StatusInProgress, StatusCancelled}:  true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if allowed[[2]Status{from, to}] {
				continue
			}
			err := ValidateTransition(from, to)
			require.Error(t, err, "%s -> %s should be rejected", from, to)

			var ite *InvalidTransitionError
			require.True(t, errors.As(err, &ite))
			assert.Equal(t, from, ite.From)
			assert.Equal(t, to, ite.To)
		}
	}
}

func TestTerminalStatesRejectEveryTarget(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
		for _, to := range allStatuses {
			err := ValidateTransition(from, to)
			require.Error(t, err, "%s -> %s", from, to)
			assert.Contains(t, err.Error(), "terminal state")
		}
	}
}

func TestInvalidTransitionErrorListsAllowedTargets(t *testing.T) {
	err := ValidateTransition(StatusPending, StatusCompleted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatched")
	assert.Contains(t, err.Error(), "blocked")
	assert.Contains(t, err.Error(), "cancelled")
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusBlocked.Terminal())
	assert.False(t, StatusDispatched.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestValid(t *testing.T) {
	for _, s := range allStatuses {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("running").Valid())
	assert.False(t, Status("").Valid())
}
