package focus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	s, err := NewSession(42, 0, nil, now)
	require.NoError(t, err)
	assert.Equal(t, DefaultDurationMinutes, s.DurationMinutes)
	assert.Equal(t, now.Add(25*time.Minute), s.EndsAt())

	goalID := int64(9)
	s, err = NewSession(42, 50, &goalID, now)
	require.NoError(t, err)
	assert.Equal(t, 50, s.DurationMinutes)
	assert.Equal(t, int64(9), *s.GoalID)
}

func TestNewSession_InvalidDuration(t *testing.T) {
	_, err := NewSession(42, -5, nil, time.Now())
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = NewSession(42, MaxDurationMinutes+1, nil, time.Now())
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}
