package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/focusgoal/focusgoal-backend/internal/domain/goal"
)

func TestForGoalCompleted(t *testing.T) {
	assert.Equal(t, 75, ForGoalCompleted(goal.PriorityHigh))
	assert.Equal(t, 50, ForGoalCompleted(goal.PriorityMedium))
	assert.Equal(t, 25, ForGoalCompleted(goal.PriorityLow))
	assert.Equal(t, 50, ForGoalCompleted(goal.Priority("urgent")))
	assert.Equal(t, 50, ForGoalCompleted(""))
}

func TestFixedRewards(t *testing.T) {
	assert.Equal(t, 10, ForGoalCreated())
	assert.Equal(t, 5, ForHabitCreated())
	assert.Equal(t, 5, ForHabitTracked())
	assert.Equal(t, 0, ForFocusSessionStarted())
}
