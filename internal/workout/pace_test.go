package workout_test

import (
	"testing"

	"github.com/2beens/garminpartner/internal/workout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaceToSpeed(t *testing.T) {
	speed, err := workout.PaceToSpeed("5:00")
	require.NoError(t, err)
	assert.InDelta(t, 3.333, speed, 0.001)

	speed, err = workout.PaceToSpeed(" 4:10 ")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, speed, 0.001)

	for _, bad := range []string{"", "5", "5:60", "5:5", "-1:00", "0:00", "a:bc"} {
		_, err := workout.PaceToSpeed(bad)
		assert.ErrorIs(t, err, workout.ErrInvalidPace, bad)
	}
}

func TestSpeedToPace(t *testing.T) {
	assert.Equal(t, "5:00", workout.SpeedToPace(1000.0/300))
	assert.Equal(t, "6:00", workout.SpeedToPace(2.778))
	assert.Equal(t, "-", workout.SpeedToPace(0))
}

func TestPaceTarget(t *testing.T) {
	target, err := workout.PaceTarget("6:00", "5:00")
	require.NoError(t, err)
	assert.Equal(t, workout.TargetPace, target.Kind)
	assert.Equal(t, 2.778, target.Low)
	assert.Equal(t, 3.333, target.High)

	swapped, err := workout.PaceTarget("5:00", "6:00")
	require.NoError(t, err)
	assert.Equal(t, target, swapped)

	_, err = workout.PaceTarget("6:00", "fast")
	assert.ErrorIs(t, err, workout.ErrInvalidPace)
}
