package workout_test

import (
	"encoding/json"
	"testing"

	"github.com/2beens/garminpartner/internal/workout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDTO_EasyRun(t *testing.T) {
	dto := workout.ToDTO(workout.EasyRun())

	assert.Equal(t, "Easy 5K Run", dto.WorkoutName)
	assert.Equal(t, 1, dto.SportType.SportTypeID)
	assert.Equal(t, "running", dto.SportType.SportTypeKey)
	assert.Equal(t, 300, dto.EstimatedDurationInSecs)
	require.Len(t, dto.WorkoutSegments, 1)

	steps := dto.WorkoutSegments[0].WorkoutSteps
	require.Len(t, steps, 3)

	warmup := steps[0]
	assert.Equal(t, workout.StepTypeExecutable, warmup.Type)
	assert.Equal(t, 1, warmup.StepOrder)
	assert.Equal(t, "warmup", warmup.StepType.StepTypeKey)
	assert.Equal(t, "lap.button", warmup.EndCondition.ConditionTypeKey)
	assert.Nil(t, warmup.EndConditionValue)
	assert.Equal(t, "no.target", warmup.TargetType.WorkoutTargetTypeKey)
	assert.Equal(t, "Warm up until ready", warmup.Description)

	run := steps[1]
	assert.Equal(t, 2, run.StepOrder)
	assert.Equal(t, 3, run.StepType.StepTypeID)
	assert.Equal(t, 3, run.EndCondition.ConditionTypeID)
	require.NotNil(t, run.EndConditionValue)
	assert.Equal(t, 5000.0, *run.EndConditionValue)
	assert.Equal(t, 6, run.TargetType.WorkoutTargetTypeID)
	assert.Equal(t, 2.778, *run.TargetValueOne)
	assert.Equal(t, 3.333, *run.TargetValueTwo)

	cooldown := steps[2]
	assert.Equal(t, 3, cooldown.StepOrder)
	assert.Equal(t, 2, cooldown.StepType.StepTypeID)
	assert.Equal(t, "time", cooldown.EndCondition.ConditionTypeKey)
	assert.Equal(t, 300.0, *cooldown.EndConditionValue)
}

func TestToDTO_RepeatGroupOrdering(t *testing.T) {
	dto := workout.ToDTO(workout.Intervals())
	steps := dto.WorkoutSegments[0].WorkoutSteps
	require.Len(t, steps, 3)

	assert.Equal(t, 1, steps[0].StepOrder)
	require.NotNil(t, steps[0].ZoneNumber)
	assert.Equal(t, 2, *steps[0].ZoneNumber)
	assert.Equal(t, "heart.rate.zone", steps[0].TargetType.WorkoutTargetTypeKey)
	assert.Nil(t, steps[0].TargetValueOne)

	group := steps[1]
	assert.Equal(t, workout.StepTypeRepeatGroup, group.Type)
	assert.Equal(t, 2, group.StepOrder)
	assert.Equal(t, "repeat", group.StepType.StepTypeKey)
	assert.Equal(t, 6, group.NumberOfIterations)
	assert.Equal(t, "iterations", group.EndCondition.ConditionTypeKey)
	assert.Equal(t, 6.0, *group.EndConditionValue)
	require.NotNil(t, group.ChildStepID)
	assert.Equal(t, 1, *group.ChildStepID)

	require.Len(t, group.WorkoutSteps, 2)
	assert.Equal(t, 3, group.WorkoutSteps[0].StepOrder)
	assert.Equal(t, 4, group.WorkoutSteps[1].StepOrder)
	assert.Equal(t, "recovery", group.WorkoutSteps[1].StepType.StepTypeKey)
	for _, child := range group.WorkoutSteps {
		require.NotNil(t, child.ChildStepID)
		assert.Equal(t, 1, *child.ChildStepID)
	}

	assert.Equal(t, 5, steps[2].StepOrder)
	assert.Nil(t, steps[2].ChildStepID)
}

func TestToDTO_Conditions(t *testing.T) {
	w := workout.Workout{
		Name:  "conditions",
		Sport: workout.SportMobility,
		Steps: []workout.Step{
			{Duration: workout.Duration{Kind: workout.DurationHeartRateBelow, Value: 120}},
			{Duration: workout.Duration{Kind: workout.DurationHeartRateAbove, Value: 160}},
			{
				Intensity: workout.IntensityRest,
				Duration:  workout.Duration{Kind: workout.DurationCalories, Value: 50},
				Target:    workout.Target{Kind: workout.TargetPowerZone, Zone: 3},
			},
			{
				Name:        "Spin",
				Description: "high cadence",
				Duration:    workout.Duration{Kind: workout.DurationOpen},
				Target:      workout.Target{Kind: workout.TargetCadence, Low: 90, High: 100},
			},
		},
	}
	require.NoError(t, w.Validate())

	dto := workout.ToDTO(w)
	assert.Equal(t, 11, dto.SportType.SportTypeID)
	steps := dto.WorkoutSegments[0].WorkoutSteps

	assert.Equal(t, "heart.rate", steps[0].EndCondition.ConditionTypeKey)
	assert.Equal(t, "lt", steps[0].EndConditionCompare)
	assert.Equal(t, "gt", steps[1].EndConditionCompare)
	assert.Equal(t, "calories", steps[2].EndCondition.ConditionTypeKey)
	assert.Equal(t, "rest", steps[2].StepType.StepTypeKey)
	assert.Equal(t, "power.zone", steps[2].TargetType.WorkoutTargetTypeKey)
	assert.Equal(t, 3, *steps[2].ZoneNumber)
	assert.Equal(t, "cadence", steps[3].TargetType.WorkoutTargetTypeKey)
	assert.Equal(t, "Spin: high cadence", steps[3].Description)
	assert.Equal(t, "lap.button", steps[3].EndCondition.ConditionTypeKey)
}

func TestToDTO_JSON(t *testing.T) {
	raw, err := json.Marshal(workout.ToDTO(workout.EasyRun()))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.NotContains(t, doc, "workoutId")
	assert.Equal(t, "Easy 5K Run", doc["workoutName"])

	segments := doc["workoutSegments"].([]any)
	steps := segments[0].(map[string]any)["workoutSteps"].([]any)
	first := steps[0].(map[string]any)
	assert.Equal(t, "ExecutableStepDTO", first["type"])
	assert.NotContains(t, first, "endConditionValue")
	assert.NotContains(t, first, "childStepId")
}
