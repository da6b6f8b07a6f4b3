package workout

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownTemplate = errors.New("unknown workout template")

const (
	TemplateEasyRun   = "easy-run"
	TemplateIntervals = "intervals"
)

var templates = map[string]func() Workout{
	TemplateEasyRun:   EasyRun,
	TemplateIntervals: Intervals,
}

// Template returns a fresh copy of a built-in workout.
func Template(name string) (Workout, error) {
	build, ok := templates[name]
	if !ok {
		return Workout{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	return build(), nil
}

func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EasyRun is a steady aerobic 5K.
func EasyRun() Workout {
	return Workout{
		Name:        "Easy 5K Run",
		Description: "A steady aerobic effort to build base endurance.",
		Sport:       SportRunning,
		Steps: []Step{
			{
				Description: "Warm up until ready",
				Intensity:   IntensityWarmup,
				Duration:    Duration{Kind: DurationLap},
			},
			{
				Intensity: IntensityActive,
				Duration:  Duration{Kind: DurationDistance, Value: 5000},
				Target:    mustPaceTarget("6:00", "5:00"),
			},
			{
				Description: "Walk or slow jog",
				Intensity:   IntensityCooldown,
				Duration:    Duration{Kind: DurationTime, Value: 300},
			},
		},
	}
}

// Intervals is 6 x 400 m with 90 s jog recoveries.
func Intervals() Workout {
	return Workout{
		Name:        "6 x 400m Intervals",
		Description: "Short fast repeats with jog recoveries.",
		Sport:       SportRunning,
		Steps: []Step{
			{
				Intensity: IntensityWarmup,
				Duration:  Duration{Kind: DurationTime, Value: 600},
				Target:    Target{Kind: TargetHeartRateZone, Zone: 2},
			},
			{
				Repeat: 6,
				Steps: []Step{
					{
						Name:      "Fast",
						Intensity: IntensityInterval,
						Duration:  Duration{Kind: DurationDistance, Value: 400},
						Target:    mustPaceTarget("4:15", "3:55"),
					},
					{
						Name:      "Jog",
						Intensity: IntensityRecovery,
						Duration:  Duration{Kind: DurationTime, Value: 90},
					},
				},
			},
			{
				Intensity: IntensityCooldown,
				Duration:  Duration{Kind: DurationTime, Value: 600},
			},
		},
	}
}

func mustPaceTarget(slowest, fastest string) Target {
	t, err := PaceTarget(slowest, fastest)
	if err != nil {
		panic(err)
	}
	return t
}
