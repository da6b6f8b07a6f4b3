package workout

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/multierr"
)

const (
	MaxNameLength = 80
	MinRepeat     = 2
	MaxZone       = 5
)

// Validate reports every problem found in the workout, not just the first.
// Use multierr.Errors to get them one by one.
func (w Workout) Validate() error {
	var err error

	name := strings.TrimSpace(w.Name)
	switch {
	case name == "":
		err = multierr.Append(err, fmt.Errorf("name: must not be empty"))
	case utf8.RuneCountInString(name) > MaxNameLength:
		err = multierr.Append(err, fmt.Errorf("name: longer than %d characters", MaxNameLength))
	}

	if !w.Sport.Known() {
		err = multierr.Append(err, fmt.Errorf("sport: unknown sport %q", w.Sport))
	}

	if len(w.Steps) == 0 {
		err = multierr.Append(err, fmt.Errorf("steps: at least one step is required"))
	}

	for i, step := range w.Steps {
		err = multierr.Append(err, step.validate(fmt.Sprintf("steps[%d]", i), 0))
	}

	return err
}

func (s Step) validate(path string, depth int) error {
	if s.IsRepeat() {
		return s.validateRepeat(path, depth)
	}

	var err error
	if s.Intensity != "" && !s.Intensity.Known() {
		err = multierr.Append(err, fmt.Errorf("%s.intensity: unknown intensity %q", path, s.Intensity))
	}

	switch {
	case !s.Duration.Kind.Known():
		err = multierr.Append(err, fmt.Errorf("%s.duration: unknown kind %q", path, s.Duration.Kind))
	case s.Duration.Kind.Bounded() && s.Duration.Value <= 0:
		err = multierr.Append(err, fmt.Errorf("%s.duration: %s needs a positive value", path, s.Duration.Kind))
	}

	return multierr.Append(err, s.Target.validate(path+".target"))
}

func (s Step) validateRepeat(path string, depth int) error {
	var err error
	if depth > 0 {
		err = multierr.Append(err, fmt.Errorf("%s: repeat groups cannot be nested", path))
	}
	if s.Repeat < MinRepeat {
		err = multierr.Append(err, fmt.Errorf("%s.repeat: must be at least %d, got %d", path, MinRepeat, s.Repeat))
	}
	if len(s.Steps) == 0 {
		err = multierr.Append(err, fmt.Errorf("%s.steps: repeat group needs at least one step", path))
	}
	for i, child := range s.Steps {
		err = multierr.Append(err, child.validate(fmt.Sprintf("%s.steps[%d]", path, i), depth+1))
	}
	return err
}

func (t Target) validate(path string) error {
	switch {
	case !t.Kind.Known():
		return fmt.Errorf("%s: unknown kind %q", path, t.Kind)
	case t.Kind.IsNone():
		return nil
	case t.Kind.ZoneBased():
		if t.Zone < 1 || t.Zone > MaxZone {
			return fmt.Errorf("%s: zone must be between 1 and %d, got %d", path, MaxZone, t.Zone)
		}
		return nil
	case t.Low <= 0 || t.Low > t.High:
		return fmt.Errorf("%s: range must satisfy 0 < low <= high, got %g..%g", path, t.Low, t.High)
	}
	return nil
}
