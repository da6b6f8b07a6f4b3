package workout

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type fileWorkout struct {
	Name        string     `toml:"name"`
	Description string     `toml:"description"`
	Sport       string     `toml:"sport"`
	Steps       []fileStep `toml:"steps"`
}

type fileStep struct {
	Name        string       `toml:"name"`
	Description string       `toml:"description"`
	Intensity   string       `toml:"intensity"`
	Duration    fileDuration `toml:"duration"`
	Target      fileTarget   `toml:"target"`
	Repeat      int          `toml:"repeat"`
	Steps       []fileStep   `toml:"steps"`
}

type fileDuration struct {
	Kind  string  `toml:"kind"`
	Value float64 `toml:"value"`
	// Time is a Go duration ("90s", "10m") accepted for time kinds.
	Time string `toml:"time"`
}

type fileTarget struct {
	Kind    string  `toml:"kind"`
	Low     float64 `toml:"low"`
	High    float64 `toml:"high"`
	Zone    int     `toml:"zone"`
	Slowest string  `toml:"slowest"`
	Fastest string  `toml:"fastest"`
}

// Load reads and validates a TOML workout definition.
func Load(path string) (Workout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Workout{}, fmt.Errorf("open workout file: %w", err)
	}
	defer f.Close()

	w, err := Parse(f)
	if err != nil {
		return Workout{}, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Parse decodes a TOML workout definition and validates it.
// Unknown keys are rejected so typos do not silently drop steps.
func Parse(r io.Reader) (Workout, error) {
	var fw fileWorkout
	md, err := toml.NewDecoder(r).Decode(&fw)
	if err != nil {
		return Workout{}, fmt.Errorf("decode workout: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Workout{}, fmt.Errorf("decode workout: unknown keys: %s", strings.Join(keys, ", "))
	}

	w, err := fw.toWorkout()
	if err != nil {
		return Workout{}, err
	}

	if err := w.Validate(); err != nil {
		return Workout{}, fmt.Errorf("invalid workout: %w", err)
	}

	return w, nil
}

func (fw fileWorkout) toWorkout() (Workout, error) {
	steps, err := toSteps(fw.Steps, "steps")
	if err != nil {
		return Workout{}, err
	}
	return Workout{
		Name:        strings.TrimSpace(fw.Name),
		Description: fw.Description,
		Sport:       Sport(strings.ToLower(fw.Sport)),
		Steps:       steps,
	}, nil
}

func toSteps(fileSteps []fileStep, path string) ([]Step, error) {
	steps := make([]Step, 0, len(fileSteps))
	for i, fs := range fileSteps {
		stepPath := fmt.Sprintf("%s[%d]", path, i)

		children, err := toSteps(fs.Steps, stepPath+".steps")
		if err != nil {
			return nil, err
		}
		duration, err := fs.Duration.toDuration()
		if err != nil {
			return nil, fmt.Errorf("%s.duration: %w", stepPath, err)
		}
		target, err := fs.Target.toTarget()
		if err != nil {
			return nil, fmt.Errorf("%s.target: %w", stepPath, err)
		}

		step := Step{
			Name:        fs.Name,
			Description: fs.Description,
			Intensity:   Intensity(fs.Intensity),
			Duration:    duration,
			Target:      target,
			Repeat:      fs.Repeat,
		}
		if len(children) > 0 {
			step.Steps = children
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (fd fileDuration) toDuration() (Duration, error) {
	d := Duration{Kind: DurationKind(fd.Kind), Value: fd.Value}
	if fd.Time == "" {
		return d, nil
	}

	parsed, err := time.ParseDuration(fd.Time)
	if err != nil {
		return Duration{}, err
	}
	if d.Kind == "" {
		d.Kind = DurationTime
	}
	if d.Kind != DurationTime {
		return Duration{}, fmt.Errorf("time given for %s duration", d.Kind)
	}
	d.Value = parsed.Seconds()
	return d, nil
}

func (ft fileTarget) toTarget() (Target, error) {
	if ft.Slowest != "" || ft.Fastest != "" {
		if ft.Kind != "" && TargetKind(ft.Kind) != TargetPace {
			return Target{}, fmt.Errorf("pace bounds given for %s target", ft.Kind)
		}
		return PaceTarget(ft.Slowest, ft.Fastest)
	}

	kind := TargetKind(ft.Kind)
	if kind == "" {
		kind = TargetNone
	}
	return Target{Kind: kind, Low: ft.Low, High: ft.High, Zone: ft.Zone}, nil
}
