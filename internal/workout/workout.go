package workout

type Sport string

const (
	SportRunning  Sport = "running"
	SportCycling  Sport = "cycling"
	SportSwimming Sport = "swimming"
	SportStrength Sport = "strength_training"
	SportCardio   Sport = "cardio_training"
	SportHIIT     Sport = "hiit"
	SportYoga     Sport = "yoga"
	SportPilates  Sport = "pilates"
	SportMobility Sport = "mobility"
	SportOther    Sport = "other"
)

type Intensity string

const (
	IntensityWarmup   Intensity = "warmup"
	IntensityActive   Intensity = "active"
	IntensityInterval Intensity = "interval"
	IntensityRecovery Intensity = "recovery"
	IntensityRest     Intensity = "rest"
	IntensityCooldown Intensity = "cooldown"
)

type DurationKind string

const (
	DurationOpen           DurationKind = "open"
	DurationLap            DurationKind = "lap"
	DurationTime           DurationKind = "time"
	DurationDistance       DurationKind = "distance"
	DurationCalories       DurationKind = "calories"
	DurationHeartRateBelow DurationKind = "heart_rate_below"
	DurationHeartRateAbove DurationKind = "heart_rate_above"
)

type TargetKind string

const (
	TargetNone          TargetKind = "none"
	TargetHeartRate     TargetKind = "heart_rate"
	TargetHeartRateZone TargetKind = "heart_rate_zone"
	TargetSpeed         TargetKind = "speed"
	TargetPace          TargetKind = "pace"
	TargetCadence       TargetKind = "cadence"
	TargetPower         TargetKind = "power"
	TargetPowerZone     TargetKind = "power_zone"
)

// Duration ends a step. Value is seconds for time, meters for distance,
// kcal for calories and bpm for the heart rate kinds.
type Duration struct {
	Kind  DurationKind
	Value float64
}

// Target keeps the athlete inside a range during a step. Pace targets are
// stored as speed bounds in m/s, Low being the slower end.
type Target struct {
	Kind TargetKind
	Low  float64
	High float64
	Zone int
}

// Step is either executable or, when Repeat is set, a repeat group of Steps.
type Step struct {
	Name        string
	Description string
	Intensity   Intensity
	Duration    Duration
	Target      Target
	Repeat      int
	Steps       []Step
}

type Workout struct {
	Name        string
	Description string
	Sport       Sport
	Steps       []Step
}

func (s Step) IsRepeat() bool {
	return s.Repeat > 0 || len(s.Steps) > 0
}

// StepCount counts executable steps, expanding repeat groups.
func (w Workout) StepCount() int {
	return countSteps(w.Steps, 1)
}

func countSteps(steps []Step, multiplier int) int {
	count := 0
	for _, step := range steps {
		if step.IsRepeat() {
			count += countSteps(step.Steps, multiplier*step.Repeat)
			continue
		}
		count += multiplier
	}
	return count
}

// EstimatedDuration sums every time bound step, in seconds.
func (w Workout) EstimatedDuration() float64 {
	return sumDuration(w.Steps, DurationTime)
}

// EstimatedDistance sums every distance bound step, in meters.
func (w Workout) EstimatedDistance() float64 {
	return sumDuration(w.Steps, DurationDistance)
}

func sumDuration(steps []Step, kind DurationKind) float64 {
	total := 0.0
	for _, step := range steps {
		if step.IsRepeat() {
			total += float64(step.Repeat) * sumDuration(step.Steps, kind)
			continue
		}
		if step.Duration.Kind == kind {
			total += step.Duration.Value
		}
	}
	return total
}

var knownSports = map[Sport]bool{
	SportRunning: true, SportCycling: true, SportSwimming: true, SportStrength: true, SportCardio: true,
	SportHIIT: true, SportYoga: true, SportPilates: true, SportMobility: true, SportOther: true,
}

var knownIntensities = map[Intensity]bool{
	IntensityWarmup: true, IntensityActive: true, IntensityInterval: true,
	IntensityRecovery: true, IntensityRest: true, IntensityCooldown: true,
}

var knownDurations = map[DurationKind]bool{
	DurationOpen: true, DurationLap: true, DurationTime: true, DurationDistance: true,
	DurationCalories: true, DurationHeartRateBelow: true, DurationHeartRateAbove: true,
}

var knownTargets = map[TargetKind]bool{
	TargetNone: true, TargetHeartRate: true, TargetHeartRateZone: true, TargetSpeed: true,
	TargetPace: true, TargetCadence: true, TargetPower: true, TargetPowerZone: true,
}

func (s Sport) Known() bool          { return knownSports[s] }
func (i Intensity) Known() bool      { return knownIntensities[i] }
func (k DurationKind) Known() bool   { return knownDurations[k] }
func (k TargetKind) Known() bool     { return k == "" || knownTargets[k] }
func (k DurationKind) Bounded() bool { return k != DurationOpen && k != DurationLap }
func (k TargetKind) ZoneBased() bool { return k == TargetHeartRateZone || k == TargetPowerZone }
func (k TargetKind) IsNone() bool    { return k == "" || k == TargetNone }
