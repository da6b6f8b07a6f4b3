package workout

import (
	"strings"
)

const (
	StepTypeExecutable  = "ExecutableStepDTO"
	StepTypeRepeatGroup = "RepeatGroupDTO"
)

// DTO is the workout document accepted and returned by the Connect workout service.
type DTO struct {
	WorkoutID                 int64        `json:"workoutId,omitempty"`
	OwnerID                   int64        `json:"ownerId,omitempty"`
	WorkoutName               string       `json:"workoutName"`
	Description               string       `json:"description,omitempty"`
	SportType                 SportTypeDTO `json:"sportType"`
	EstimatedDurationInSecs   int          `json:"estimatedDurationInSecs,omitempty"`
	EstimatedDistanceInMeters float64      `json:"estimatedDistanceInMeters,omitempty"`
	WorkoutSegments           []SegmentDTO `json:"workoutSegments"`
	CreatedDate               string       `json:"createdDate,omitempty"`
	UpdatedDate               string       `json:"updatedDate,omitempty"`
}

type SportTypeDTO struct {
	SportTypeID  int    `json:"sportTypeId"`
	SportTypeKey string `json:"sportTypeKey"`
	DisplayOrder int    `json:"displayOrder,omitempty"`
}

type SegmentDTO struct {
	SegmentOrder int          `json:"segmentOrder"`
	SportType    SportTypeDTO `json:"sportType"`
	WorkoutSteps []StepDTO    `json:"workoutSteps"`
}

type StepTypeDTO struct {
	StepTypeID   int    `json:"stepTypeId"`
	StepTypeKey  string `json:"stepTypeKey"`
	DisplayOrder int    `json:"displayOrder,omitempty"`
}

type ConditionDTO struct {
	ConditionTypeID  int    `json:"conditionTypeId"`
	ConditionTypeKey string `json:"conditionTypeKey"`
	DisplayOrder     int    `json:"displayOrder,omitempty"`
	Displayable      bool   `json:"displayable"`
}

type TargetTypeDTO struct {
	WorkoutTargetTypeID  int    `json:"workoutTargetTypeId"`
	WorkoutTargetTypeKey string `json:"workoutTargetTypeKey"`
	DisplayOrder         int    `json:"displayOrder,omitempty"`
}

// StepDTO carries both step flavours, Type tells them apart.
type StepDTO struct {
	Type                string         `json:"type"`
	StepID              int64          `json:"stepId,omitempty"`
	StepOrder           int            `json:"stepOrder"`
	ChildStepID         *int           `json:"childStepId,omitempty"`
	Description         string         `json:"description,omitempty"`
	StepType            StepTypeDTO    `json:"stepType"`
	EndCondition        ConditionDTO   `json:"endCondition"`
	EndConditionValue   *float64       `json:"endConditionValue,omitempty"`
	EndConditionCompare string         `json:"endConditionCompare,omitempty"`
	TargetType          *TargetTypeDTO `json:"targetType,omitempty"`
	TargetValueOne      *float64       `json:"targetValueOne,omitempty"`
	TargetValueTwo      *float64       `json:"targetValueTwo,omitempty"`
	ZoneNumber          *int           `json:"zoneNumber,omitempty"`
	NumberOfIterations  int            `json:"numberOfIterations,omitempty"`
	SmartRepeat         bool           `json:"smartRepeat"`
	WorkoutSteps        []StepDTO      `json:"workoutSteps,omitempty"`
}

var sportTypes = map[Sport]SportTypeDTO{
	SportRunning:  {SportTypeID: 1, SportTypeKey: "running", DisplayOrder: 1},
	SportCycling:  {SportTypeID: 2, SportTypeKey: "cycling", DisplayOrder: 2},
	SportOther:    {SportTypeID: 3, SportTypeKey: "other", DisplayOrder: 3},
	SportSwimming: {SportTypeID: 4, SportTypeKey: "swimming", DisplayOrder: 4},
	SportStrength: {SportTypeID: 5, SportTypeKey: "strength_training", DisplayOrder: 5},
	SportCardio:   {SportTypeID: 6, SportTypeKey: "cardio_training", DisplayOrder: 6},
	SportYoga:     {SportTypeID: 7, SportTypeKey: "yoga", DisplayOrder: 7},
	SportPilates:  {SportTypeID: 8, SportTypeKey: "pilates", DisplayOrder: 8},
	SportHIIT:     {SportTypeID: 9, SportTypeKey: "hiit", DisplayOrder: 9},
	SportMobility: {SportTypeID: 11, SportTypeKey: "mobility", DisplayOrder: 10},
}

var (
	stepTypeWarmup   = StepTypeDTO{StepTypeID: 1, StepTypeKey: "warmup", DisplayOrder: 1}
	stepTypeCooldown = StepTypeDTO{StepTypeID: 2, StepTypeKey: "cooldown", DisplayOrder: 2}
	stepTypeInterval = StepTypeDTO{StepTypeID: 3, StepTypeKey: "interval", DisplayOrder: 3}
	stepTypeRecovery = StepTypeDTO{StepTypeID: 4, StepTypeKey: "recovery", DisplayOrder: 4}
	stepTypeRest     = StepTypeDTO{StepTypeID: 5, StepTypeKey: "rest", DisplayOrder: 5}
	stepTypeRepeat   = StepTypeDTO{StepTypeID: 6, StepTypeKey: "repeat", DisplayOrder: 6}
)

var (
	conditionLap        = ConditionDTO{ConditionTypeID: 1, ConditionTypeKey: "lap.button", DisplayOrder: 1, Displayable: true}
	conditionTime       = ConditionDTO{ConditionTypeID: 2, ConditionTypeKey: "time", DisplayOrder: 2, Displayable: true}
	conditionDistance   = ConditionDTO{ConditionTypeID: 3, ConditionTypeKey: "distance", DisplayOrder: 3, Displayable: true}
	conditionCalories   = ConditionDTO{ConditionTypeID: 4, ConditionTypeKey: "calories", DisplayOrder: 4, Displayable: true}
	conditionHeartRate  = ConditionDTO{ConditionTypeID: 6, ConditionTypeKey: "heart.rate", DisplayOrder: 6, Displayable: true}
	conditionIterations = ConditionDTO{ConditionTypeID: 7, ConditionTypeKey: "iterations", DisplayOrder: 7, Displayable: false}
)

var (
	targetNone          = TargetTypeDTO{WorkoutTargetTypeID: 1, WorkoutTargetTypeKey: "no.target", DisplayOrder: 1}
	targetPowerZone     = TargetTypeDTO{WorkoutTargetTypeID: 2, WorkoutTargetTypeKey: "power.zone", DisplayOrder: 2}
	targetCadence       = TargetTypeDTO{WorkoutTargetTypeID: 3, WorkoutTargetTypeKey: "cadence", DisplayOrder: 3}
	targetHeartRateZone = TargetTypeDTO{WorkoutTargetTypeID: 4, WorkoutTargetTypeKey: "heart.rate.zone", DisplayOrder: 4}
	targetSpeedZone     = TargetTypeDTO{WorkoutTargetTypeID: 5, WorkoutTargetTypeKey: "speed.zone", DisplayOrder: 5}
	targetPaceZone      = TargetTypeDTO{WorkoutTargetTypeID: 6, WorkoutTargetTypeKey: "pace.zone", DisplayOrder: 6}
)

// ToDTO converts a validated workout. Step orders are 1-based and numbered
// depth first across the whole workout, repeat groups included.
func ToDTO(w Workout) DTO {
	sport, ok := sportTypes[w.Sport]
	if !ok {
		sport = sportTypes[SportOther]
	}

	b := &dtoBuilder{}
	steps := b.steps(w.Steps, nil)

	return DTO{
		WorkoutName:               strings.TrimSpace(w.Name),
		Description:               w.Description,
		SportType:                 sport,
		EstimatedDurationInSecs:   int(w.EstimatedDuration()),
		EstimatedDistanceInMeters: w.EstimatedDistance(),
		WorkoutSegments: []SegmentDTO{
			{
				SegmentOrder: 1,
				SportType:    sport,
				WorkoutSteps: steps,
			},
		},
	}
}

type dtoBuilder struct {
	order       int
	repeatCount int
}

func (b *dtoBuilder) steps(steps []Step, childStepID *int) []StepDTO {
	dtos := make([]StepDTO, 0, len(steps))
	for _, step := range steps {
		b.order++
		if step.IsRepeat() {
			dtos = append(dtos, b.repeat(step))
			continue
		}
		dtos = append(dtos, executable(step, b.order, childStepID))
	}
	return dtos
}

func (b *dtoBuilder) repeat(step Step) StepDTO {
	b.repeatCount++
	childStepID := b.repeatCount
	iterations := float64(step.Repeat)

	dto := StepDTO{
		Type:               StepTypeRepeatGroup,
		StepOrder:          b.order,
		ChildStepID:        &childStepID,
		StepType:           stepTypeRepeat,
		EndCondition:       conditionIterations,
		EndConditionValue:  &iterations,
		NumberOfIterations: step.Repeat,
	}
	dto.WorkoutSteps = b.steps(step.Steps, &childStepID)
	return dto
}

func executable(step Step, order int, childStepID *int) StepDTO {
	dto := StepDTO{
		Type:        StepTypeExecutable,
		StepOrder:   order,
		ChildStepID: childStepID,
		Description: stepDescription(step),
		StepType:    stepType(step.Intensity),
	}

	switch step.Duration.Kind {
	case DurationTime:
		dto.EndCondition = conditionTime
	case DurationDistance:
		dto.EndCondition = conditionDistance
	case DurationCalories:
		dto.EndCondition = conditionCalories
	case DurationHeartRateBelow:
		dto.EndCondition = conditionHeartRate
		dto.EndConditionCompare = "lt"
	case DurationHeartRateAbove:
		dto.EndCondition = conditionHeartRate
		dto.EndConditionCompare = "gt"
	default:
		dto.EndCondition = conditionLap
	}
	if step.Duration.Kind.Bounded() {
		value := step.Duration.Value
		dto.EndConditionValue = &value
	}

	applyTarget(&dto, step.Target)
	return dto
}

func applyTarget(dto *StepDTO, target Target) {
	low, high, zone := target.Low, target.High, target.Zone

	switch target.Kind {
	case TargetHeartRate:
		dto.TargetType = targetType(targetHeartRateZone)
	case TargetHeartRateZone:
		dto.TargetType = targetType(targetHeartRateZone)
		dto.ZoneNumber = &zone
		return
	case TargetSpeed:
		dto.TargetType = targetType(targetSpeedZone)
	case TargetPace:
		dto.TargetType = targetType(targetPaceZone)
	case TargetCadence:
		dto.TargetType = targetType(targetCadence)
	case TargetPower:
		dto.TargetType = targetType(targetPowerZone)
	case TargetPowerZone:
		dto.TargetType = targetType(targetPowerZone)
		dto.ZoneNumber = &zone
		return
	default:
		dto.TargetType = targetType(targetNone)
		return
	}

	dto.TargetValueOne = &low
	dto.TargetValueTwo = &high
}

func stepType(intensity Intensity) StepTypeDTO {
	switch intensity {
	case IntensityWarmup:
		return stepTypeWarmup
	case IntensityCooldown:
		return stepTypeCooldown
	case IntensityRecovery:
		return stepTypeRecovery
	case IntensityRest:
		return stepTypeRest
	default:
		return stepTypeInterval
	}
}

func stepDescription(step Step) string {
	name := strings.TrimSpace(step.Name)
	desc := strings.TrimSpace(step.Description)
	switch {
	case name == "":
		return desc
	case desc == "":
		return name
	default:
		return name + ": " + desc
	}
}

func targetType(t TargetTypeDTO) *TargetTypeDTO {
	return &t
}
