package uploader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/garminpartner/internal/auth"
	"github.com/2beens/garminpartner/internal/garmin/connect"
	"github.com/2beens/garminpartner/internal/history"
	"github.com/2beens/garminpartner/internal/session"
	"github.com/2beens/garminpartner/internal/telemetry/metrics"
	"github.com/2beens/garminpartner/internal/telemetry/tracing"
	"github.com/2beens/garminpartner/internal/workout"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const MessageNotAuthenticated = "not authenticated, please log in"

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=uploader_test

type authService interface {
	GetValidAuth(ctx context.Context) (*session.Session, error)
	Refresh(ctx context.Context) (*session.Session, error)
}

type workoutsClient interface {
	CreateWorkout(ctx context.Context, dto workout.DTO) (*workout.DTO, error)
	UpdateWorkout(ctx context.Context, dto workout.DTO) error
	ScheduleWorkout(ctx context.Context, id int64, date time.Time) (*connect.ScheduledWorkout, error)
}

type historyRepo interface {
	Add(ctx context.Context, upload *history.Upload) error
}

type Options struct {
	// ScheduleOn puts the uploaded workout on the calendar for that day.
	ScheduleOn *time.Time
	// ReplaceWorkoutID overwrites an existing workout instead of creating one.
	ReplaceWorkoutID int64
}

type Result struct {
	IsSuccess bool
	WorkoutID int64
	Message   string
}

type Service struct {
	auth           authService
	workouts       workoutsClient
	history        historyRepo
	metricsManager *metrics.Manager
}

func NewService(
	auth authService,
	workouts workoutsClient,
	historyRepo historyRepo,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		auth:           auth,
		workouts:       workouts,
		history:        historyRepo,
		metricsManager: metricsManager,
	}
}

// UploadWorkout validates, sends and optionally schedules the workout.
// Failures are reported in the Result, never as an error.
func (s *Service) UploadWorkout(ctx context.Context, w workout.Workout, opts Options) (result Result) {
	ctx, span := tracing.StartSpan(ctx, "uploader.upload")
	span.SetAttributes(
		attribute.String("workout.name", w.Name),
		attribute.String("workout.sport", string(w.Sport)),
	)
	defer func() {
		var err error
		if !result.IsSuccess {
			err = errors.New(result.Message)
		}
		s.metricsManager.CounterUploads.WithLabelValues(metrics.Result(err)).Inc()
		span.SetAttributes(attribute.Int64("workout.id", result.WorkoutID))
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := w.Validate(); err != nil {
		return Result{Message: fmt.Sprintf("Validation error: %s", err)}
	}

	if err := s.authenticate(ctx); err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return Result{Message: MessageNotAuthenticated}
		}
		return Result{Message: fmt.Sprintf("Upload error: %s", err)}
	}

	workoutID, err := s.send(ctx, w, opts.ReplaceWorkoutID)
	if errors.Is(err, connect.ErrUnauthorized) || errors.Is(err, auth.ErrNotAuthenticated) {
		return Result{Message: MessageNotAuthenticated}
	}
	if err != nil {
		return Result{Message: fmt.Sprintf("Upload error: %s", err)}
	}
	log.Infof("workout [%s] uploaded with id %d", w.Name, workoutID)

	message := fmt.Sprintf("Uploaded workout %q (id %d)", w.Name, workoutID)
	if opts.ScheduleOn != nil {
		if _, err := s.workouts.ScheduleWorkout(ctx, workoutID, *opts.ScheduleOn); err != nil {
			return Result{
				WorkoutID: workoutID,
				Message:   fmt.Sprintf("Schedule error: workout %d uploaded but not scheduled: %s", workoutID, err),
			}
		}
		message += ", scheduled for " + opts.ScheduleOn.Format(connect.DateLayout)
	}

	s.record(ctx, w, workoutID, opts.ScheduleOn)

	return Result{
		IsSuccess: true,
		WorkoutID: workoutID,
		Message:   message,
	}
}

// authenticate makes sure a usable access token is stored. Only
// auth.ErrNotAuthenticated means the user has to log in again.
func (s *Service) authenticate(ctx context.Context) error {
	sess, err := s.auth.GetValidAuth(ctx)
	if err != nil {
		log.Errorf("get stored auth: %s", err)
		return err
	}
	if sess != nil {
		return nil
	}

	if _, err := s.auth.Refresh(ctx); err != nil {
		log.Debugf("refresh before upload: %s", err)
		return err
	}
	return nil
}

func (s *Service) send(ctx context.Context, w workout.Workout, replaceID int64) (int64, error) {
	dto := workout.ToDTO(w)
	if replaceID != 0 {
		dto.WorkoutID = replaceID
		if err := s.workouts.UpdateWorkout(ctx, dto); err != nil {
			return 0, err
		}
		return replaceID, nil
	}

	created, err := s.workouts.CreateWorkout(ctx, dto)
	if err != nil {
		return 0, err
	}
	return created.WorkoutID, nil
}

func (s *Service) record(ctx context.Context, w workout.Workout, workoutID int64, scheduledFor *time.Time) {
	upload := &history.Upload{
		WorkoutID:    workoutID,
		Name:         w.Name,
		Sport:        string(w.Sport),
		Steps:        w.StepCount(),
		ScheduledFor: scheduledFor,
	}
	if err := s.history.Add(ctx, upload); err != nil {
		log.Errorf("failed to record upload of workout %d: %s", workoutID, err)
	}
}
