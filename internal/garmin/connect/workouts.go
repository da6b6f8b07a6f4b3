package connect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/2beens/garminpartner/internal/workout"
)

const (
	workoutPath  = "/workout-service/workout"
	workoutsPath = "/workout-service/workouts"
	schedulePath = "/workout-service/schedule"
	lastUsedPath = "/device-service/deviceservice/mylastused"

	OrderByCreatedDate = "CREATED_DATE"
	OrderByUpdatedDate = "UPDATE_DATE"
	OrderByName        = "WORKOUT_NAME"
	OrderSeqAsc        = "ASC"
	OrderSeqDesc       = "DESC"

	DateLayout = "2006-01-02"
)

var ErrWorkoutIDRequired = errors.New("workout id is required")

type ListParams struct {
	Start              int
	Limit              int
	OrderBy            string
	OrderSeq           string
	MyWorkoutsOnly     bool
	SharedWorkoutsOnly bool
	IncludeAtp         bool
}

func (p ListParams) values() url.Values {
	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}
	orderBy := p.OrderBy
	if orderBy == "" {
		orderBy = OrderByCreatedDate
	}
	orderSeq := p.OrderSeq
	if orderSeq == "" {
		orderSeq = OrderSeqDesc
	}

	return url.Values{
		"start":              {strconv.Itoa(p.Start)},
		"limit":              {strconv.Itoa(limit)},
		"orderBy":            {orderBy},
		"orderSeq":           {orderSeq},
		"myWorkoutsOnly":     {strconv.FormatBool(p.MyWorkoutsOnly)},
		"sharedWorkoutsOnly": {strconv.FormatBool(p.SharedWorkoutsOnly)},
		"includeAtp":         {strconv.FormatBool(p.IncludeAtp)},
	}
}

type ScheduledWorkout struct {
	WorkoutScheduleID int64        `json:"workoutScheduleId"`
	CalendarDate      string       `json:"calendarDate"`
	Workout           *workout.DTO `json:"workout,omitempty"`
}

type Device struct {
	UserDeviceID   int64  `json:"userDeviceId"`
	ProfileNumber  int64  `json:"userProfileNumber"`
	ApplicationKey string `json:"lastUsedDeviceApplicationKey"`
	Name           string `json:"lastUsedDeviceName"`
	UploadTime     int64  `json:"lastUsedDeviceUploadTime"`
	ImageURL       string `json:"imageUrl"`
}

// LastUpload is the device's last upload time, zero when unknown.
func (d Device) LastUpload() time.Time {
	if d.UploadTime <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(d.UploadTime)
}

func (c *Client) CreateWorkout(ctx context.Context, dto workout.DTO) (*workout.DTO, error) {
	dto.WorkoutID = 0
	created := &workout.DTO{}
	err := c.call(ctx, request{
		operation: "create_workout",
		method:    http.MethodPost,
		path:      workoutPath,
		body:      dto,
	}, created)
	if err != nil {
		return nil, err
	}
	if created.WorkoutID == 0 {
		return nil, fmt.Errorf("create_workout: response carries no workout id")
	}
	return created, nil
}

// UpdateWorkout replaces the workout identified by dto.WorkoutID.
func (c *Client) UpdateWorkout(ctx context.Context, dto workout.DTO) error {
	if dto.WorkoutID == 0 {
		return ErrWorkoutIDRequired
	}
	return c.call(ctx, request{
		operation: "update_workout",
		method:    http.MethodPut,
		path:      workoutPath + "/" + strconv.FormatInt(dto.WorkoutID, 10),
		body:      dto,
	}, nil)
}

func (c *Client) GetWorkout(ctx context.Context, id int64) (*workout.DTO, error) {
	if id == 0 {
		return nil, ErrWorkoutIDRequired
	}
	dto := &workout.DTO{}
	err := c.call(ctx, request{
		operation: "get_workout",
		method:    http.MethodGet,
		path:      workoutPath + "/" + strconv.FormatInt(id, 10),
	}, dto)
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (c *Client) ListWorkouts(ctx context.Context, params ListParams) ([]workout.DTO, error) {
	var workouts []workout.DTO
	err := c.call(ctx, request{
		operation: "list_workouts",
		method:    http.MethodGet,
		path:      workoutsPath,
		query:     params.values(),
	}, &workouts)
	if err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *Client) DeleteWorkout(ctx context.Context, id int64) error {
	if id == 0 {
		return ErrWorkoutIDRequired
	}
	return c.call(ctx, request{
		operation: "delete_workout",
		method:    http.MethodDelete,
		path:      workoutPath + "/" + strconv.FormatInt(id, 10),
	}, nil)
}

// ScheduleWorkout puts the workout on the calendar for the given day.
func (c *Client) ScheduleWorkout(ctx context.Context, id int64, date time.Time) (*ScheduledWorkout, error) {
	if id == 0 {
		return nil, ErrWorkoutIDRequired
	}
	scheduled := &ScheduledWorkout{}
	err := c.call(ctx, request{
		operation: "schedule_workout",
		method:    http.MethodPost,
		path:      schedulePath + "/" + strconv.FormatInt(id, 10),
		body:      map[string]string{"date": date.Format(DateLayout)},
	}, scheduled)
	if err != nil {
		return nil, err
	}
	return scheduled, nil
}

func (c *Client) GetDeviceLastUsed(ctx context.Context) (*Device, error) {
	device := &Device{}
	err := c.call(ctx, request{
		operation: "device_last_used",
		method:    http.MethodGet,
		path:      lastUsedPath,
	}, device)
	if err != nil {
		return nil, err
	}
	return device, nil
}
