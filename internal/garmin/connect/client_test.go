package connect_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/2beens/garminpartner/internal/garmin/connect"
	"github.com/2beens/garminpartner/internal/telemetry/metrics"
	"github.com/2beens/garminpartner/internal/workout"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/oauth2"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func newTestClient(t *testing.T, handler http.Handler, maxRetries uint64) (*connect.Client, *metrics.Manager) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	metricsManager := metrics.NewTestManager()
	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "at"}))
	return connect.NewClient(connect.ClientParams{
		HTTPClient:     httpClient,
		BaseURL:        srv.URL,
		UserAgent:      "test-agent",
		MaxRetries:     maxRetries,
		RetryInitial:   time.Millisecond,
		CacheSizeMB:    1,
		CacheTTL:       time.Minute,
		MetricsManager: metricsManager,
	}), metricsManager
}

func TestClient_CreateWorkout(t *testing.T) {
	var got workout.DTO
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/workout-service/workout", r.URL.Path)
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		got.WorkoutID = 4242
		json.NewEncoder(w).Encode(got)
	})
	client, metricsManager := newTestClient(t, handler, 0)

	dto := workout.ToDTO(workout.EasyRun())
	dto.WorkoutID = 99
	created, err := client.CreateWorkout(context.Background(), dto)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), created.WorkoutID)
	assert.Equal(t, "Easy 5K Run", got.WorkoutName)
	assert.Equal(t, 1, testutil.CollectAndCount(metricsManager.HistAPIRequestDuration))
}

func TestClient_CreateWorkout_NoID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"workoutName":"x"}`))
	})
	client, _ := newTestClient(t, handler, 0)

	_, err := client.CreateWorkout(context.Background(), workout.ToDTO(workout.EasyRun()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no workout id")
}

func TestClient_GetWorkout_CachedUntilMutation(t *testing.T) {
	var gets, deletes atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets.Add(1)
			assert.Equal(t, "/workout-service/workout/7", r.URL.Path)
			w.Write([]byte(`{"workoutId":7,"workoutName":"Tempo"}`))
		case http.MethodDelete:
			deletes.Add(1)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	client, metricsManager := newTestClient(t, handler, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		dto, err := client.GetWorkout(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "Tempo", dto.WorkoutName)
	}
	assert.Equal(t, int32(1), gets.Load())
	assert.Equal(t, float64(2), testutil.ToFloat64(metricsManager.CounterCacheHits))

	require.NoError(t, client.DeleteWorkout(ctx, 7))
	assert.Equal(t, int32(1), deletes.Load())

	_, err := client.GetWorkout(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gets.Load())
}

func TestClient_SubSecondCacheTTLStillExpires(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		w.Write([]byte(`{"workoutId":7,"workoutName":"Tempo"}`))
	}))
	defer srv.Close()

	client := connect.NewClient(connect.ClientParams{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		CacheSizeMB:    1,
		CacheTTL:       500 * time.Millisecond,
		MetricsManager: metrics.NewTestManager(),
	})
	ctx := context.Background()

	_, err := client.GetWorkout(ctx, 7)
	require.NoError(t, err)
	_, err = client.GetWorkout(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(1), gets.Load())

	// freecache works in whole seconds, the entry is gone after at most two
	time.Sleep(2100 * time.Millisecond)
	_, err = client.GetWorkout(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gets.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"lastUsedDeviceName":"Forerunner 265","userDeviceId":31,"lastUsedDeviceUploadTime":1760000000000}`))
	})
	client, _ := newTestClient(t, handler, 3)

	device, err := client.GetDeviceLastUsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Forerunner 265", device.Name)
	assert.Equal(t, int64(31), device.UserDeviceID)
	assert.Equal(t, time.UnixMilli(1760000000000), device.LastUpload())
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	})
	client, _ := newTestClient(t, handler, 1)

	_, err := client.ListWorkouts(context.Background(), connect.ListParams{})
	require.Error(t, err)

	var apiErr *connect.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "list_workouts", apiErr.Operation)
	assert.Equal(t, "list_workouts: status 429: slow down", apiErr.Error())
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PermanentErrors(t *testing.T) {
	var calls atomic.Int32
	status := http.StatusBadRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
	})
	client, _ := newTestClient(t, handler, 3)
	ctx := context.Background()

	err := client.UpdateWorkout(ctx, workout.DTO{WorkoutID: 5, WorkoutName: "x"})
	var apiErr *connect.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.False(t, apiErr.NotFound())
	assert.Equal(t, int32(1), calls.Load())

	status = http.StatusNotFound
	_, err = client.GetWorkout(ctx, 5)
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.NotFound())
	assert.Equal(t, int32(2), calls.Load())

	status = http.StatusUnauthorized
	_, err = client.GetDeviceLastUsed(ctx)
	assert.ErrorIs(t, err, connect.ErrUnauthorized)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RequiresID(t *testing.T) {
	client := connect.NewClient(connect.ClientParams{})
	ctx := context.Background()

	assert.ErrorIs(t, client.UpdateWorkout(ctx, workout.DTO{}), connect.ErrWorkoutIDRequired)
	assert.ErrorIs(t, client.DeleteWorkout(ctx, 0), connect.ErrWorkoutIDRequired)
	_, err := client.GetWorkout(ctx, 0)
	assert.ErrorIs(t, err, connect.ErrWorkoutIDRequired)
	_, err = client.ScheduleWorkout(ctx, 0, time.Now())
	assert.ErrorIs(t, err, connect.ErrWorkoutIDRequired)
}

func TestClient_ListWorkouts(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/workout-service/workouts", r.URL.Path)
		assert.Equal(t, "10", q.Get("start"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "WORKOUT_NAME", q.Get("orderBy"))
		assert.Equal(t, "DESC", q.Get("orderSeq"))
		assert.Equal(t, "true", q.Get("myWorkoutsOnly"))
		w.Write([]byte(`[{"workoutId":1,"workoutName":"A","sportType":{"sportTypeId":1,"sportTypeKey":"running"}},{"workoutId":2,"workoutName":"B"}]`))
	})
	client, _ := newTestClient(t, handler, 0)

	workouts, err := client.ListWorkouts(context.Background(), connect.ListParams{
		Start:          10,
		Limit:          5,
		OrderBy:        connect.OrderByName,
		MyWorkoutsOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, workouts, 2)
	assert.Equal(t, "running", workouts[0].SportType.SportTypeKey)
	assert.Equal(t, int64(2), workouts[1].WorkoutID)
}

func TestClient_ScheduleWorkout(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/workout-service/schedule/42", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"date":"2026-10-20"}`, string(body))
		w.Write([]byte(`{"workoutScheduleId":900,"calendarDate":"2026-10-20"}`))
	})
	client, _ := newTestClient(t, handler, 0)

	scheduled, err := client.ScheduleWorkout(context.Background(), 42, time.Date(2026, 10, 20, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(900), scheduled.WorkoutScheduleID)
	assert.Equal(t, "2026-10-20", scheduled.CalendarDate)
}

func TestClient_CanceledContext(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	client, _ := newTestClient(t, handler, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetDeviceLastUsed(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := connect.NewClient(connect.ClientParams{
		BaseURL:      baseURL,
		MaxRetries:   1,
		RetryInitial: time.Millisecond,
	})
	_, err := client.GetDeviceLastUsed(context.Background())
	require.Error(t, err)

	var apiErr *connect.APIError
	assert.False(t, errors.As(err, &apiErr))
}
