package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/2beens/garminpartner/internal/auth"
	"github.com/2beens/garminpartner/internal/garmin/connect"
	"github.com/2beens/garminpartner/internal/uploader"
	"github.com/2beens/garminpartner/internal/workout"

	log "github.com/sirupsen/logrus"
)

const timeLayout = "2006-01-02 15:04:05"

var ErrUploadFailed = errors.New("upload failed")

type UploadParams struct {
	// File is a workout TOML file; Template names a built-in workout instead.
	File       string
	Template   string
	ScheduleOn string
	ReplaceID  int64
}

// Login authenticates with the given credentials, falling back to the configured ones.
func (a *App) Login(ctx context.Context, email, password string) error {
	if email == "" {
		email = a.cfg.Email
	}
	if password == "" {
		password = a.cfg.Password
	}

	sess, err := a.auth.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "logged in as %s, token valid until %s\n",
		subjectOrUnknown(sess.Subject), sess.OAuth2.ExpiresAt.Local().Format(timeLayout))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.ClearAuth(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

// Status prints the stored session, refreshing it when it has expired.
func (a *App) Status(ctx context.Context) error {
	sess, err := a.auth.GetValidAuth(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		sess, err = a.auth.Refresh(ctx)
		if errors.Is(err, auth.ErrNotAuthenticated) {
			log.Debugf("status refresh: %s", err)
			fmt.Fprintln(a.out, uploader.MessageNotAuthenticated)
			return nil
		}
		if err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "user:\t%s\n", subjectOrUnknown(sess.Subject))
	fmt.Fprintf(tw, "token type:\t%s\n", sess.OAuth2.Type())
	fmt.Fprintf(tw, "token issued:\t%s\n", sess.OAuth2.IssuedAt.Local().Format(timeLayout))
	fmt.Fprintf(tw, "token expires:\t%s\n", sess.OAuth2.ExpiresAt.Local().Format(timeLayout))
	if !sess.OAuth2.RefreshExpiresAt.IsZero() {
		fmt.Fprintf(tw, "refresh expires:\t%s\n", sess.OAuth2.RefreshExpiresAt.Local().Format(timeLayout))
	}
	if !sess.OAuth1.ExpiresAt.IsZero() {
		fmt.Fprintf(tw, "login expires:\t%s\n", sess.OAuth1.ExpiresAt.Local().Format(timeLayout))
	}
	if !sess.OAuth1.MFAExpiresAt.IsZero() {
		fmt.Fprintf(tw, "mfa expires:\t%s\n", sess.OAuth1.MFAExpiresAt.Local().Format(timeLayout))
	}
	return tw.Flush()
}

func (a *App) Upload(ctx context.Context, params UploadParams) error {
	w, err := loadWorkout(params.File, params.Template)
	if err != nil {
		return err
	}

	opts := uploader.Options{ReplaceWorkoutID: params.ReplaceID}
	if params.ScheduleOn != "" {
		date, err := parseDate(params.ScheduleOn)
		if err != nil {
			return err
		}
		opts.ScheduleOn = &date
	}

	result := a.uploader.UploadWorkout(ctx, w, opts)
	fmt.Fprintln(a.out, result.Message)
	if !result.IsSuccess {
		return ErrUploadFailed
	}
	fmt.Fprintln(a.out, a.workoutURL(result.WorkoutID))
	return nil
}

// Preview prints the Connect payload for a workout without sending it.
func (a *App) Preview(file, template string) error {
	w, err := loadWorkout(file, template)
	if err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return fmt.Errorf("invalid workout: %w", err)
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(workout.ToDTO(w))
}

func (a *App) Templates() {
	for _, name := range workout.TemplateNames() {
		w, _ := workout.Template(name)
		fmt.Fprintf(a.out, "%-12s %s (%d steps)\n", name, w.Name, w.StepCount())
	}
}

// List prints the workouts stored in the account.
func (a *App) List(ctx context.Context, params connect.ListParams) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}

	workouts, err := a.connect.ListWorkouts(ctx, params)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSPORT\tUPDATED")
	for _, w := range workouts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", w.WorkoutID, w.WorkoutName, w.SportType.SportTypeKey, w.UpdatedDate)
	}
	return tw.Flush()
}

func (a *App) Delete(ctx context.Context, id int64) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}
	if err := a.connect.DeleteWorkout(ctx, id); err != nil {
		var apiErr *connect.APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return fmt.Errorf("workout %d not found", id)
		}
		return err
	}
	fmt.Fprintf(a.out, "deleted workout %d\n", id)
	return nil
}

func (a *App) Schedule(ctx context.Context, id int64, day string) error {
	date, err := parseDate(day)
	if err != nil {
		return err
	}
	if err := a.requireAuth(ctx); err != nil {
		return err
	}

	scheduled, err := a.connect.ScheduleWorkout(ctx, id, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "scheduled workout %d for %s\n", id, scheduled.CalendarDate)
	return nil
}

func (a *App) Device(ctx context.Context) error {
	if err := a.requireAuth(ctx); err != nil {
		return err
	}

	device, err := a.connect.GetDeviceLastUsed(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "device:\t%s\n", device.Name)
	fmt.Fprintf(tw, "device id:\t%d\n", device.UserDeviceID)
	if last := device.LastUpload(); !last.IsZero() {
		fmt.Fprintf(tw, "last upload:\t%s\n", last.Local().Format(timeLayout))
	}
	return tw.Flush()
}

func (a *App) History(ctx context.Context, limit int) error {
	uploads, err := a.history.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		fmt.Fprintln(a.out, "no uploads recorded")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UPLOADED\tWORKOUT\tNAME\tSPORT\tSTEPS\tSCHEDULED")
	for _, u := range uploads {
		scheduled := "-"
		if u.ScheduledFor != nil {
			scheduled = u.ScheduledFor.Format(connect.DateLayout)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\n",
			u.UploadedAt.Local().Format(timeLayout), u.WorkoutID, u.Name, u.Sport, u.Steps, scheduled)
	}
	return tw.Flush()
}

func (a *App) requireAuth(ctx context.Context) error {
	sess, err := a.auth.GetValidAuth(ctx)
	if err != nil {
		return err
	}
	if sess != nil {
		return nil
	}
	_, err = a.auth.Refresh(ctx)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		log.Debugf("refresh before api call: %s", err)
		return errors.New(uploader.MessageNotAuthenticated)
	}
	return err
}

func (a *App) workoutURL(id int64) string {
	return fmt.Sprintf("%s/modern/workout/%d", strings.TrimRight(a.cfg.ConnectURL, "/"), id)
}

func loadWorkout(file, template string) (workout.Workout, error) {
	switch {
	case file != "" && template != "":
		return workout.Workout{}, errors.New("use either a workout file or a template, not both")
	case file != "":
		return workout.Load(file)
	case template != "":
		return workout.Template(template)
	default:
		return workout.Workout{}, errors.New("a workout file or a template is required")
	}
}

func parseDate(day string) (time.Time, error) {
	switch strings.ToLower(day) {
	case "today":
		return today(), nil
	case "tomorrow":
		return today().AddDate(0, 0, 1), nil
	}
	date, err := time.ParseInLocation(connect.DateLayout, day, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", day, err)
	}
	return date, nil
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func subjectOrUnknown(subject string) string {
	if subject == "" {
		return "unknown user"
	}
	return subject
}
