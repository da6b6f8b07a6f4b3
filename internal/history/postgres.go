package history

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/garminpartner/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const postgresSchema = `
CREATE SCHEMA IF NOT EXISTS garminpartner;
CREATE TABLE IF NOT EXISTS garminpartner.upload (
	id            UUID PRIMARY KEY,
	workout_id    BIGINT NOT NULL,
	name          TEXT NOT NULL,
	sport         TEXT NOT NULL,
	steps         INTEGER NOT NULL DEFAULT 0,
	uploaded_at   TIMESTAMPTZ NOT NULL,
	scheduled_for DATE
);
CREATE INDEX IF NOT EXISTS upload_uploaded_at_idx ON garminpartner.upload (uploaded_at DESC);`

var _ Repo = (*PostgresRepo)(nil)

type PostgresRepo struct {
	db *pgxpool.Pool
}

// NewPostgresRepo takes ownership of the pool and makes sure the schema exists.
func NewPostgresRepo(ctx context.Context, db *pgxpool.Pool) (*PostgresRepo, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}
	return &PostgresRepo{db: db}, nil
}

func (r *PostgresRepo) Add(ctx context.Context, upload *Upload) (err error) {
	ctx, span := tracing.StartSpan(ctx, "history.postgres.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	prepare(upload)
	span.SetAttributes(attribute.Int64("workout.id", upload.WorkoutID))

	scheduled := pgtype.Date{}
	if upload.ScheduledFor != nil {
		scheduled = pgtype.Date{Time: *upload.ScheduledFor, Valid: true}
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO garminpartner.upload (id, workout_id, name, sport, steps, uploaded_at, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		upload.ID, upload.WorkoutID, upload.Name, upload.Sport, upload.Steps, upload.UploadedAt, scheduled,
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, limit int) (_ []Upload, err error) {
	ctx, span := tracing.StartSpan(ctx, "history.postgres.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, workout_id, name, sport, steps, uploaded_at, scheduled_for
		FROM garminpartner.upload
		ORDER BY uploaded_at DESC
		LIMIT $1;`,
		listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}

	uploads, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Upload, error) {
		var (
			upload    Upload
			scheduled pgtype.Date
		)
		if err := row.Scan(
			&upload.ID, &upload.WorkoutID, &upload.Name, &upload.Sport,
			&upload.Steps, &upload.UploadedAt, &scheduled,
		); err != nil {
			return Upload{}, err
		}
		upload.UploadedAt = upload.UploadedAt.UTC()
		if scheduled.Valid {
			date := time.Date(scheduled.Time.Year(), scheduled.Time.Month(), scheduled.Time.Day(), 0, 0, 0, 0, time.UTC)
			upload.ScheduledFor = &date
		}
		return upload, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect uploads: %w", err)
	}
	return uploads, nil
}

func (r *PostgresRepo) Close() error {
	r.db.Close()
	return nil
}
