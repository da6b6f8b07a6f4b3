package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/2beens/garminpartner/internal/history/migrations"
	"github.com/2beens/garminpartner/internal/telemetry/tracing"
	"github.com/2beens/garminpartner/pkg"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	_ "modernc.org/sqlite"
)

var _ Repo = (*SQLiteRepo)(nil)

type SQLiteRepo struct {
	db *sql.DB
}

// NewSQLiteRepo opens (creating if needed) the database file and applies
// any pending migrations.
func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	if path != ":memory:" {
		if err := pkg.EnsureDir(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time, sqlite would report SQLITE_BUSY otherwise
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepo{db: db}
	if err := repo.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	log.Debugf("sqlite history opened: %s", path)
	return repo, nil
}

func (r *SQLiteRepo) applyMigrations() error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return err
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (r *SQLiteRepo) Add(ctx context.Context, upload *Upload) (err error) {
	ctx, span := tracing.StartSpan(ctx, "history.sqlite.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	prepare(upload)
	span.SetAttributes(attribute.Int64("workout.id", upload.WorkoutID))

	var scheduled sql.NullString
	if upload.ScheduledFor != nil {
		scheduled = sql.NullString{String: upload.ScheduledFor.Format(dateLayout), Valid: true}
	}

	_, err = r.db.ExecContext(
		ctx,
		`INSERT INTO uploads (id, workout_id, name, sport, steps, uploaded_at, scheduled_for) VALUES (?, ?, ?, ?, ?, ?, ?);`,
		upload.ID.String(), upload.WorkoutID, upload.Name, upload.Sport, upload.Steps,
		upload.UploadedAt.UnixMilli(), scheduled,
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) List(ctx context.Context, limit int) (_ []Upload, err error) {
	ctx, span := tracing.StartSpan(ctx, "history.sqlite.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, workout_id, name, sport, steps, uploaded_at, scheduled_for
		FROM uploads
		ORDER BY uploaded_at DESC
		LIMIT ?;`,
		listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var (
			id         string
			uploadedAt int64
			scheduled  sql.NullString
			upload     Upload
		)
		if err := rows.Scan(&id, &upload.WorkoutID, &upload.Name, &upload.Sport, &upload.Steps, &uploadedAt, &scheduled); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}

		if upload.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse upload id %q: %w", id, err)
		}
		upload.UploadedAt = time.UnixMilli(uploadedAt).UTC()
		if scheduled.Valid {
			date, err := time.Parse(dateLayout, scheduled.String)
			if err != nil {
				return nil, fmt.Errorf("parse scheduled date %q: %w", scheduled.String, err)
			}
			upload.ScheduledFor = &date
		}
		uploads = append(uploads, upload)
	}

	return uploads, rows.Err()
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}
