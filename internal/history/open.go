package history

import (
	"context"
	"fmt"

	"github.com/2beens/garminpartner/internal/config"
	"github.com/2beens/garminpartner/internal/db"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

type OpenParams struct {
	Config          *config.Config
	TracingEnabled  bool
	MetricsRegistry prometheus.Registerer
}

// Open returns the repo selected by the history driver setting.
func Open(ctx context.Context, params OpenParams) (Repo, error) {
	cfg := params.Config
	switch cfg.HistoryDriver {
	case config.HistoryNone, "":
		return NopRepo{}, nil
	case config.HistorySQLite:
		return NewSQLiteRepo(cfg.SQLitePath)
	case config.HistoryPostgres:
		pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:          cfg.PostgresHost,
			DBPort:          cfg.PostgresPort,
			DBName:          cfg.PostgresDBName,
			TracingEnabled:  params.TracingEnabled,
			MetricsRegistry: params.MetricsRegistry,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			log.Warnf("failed to ping history db: %s", err)
		}
		repo, err := NewPostgresRepo(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.HistoryDriver)
	}
}
