package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/config"
)

const (
	dbMaxConnIdleTime   = 5 * time.Minute
	dbHealthCheckPeriod = 30 * time.Second
	dbConnectTimeout    = 5 * time.Second
)

// NewPostgresPool opens the pool shared by the postgres history backend
// and the quiz_results archive. Callers open it only when
// cfg.NeedsPostgres reports true.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("component", "database").
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Int32("max_conns", poolCfg.MaxConns).
		Str("history_backend", cfg.HistoryBackend).
		Bool("result_archive", cfg.ResultArchive).
		Msg("PostgreSQL connected")

	return pool, nil
}

// poolConfig derives pool settings from cfg. Sessions carry the service
// name as application_name so they can be told apart in pg_stat_activity.
func poolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxDBConns > 0 {
		poolCfg.MaxConns = cfg.MaxDBConns
	}
	poolCfg.MinConns = min(max(cfg.MinDBConns, 0), poolCfg.MaxConns)
	poolCfg.MaxConnIdleTime = dbMaxConnIdleTime
	poolCfg.HealthCheckPeriod = dbHealthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = dbConnectTimeout

	if cfg.ServiceName != "" {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ServiceName
	}
	return poolCfg, nil
}
