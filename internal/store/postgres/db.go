package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// SlowQuery is the duration above which a query is logged at warn level.
	// Zero disables query logging.
	SlowQuery time.Duration
	Log       *slog.Logger
}

// Open connects through the pgx stdlib driver and checks the connection
// before returning.
func Open(ctx context.Context, databaseURL string, pool PoolConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := bun.NewDB(sqlDB, pgdialect.New())
	if pool.SlowQuery > 0 && pool.Log != nil {
		db.AddQueryHook(&queryLogger{
			log:  pool.Log.With(slog.String("component", "postgres")),
			slow: pool.SlowQuery,
		})
	}
	return db, nil
}

func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// queryLogger reports slow and failed queries. Statement text is logged
// without arguments.
type queryLogger struct {
	log  *slog.Logger
	slow time.Duration
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(ctx context.Context, ev *bun.QueryEvent) {
	took := time.Since(ev.StartTime)
	switch {
	case ev.Err != nil && !errors.Is(ev.Err, sql.ErrNoRows):
		h.log.LogAttrs(ctx, slog.LevelDebug, "query failed",
			slog.String("op", ev.Operation()),
			slog.Duration("took", took),
			slog.Any("err", ev.Err),
		)
	case took >= h.slow:
		h.log.LogAttrs(ctx, slog.LevelWarn, "slow query",
			slog.String("op", ev.Operation()),
			slog.Duration("took", took),
			slog.String("query", ev.QueryTemplate),
		)
	}
}
