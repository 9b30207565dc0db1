// Package database owns the PostgreSQL pool shared by the catalogue,
// knowledge, prompt and session stores.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/estimator/pkg/lifecycle"
)

const (
	pingInterval    = 250 * time.Millisecond
	maxPingInterval = 5 * time.Second
)

// System exposes the pool and reports readiness once it answers a ping.
type System interface {
	lifecycle.ReadinessChecker

	Connection() *sql.DB
	// Start registers the connect and close hooks plus the "database"
	// readiness check.
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
	ready       atomic.Bool
}

// New opens the pool and applies its limits. No connection is made until
// Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:        db,
		logger:      logger.With("system", "database"),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Ready() bool {
	return d.ready.Load()
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	d.logger.Info("starting database connection")
	lc.Check("database", d)

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), d.connTimeout)
		defer cancel()

		attempts, err := d.connect(ctx)
		if err != nil {
			d.logger.Error("database unreachable", "attempts", attempts, "error", err)
			return
		}

		d.ready.Store(true)
		d.logger.Info("database connection established", "attempts", attempts)
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.ready.Store(false)

		stats := d.conn.Stats()
		d.logger.Info("closing database connection", "open", stats.OpenConnections, "in_use", stats.InUse)

		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
			return
		}

		d.logger.Info("database connection closed")
	})

	return nil
}

// connect pings until the pool answers or ctx ends, doubling the wait
// between attempts up to maxPingInterval.
func (d *database) connect(ctx context.Context) (int, error) {
	wait := pingInterval
	for attempt := 1; ; attempt++ {
		err := d.conn.PingContext(ctx)
		if err == nil {
			return attempt, nil
		}

		d.logger.Debug("database ping failed", "attempt", attempt, "retry_in", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, fmt.Errorf("ping database: %w", err)
		case <-timer.C:
		}

		wait = min(wait*2, maxPingInterval)
	}
}
