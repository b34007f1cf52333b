// Package store provides the Postgres-backed persistence layer for
// timeseries points, the acquisition model, and operational events.
package store

import (
	"context"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Store wraps a pooled Postgres connection. All exported methods are safe
// for concurrent use.
type Store struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// Connect opens and pings a connection pool against databaseURL.
func Connect(ctx context.Context, databaseURL string, log zerolog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, &Error{Op: "connect", Err: err}
	}

	cfg.MaxConns = 20
	cfg.MinConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &Error{Op: "connect", Err: err}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &Error{Op: "ping", Err: err}
	}

	log.Info().
		Str("url", maskDSN(databaseURL)).
		Int32("max_conns", cfg.MaxConns).
		Int32("min_conns", cfg.MinConns).
		Msg("store connected")

	return &Store{Pool: pool, log: log}, nil
}

// HealthCheck pings the pool with a short timeout.
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.Pool.Ping(ctx); err != nil {
		return &Error{Op: "health_check", Err: err}
	}
	return nil
}

// Close releases all pooled connections.
func (s *Store) Close() {
	s.log.Info().Msg("closing store pool")
	s.Pool.Close()
}

func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}
