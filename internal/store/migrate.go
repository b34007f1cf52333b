package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bemserver/acquisition-engine/internal/model"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Setup applies all pending schema migrations and ensures the current
// month's timeseries_data partition exists. It is idempotent: re-running
// it against an up-to-date schema is a no-op.
func (s *Store) Setup(ctx context.Context) error {
	if err := s.migrate(); err != nil {
		return err
	}
	if err := s.ensureMonthlyPartition(ctx, time.Now().UTC()); err != nil {
		return err
	}
	return s.seedEvents(ctx)
}

func (s *Store) migrate() error {
	d, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return &Error{Op: "setup", Err: err}
	}

	driver, err := postgres.WithInstance(stdlib.OpenDBFromPool(s.Pool), &postgres.Config{})
	if err != nil {
		return &Error{Op: "setup", Err: err}
	}

	m, err := migrate.NewWithInstance("iofs", d, "postgres", driver)
	if err != nil {
		return &Error{Op: "setup", Err: err}
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return &Error{Op: "setup", Err: err}
	}
	s.log.Info().Msg("schema migrations applied")
	return nil
}

// ensureMonthlyPartition creates the timeseries_data partition covering
// the month containing t, if it does not already exist. timeseries_data
// is time-partitioned on timestamp; partitions are created on demand
// rather than far in advance.
func (s *Store) ensureMonthlyPartition(ctx context.Context, t time.Time) error {
	monthStart := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)
	partitionName := "timeseries_data_" + monthStart.Format("200601")

	var exists bool
	if err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_class WHERE relname = $1)`, partitionName).Scan(&exists); err != nil {
		return &Error{Op: "ensure_partition", Err: err}
	}
	if exists {
		return nil
	}

	// Bounds are computed in Go and the partition name is derived from a
	// fixed date format, so this is safe to interpolate directly: pgx
	// parameter binding cannot be used for DDL identifiers or for
	// statements inside a DO block.
	q := fmt.Sprintf(
		`CREATE TABLE %s PARTITION OF timeseries_data FOR VALUES FROM ('%s') TO ('%s')`,
		partitionName, monthStart.Format(time.RFC3339), monthEnd.Format(time.RFC3339),
	)
	if _, err := s.Pool.Exec(ctx, q); err != nil {
		return &Error{Op: "ensure_partition", Err: err}
	}
	return nil
}

// seedEvents installs the lookup rows for levels, states, target types,
// and the category tree. Each insert is on-conflict-ignore so re-running
// Setup is a no-op.
func (s *Store) seedEvents(ctx context.Context) error {
	for _, lvl := range model.SeedLevels() {
		if _, err := s.Pool.Exec(ctx, `INSERT INTO event_levels (name) VALUES ($1) ON CONFLICT DO NOTHING`, string(lvl)); err != nil {
			return &Error{Op: "seed_events", Err: err}
		}
	}
	for _, st := range model.SeedStates() {
		if _, err := s.Pool.Exec(ctx, `INSERT INTO event_states (name) VALUES ($1) ON CONFLICT DO NOTHING`, string(st)); err != nil {
			return &Error{Op: "seed_events", Err: err}
		}
	}
	for _, tt := range model.SeedTargetTypes() {
		if _, err := s.Pool.Exec(ctx, `INSERT INTO event_target_types (name) VALUES ($1) ON CONFLICT DO NOTHING`, string(tt)); err != nil {
			return &Error{Op: "seed_events", Err: err}
		}
	}
	// Roots first, then children, since parent is a self-referencing FK.
	cats := model.SeedCategories()
	for _, c := range cats {
		if c.Parent != "" {
			continue
		}
		if _, err := s.Pool.Exec(ctx, `INSERT INTO event_categories (name, parent) VALUES ($1, NULL) ON CONFLICT DO NOTHING`, c.Name); err != nil {
			return &Error{Op: "seed_events", Err: err}
		}
	}
	for _, c := range cats {
		if c.Parent == "" {
			continue
		}
		if _, err := s.Pool.Exec(ctx, `INSERT INTO event_categories (name, parent) VALUES ($1, $2) ON CONFLICT DO NOTHING`, c.Name, c.Parent); err != nil {
			return &Error{Op: "seed_events", Err: err}
		}
	}
	return nil
}
