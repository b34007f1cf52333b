package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/bemserver/acquisition-engine/internal/model"
)

// GetTimeseriesByID resolves a single Timeseries; the bool is false when
// no row has that id. CSV import validates its header ids with
// ResolveTimeseriesIDs instead.
func (s *Store) GetTimeseriesByID(ctx context.Context, id int64) (model.Timeseries, bool, error) {
	const q = `SELECT id, name, description, unit, min, max FROM timeseries WHERE id = $1`
	var ts model.Timeseries
	row := s.Pool.QueryRow(ctx, q, id)
	if err := row.Scan(&ts.ID, &ts.Name, &ts.Description, &ts.Unit, &ts.Min, &ts.Max); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Timeseries{}, false, nil
		}
		return model.Timeseries{}, false, &Error{Op: "get_timeseries", Err: err}
	}
	return ts, true, nil
}

// ResolveTimeseriesIDs checks that every id exists, returning the subset
// (if any) that do not.
func (s *Store) ResolveTimeseriesIDs(ctx context.Context, ids []int64) (missing []int64, err error) {
	const q = `SELECT id FROM timeseries WHERE id = ANY($1)`
	rowsx, err := s.Pool.Query(ctx, q, ids)
	if err != nil {
		return nil, &Error{Op: "resolve_timeseries_ids", Err: err}
	}
	defer rowsx.Close()

	found := make(map[int64]bool, len(ids))
	for rowsx.Next() {
		var id int64
		if err := rowsx.Scan(&id); err != nil {
			return nil, &Error{Op: "resolve_timeseries_ids", Err: err}
		}
		found[id] = true
	}
	if err := rowsx.Err(); err != nil {
		return nil, &Error{Op: "resolve_timeseries_ids", Err: err}
	}

	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// ListTimeseries returns every Timeseries, ordered by id, for
// administration CRUD surfaces.
func (s *Store) ListTimeseries(ctx context.Context) ([]model.Timeseries, error) {
	const q = `SELECT id, name, description, unit, min, max FROM timeseries ORDER BY id`
	rowsx, err := s.Pool.Query(ctx, q)
	if err != nil {
		return nil, &Error{Op: "list_timeseries", Err: err}
	}
	defer rowsx.Close()

	var out []model.Timeseries
	for rowsx.Next() {
		var ts model.Timeseries
		if err := rowsx.Scan(&ts.ID, &ts.Name, &ts.Description, &ts.Unit, &ts.Min, &ts.Max); err != nil {
			return nil, &Error{Op: "list_timeseries", Err: err}
		}
		out = append(out, ts)
	}
	if err := rowsx.Err(); err != nil {
		return nil, &Error{Op: "list_timeseries", Err: err}
	}
	return out, nil
}

// CreateTimeseries inserts a new Timeseries and returns its assigned id.
func (s *Store) CreateTimeseries(ctx context.Context, ts model.Timeseries) (int64, error) {
	const q = `INSERT INTO timeseries (name, description, unit, min, max) VALUES ($1,$2,$3,$4,$5) RETURNING id`
	var id int64
	if err := s.Pool.QueryRow(ctx, q, ts.Name, ts.Description, ts.Unit, ts.Min, ts.Max).Scan(&id); err != nil {
		return 0, &Error{Op: "create_timeseries", Err: err}
	}
	return id, nil
}

// UpdateTimeseries overwrites every column of an existing Timeseries.
// Returns false if no row with that id exists.
func (s *Store) UpdateTimeseries(ctx context.Context, ts model.Timeseries) (bool, error) {
	const q = `UPDATE timeseries SET name=$2, description=$3, unit=$4, min=$5, max=$6 WHERE id=$1`
	tag, err := s.Pool.Exec(ctx, q, ts.ID, ts.Name, ts.Description, ts.Unit, ts.Min, ts.Max)
	if err != nil {
		return false, &Error{Op: "update_timeseries", Err: err}
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteTimeseries removes a Timeseries by id.
func (s *Store) DeleteTimeseries(ctx context.Context, id int64) error {
	const q = `DELETE FROM timeseries WHERE id = $1`
	if _, err := s.Pool.Exec(ctx, q, id); err != nil {
		return &Error{Op: "delete_timeseries", Err: err}
	}
	return nil
}
