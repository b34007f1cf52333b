package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bemserver/acquisition-engine/internal/model"
)

// InsertPoint is idempotent by (timeseries_id, timestamp): a duplicate key
// is silently ignored.
func (s *Store) InsertPoint(ctx context.Context, timeseriesID int64, ts time.Time, value float64) error {
	const q = `INSERT INTO timeseries_data (timeseries_id, timestamp, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (timeseries_id, timestamp) DO NOTHING`
	if _, err := s.Pool.Exec(ctx, q, timeseriesID, ts.UTC(), value); err != nil {
		return &Error{Op: "insert_point", Err: err}
	}
	return nil
}

// BulkInsertPoints writes rows as multi-row INSERTs with on-conflict-ignore,
// at most 5000 rows per statement, all inside one transaction.
// pgx.CopyFrom cannot express ON CONFLICT, so unlike raw archival inserts
// this builds a parameterized VALUES list executed via Exec. Partial
// failure aborts the whole batch — nothing is written.
func (s *Store) BulkInsertPoints(ctx context.Context, rows []model.TimeseriesData) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return &Error{Op: "bulk_insert_points", Err: err}
	}
	defer tx.Rollback(ctx)

	const batchMax = 5000
	for start := 0; start < len(rows); start += batchMax {
		end := start + batchMax
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.bulkInsertChunk(ctx, tx, rows[start:end]); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return &Error{Op: "bulk_insert_points", Err: err}
	}
	return nil
}

func (s *Store) bulkInsertChunk(ctx context.Context, tx pgx.Tx, rows []model.TimeseriesData) error {
	var b strings.Builder
	b.WriteString("INSERT INTO timeseries_data (timeseries_id, timestamp, value) VALUES ")

	args := make([]any, 0, len(rows)*3)
	for i, r := range rows {
		if i > 0 {
			b.WriteString(",")
		}
		n := i * 3
		fmt.Fprintf(&b, "($%d,$%d,$%d)", n+1, n+2, n+3)
		args = append(args, r.TimeseriesID, r.Timestamp.UTC(), r.Value)
	}
	b.WriteString(" ON CONFLICT (timeseries_id, timestamp) DO NOTHING")

	if _, err := tx.Exec(ctx, b.String(), args...); err != nil {
		return &Error{Op: "bulk_insert_points", Err: err}
	}
	return nil
}

// QueryRange returns rows with start <= ts < end for the given timeseries
// ids, ordered by timestamp.
func (s *Store) QueryRange(ctx context.Context, timeseriesIDs []int64, start, end time.Time) ([]model.TimeseriesData, error) {
	const q = `SELECT timeseries_id, timestamp, value
		FROM timeseries_data
		WHERE timeseries_id = ANY($1) AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp`

	rowsx, err := s.Pool.Query(ctx, q, timeseriesIDs, start.UTC(), end.UTC())
	if err != nil {
		return nil, &Error{Op: "query_range", Err: err}
	}
	defer rowsx.Close()

	var out []model.TimeseriesData
	for rowsx.Next() {
		var r model.TimeseriesData
		if err := rowsx.Scan(&r.TimeseriesID, &r.Timestamp, &r.Value); err != nil {
			return nil, &Error{Op: "query_range", Err: err}
		}
		r.Timestamp = r.Timestamp.UTC()
		out = append(out, r)
	}
	if err := rowsx.Err(); err != nil {
		return nil, &Error{Op: "query_range", Err: err}
	}
	return out, nil
}

// QueryBucket groups rows by (bucket, timeseries_id) and aggregates with
// aggregation (only "avg" is required by the contract). Bucket boundaries
// are computed in tz; a point is included in the bucket [start, start+width)
// it falls within. Postgres lacks a native time_bucket
// function outside TimescaleDB, so date_bin is used as the engine-native
// substitute — it has identical half-open-interval semantics for a fixed
// width anchored at the Postgres epoch.
func (s *Store) QueryBucket(ctx context.Context, timeseriesIDs []int64, start, end time.Time, bucketWidth time.Duration, tz *time.Location, aggregation string) ([]model.BucketPoint, error) {
	aggFn, err := aggregationFn(aggregation)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT
			date_bin($1::interval, timestamp AT TIME ZONE $5, TIMESTAMP '2000-01-01') AT TIME ZONE $5 AS bucket,
			timeseries_id,
			%s(value) AS agg_value
		FROM timeseries_data
		WHERE timeseries_id = ANY($2) AND timestamp >= $3 AND timestamp < $4
		GROUP BY bucket, timeseries_id
		ORDER BY bucket, timeseries_id`, aggFn)

	interval := fmt.Sprintf("%d microseconds", bucketWidth.Microseconds())
	rowsx, err := s.Pool.Query(ctx, q, interval, timeseriesIDs, start.UTC(), end.UTC(), tz.String())
	if err != nil {
		return nil, &Error{Op: "query_bucket", Err: err}
	}
	defer rowsx.Close()

	var out []model.BucketPoint
	for rowsx.Next() {
		var p model.BucketPoint
		if err := rowsx.Scan(&p.BucketStart, &p.TimeseriesID, &p.Value); err != nil {
			return nil, &Error{Op: "query_bucket", Err: err}
		}
		p.BucketStart = p.BucketStart.UTC()
		out = append(out, p)
	}
	if err := rowsx.Err(); err != nil {
		return nil, &Error{Op: "query_bucket", Err: err}
	}
	return out, nil
}

func aggregationFn(aggregation string) (string, error) {
	switch aggregation {
	case "", "avg":
		return "avg", nil
	case "sum":
		return "sum", nil
	case "min":
		return "min", nil
	case "max":
		return "max", nil
	case "count":
		return "count", nil
	default:
		return "", &Error{Op: "query_bucket", Err: fmt.Errorf("unsupported aggregation %q", aggregation)}
	}
}
