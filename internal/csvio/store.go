package csvio

import (
	"context"
	"time"

	"github.com/bemserver/acquisition-engine/internal/model"
)

// Store is the subset of *store.Store that Import/Export/ExportBucket
// depend on. Defining it here lets tests exercise the round-trip,
// idempotent-import, and bucketed-export properties against a fake
// instead of a live Postgres connection.
type Store interface {
	QueryRange(ctx context.Context, timeseriesIDs []int64, start, end time.Time) ([]model.TimeseriesData, error)
	QueryBucket(ctx context.Context, timeseriesIDs []int64, start, end time.Time, bucketWidth time.Duration, tz *time.Location, aggregation string) ([]model.BucketPoint, error)
	ResolveTimeseriesIDs(ctx context.Context, ids []int64) ([]int64, error)
	BulkInsertPoints(ctx context.Context, rows []model.TimeseriesData) error
}
