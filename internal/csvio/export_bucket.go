package csvio

import (
	"context"
	"time"
)

// ExportBucket is Export's time-bucketed counterpart: rows are grouped
// server-side into fixed-width buckets anchored in tz before being
// aggregated and pivoted into the same wire format as Export.
func ExportBucket(ctx context.Context, st Store, start, end time.Time, timeseriesIDs []int64, bucketWidth time.Duration, tz *time.Location, aggregation string) (string, error) {
	points, err := st.QueryBucket(ctx, timeseriesIDs, start, end, bucketWidth, tz, aggregation)
	if err != nil {
		return "", &Error{Cause: CauseStorage, Msg: err.Error()}
	}

	byTimestamp := make(map[time.Time]map[int64]float64)
	order := make([]time.Time, 0)
	for _, p := range points {
		cells, ok := byTimestamp[p.BucketStart]
		if !ok {
			cells = make(map[int64]float64)
			byTimestamp[p.BucketStart] = cells
			order = append(order, p.BucketStart)
		}
		cells[p.TimeseriesID] = p.Value
	}
	sortTimes(order)

	return renderPivot(order, byTimestamp, timeseriesIDs)
}
