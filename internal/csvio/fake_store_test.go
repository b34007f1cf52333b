package csvio

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bemserver/acquisition-engine/internal/model"
)

// fakeStore is a minimal in-memory Store, standing in for *store.Store the
// way the teacher's ingest tests fake a store interface instead of hitting
// Postgres. BulkInsertPoints reproduces the real store's on-conflict-ignore
// semantics so idempotent-import tests mean something against it.
type fakeStore struct {
	mu       sync.Mutex
	knownIDs map[int64]bool
	points   map[pointKey]float64
}

type pointKey struct {
	id int64
	ts time.Time
}

func newFakeStore(knownIDs ...int64) *fakeStore {
	m := make(map[int64]bool, len(knownIDs))
	for _, id := range knownIDs {
		m[id] = true
	}
	return &fakeStore{knownIDs: m, points: make(map[pointKey]float64)}
}

func (f *fakeStore) ResolveTimeseriesIDs(_ context.Context, ids []int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var missing []int64
	for _, id := range ids {
		if !f.knownIDs[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (f *fakeStore) BulkInsertPoints(_ context.Context, rows []model.TimeseriesData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		key := pointKey{r.TimeseriesID, r.Timestamp.UTC()}
		if _, exists := f.points[key]; exists {
			continue
		}
		f.points[key] = r.Value
	}
	return nil
}

func (f *fakeStore) QueryRange(_ context.Context, timeseriesIDs []int64, start, end time.Time) ([]model.TimeseriesData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make(map[int64]bool, len(timeseriesIDs))
	for _, id := range timeseriesIDs {
		ids[id] = true
	}
	var out []model.TimeseriesData
	for k, v := range f.points {
		if !ids[k.id] || k.ts.Before(start) || !k.ts.Before(end) {
			continue
		}
		out = append(out, model.TimeseriesData{TimeseriesID: k.id, Timestamp: k.ts, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakeStore) QueryBucket(ctx context.Context, timeseriesIDs []int64, start, end time.Time, bucketWidth time.Duration, tz *time.Location, aggregation string) ([]model.BucketPoint, error) {
	rows, err := f.QueryRange(ctx, timeseriesIDs, start, end)
	if err != nil {
		return nil, err
	}

	type key struct {
		id     int64
		bucket time.Time
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)
	for _, r := range rows {
		b := start.Add(r.Timestamp.Sub(start).Truncate(bucketWidth))
		k := key{r.TimeseriesID, b}
		sums[k] += r.Value
		counts[k]++
	}

	var out []model.BucketPoint
	for k, sum := range sums {
		v := sum
		if aggregation == "" || aggregation == "avg" {
			v = sum / float64(counts[k])
		}
		out = append(out, model.BucketPoint{TimeseriesID: k.id, BucketStart: k.bucket, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BucketStart.Equal(out[j].BucketStart) {
			return out[i].BucketStart.Before(out[j].BucketStart)
		}
		return out[i].TimeseriesID < out[j].TimeseriesID
	})
	return out, nil
}
