package acquisition

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bemserver/acquisition-engine/internal/metrics"
	"github.com/bemserver/acquisition-engine/internal/model"
	"github.com/bemserver/acquisition-engine/internal/store"
)

// writerBatchMax and writerInterval bound a writer's batch: flush at
// whichever of size or time comes first, trading point-write latency for
// fewer round trips under load.
const (
	writerBatchMax     = 500
	writerInterval     = 2 * time.Second
	writerFlushTimeout = 30 * time.Second
)

// writer owns the storage connection used to persist one subscriber's
// decoded points, batching them through a generic batcher.
type writer struct {
	b   *batcher[model.TimeseriesData]
	st  *store.Store
	log zerolog.Logger
}

func newWriter(st *store.Store, log zerolog.Logger, batchMax int, interval time.Duration) *writer {
	if batchMax <= 0 {
		batchMax = writerBatchMax
	}
	if interval <= 0 {
		interval = writerInterval
	}
	w := &writer{st: st, log: log}
	w.b = newBatcher(batchMax, interval, w.flush)
	return w
}

// add enqueues a point for the next batch flush.
func (w *writer) add(p model.TimeseriesData) {
	w.b.add(p)
}

// stop flushes any pending points and waits for the flush to complete.
func (w *writer) stop() {
	w.b.stop()
}

func (w *writer) flush(rows []model.TimeseriesData) {
	ctx, cancel := context.WithTimeout(context.Background(), writerFlushTimeout)
	defer cancel()
	if err := w.st.BulkInsertPoints(ctx, rows); err != nil {
		w.log.Error().Err(err).Int("rows", len(rows)).Msg("bulk insert of points failed")
		return
	}
	metrics.PointsWrittenTotal.Add(float64(len(rows)))
}
