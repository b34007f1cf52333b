package acquisition

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bemserver/acquisition-engine/internal/metrics"
	"github.com/bemserver/acquisition-engine/internal/model"
	"github.com/bemserver/acquisition-engine/internal/store"
)

// eventTracker is the hot-path counterpart to store's event tables: it
// keeps the one open Event per source (an MQTT topic) in memory so a run
// of decode failures extends a single event instead of opening one per
// message, and it records the last time any message was received so a
// supervisor can detect a subscriber gone quiet.
type eventTracker struct {
	mu            sync.Mutex
	open          map[string]*model.Event
	lastReception time.Time

	st  *store.Store
	log zerolog.Logger
}

func newEventTracker(st *store.Store, log zerolog.Logger) *eventTracker {
	return &eventTracker{
		open: make(map[string]*model.Event),
		st:   st,
		log:  log,
	}
}

// touchReception records that a message arrived just now, for heartbeat
// loss detection.
func (t *eventTracker) touchReception(now time.Time) {
	t.mu.Lock()
	t.lastReception = now
	t.mu.Unlock()
}

// lastReceptionAt returns the last touchReception time, or the zero time
// if no message has ever been received.
func (t *eventTracker) lastReceptionAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastReception
}

// recordFailure opens an ABNORMAL_MEASURE_VALUES event for source on the
// first failure, or extends the one already open for it. It never closes
// an event, and no other code in this package closes one either.
func (t *eventTracker) recordFailure(ctx context.Context, now time.Time, source string, targetType model.EventTargetType, targetID int64, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ev, ok := t.open[source]; ok {
		if err := ev.Extend(now); err != nil {
			t.log.Error().Err(err).Str("source", source).Msg("failed to extend event")
			return
		}
		if err := t.st.UpdateEventState(ctx, ev); err != nil {
			t.log.Error().Err(err).Str("source", source).Msg("failed to persist extended event")
		}
		return
	}

	ev := model.OpenEvent(now, model.CategoryAbnormalMeasureValues, model.LevelWarning, source, targetType, targetID, time.Time{})
	ev.Description = reason
	if err := t.st.InsertEvent(ctx, ev); err != nil {
		t.log.Error().Err(err).Str("source", source).Msg("failed to persist new event")
		return
	}
	metrics.EventsOpenedTotal.WithLabelValues(model.CategoryAbnormalMeasureValues).Inc()
	t.open[source] = ev
}

// recordHeartbeatLoss opens (or extends) a reception_interval_too_large
// event for a subscriber that has gone quiet past its keep-alive budget.
func (t *eventTracker) recordHeartbeatLoss(ctx context.Context, now time.Time, source string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	const category = model.CategoryAbnormalTimestamps + "/" + model.CategoryReceptionIntervalTooLarge
	if ev, ok := t.open[category+":"+source]; ok {
		if err := ev.Extend(now); err == nil {
			_ = t.st.UpdateEventState(ctx, ev)
		}
		return
	}

	ev := model.OpenEvent(now, model.CategoryReceptionIntervalTooLarge, model.LevelWarning, source, model.TargetTimeseries, 0, time.Time{})
	if err := t.st.InsertEvent(ctx, ev); err != nil {
		t.log.Error().Err(err).Str("source", source).Msg("failed to persist heartbeat-loss event")
		return
	}
	metrics.EventsOpenedTotal.WithLabelValues(model.CategoryReceptionIntervalTooLarge).Inc()
	t.open[category+":"+source] = ev
}
