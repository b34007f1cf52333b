package csvio

import (
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"time"
)

// Export queries raw points for timeseriesIDs over [start, end) and
// pivots them into one CSV column per id, in input order, gap-filling
// timestamps where an id has no value.
func Export(ctx context.Context, st Store, start, end time.Time, timeseriesIDs []int64) (string, error) {
	rows, err := st.QueryRange(ctx, timeseriesIDs, start, end)
	if err != nil {
		return "", &Error{Cause: CauseStorage, Msg: err.Error()}
	}

	byTimestamp := make(map[time.Time]map[int64]float64)
	order := make([]time.Time, 0)
	for _, r := range rows {
		cells, ok := byTimestamp[r.Timestamp]
		if !ok {
			cells = make(map[int64]float64)
			byTimestamp[r.Timestamp] = cells
			order = append(order, r.Timestamp)
		}
		cells[r.TimeseriesID] = r.Value
	}
	sortTimes(order)

	return renderPivot(order, byTimestamp, timeseriesIDs)
}

func sortTimes(ts []time.Time) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j].Before(ts[j-1]); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}

func renderPivot(order []time.Time, byTimestamp map[time.Time]map[int64]float64, timeseriesIDs []int64) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	header := make([]string, 0, len(timeseriesIDs)+1)
	header = append(header, "Datetime")
	for _, id := range timeseriesIDs {
		header = append(header, strconv.FormatInt(id, 10))
	}
	if err := w.Write(header); err != nil {
		return "", &Error{Cause: CauseStorage, Msg: err.Error()}
	}

	for _, ts := range order {
		cells := byTimestamp[ts]
		record := make([]string, 0, len(timeseriesIDs)+1)
		record = append(record, ts.UTC().Format(time.RFC3339))
		for _, id := range timeseriesIDs {
			v, ok := cells[id]
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return "", &Error{Cause: CauseStorage, Msg: err.Error()}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", &Error{Cause: CauseStorage, Msg: err.Error()}
	}
	return b.String(), nil
}
