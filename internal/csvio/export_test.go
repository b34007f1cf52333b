package csvio

import (
	"strings"
	"testing"
	"time"
)

func TestRenderPivotGapFillsMissingColumns(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	byTimestamp := map[time.Time]map[int64]float64{
		t0: {1: 10},
		t1: {2: 20},
	}
	order := []time.Time{t0, t1}

	out, err := renderPivot(order, byTimestamp, []int64{1, 2})
	if err != nil {
		t.Fatalf("renderPivot: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "Datetime,1,2" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",10,") {
		t.Errorf("row 1 = %q, want trailing empty cell for id 2", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",,20") {
		t.Errorf("row 2 = %q, want empty cell for id 1", lines[2])
	}
}

func TestSortTimesOrdersAscending(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := []time.Time{t0.Add(2 * time.Minute), t0, t0.Add(time.Minute)}
	sortTimes(ts)
	if !ts[0].Equal(t0) || !ts[2].Equal(t0.Add(2*time.Minute)) {
		t.Errorf("sortTimes did not sort ascending: %v", ts)
	}
}
