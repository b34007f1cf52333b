package csvio

import (
	"context"
	"strings"
	"testing"
	"time"
)

const sampleCSV = "Datetime,1,2\n" +
	"2026-01-01T00:00:00Z,10,100\n" +
	"2026-01-01T00:01:00Z,11,\n" +
	"2026-01-01T00:02:00Z,,102\n"

func TestImportExportRoundTrip(t *testing.T) {
	st := newFakeStore(1, 2)
	ctx := context.Background()

	if err := Import(ctx, st, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("Import: %v", err)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)
	out, err := Export(ctx, st, start, end, []int64{1, 2})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if out != sampleCSV {
		t.Errorf("round trip mismatch:\n got: %q\nwant: %q", out, sampleCSV)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	st := newFakeStore(1, 2)
	ctx := context.Background()

	if err := Import(ctx, st, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("first Import: %v", err)
	}
	if err := Import(ctx, st, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("second Import: %v", err)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)
	rows, err := st.QueryRange(ctx, []int64{1, 2}, start, end)
	if err != nil {
		t.Fatalf("QueryRange: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4 (re-importing must not duplicate points)", len(rows))
	}
}

func TestImportRejectsUnknownTimeseriesID(t *testing.T) {
	st := newFakeStore(1)
	err := Import(context.Background(), st, strings.NewReader("Datetime,1,99\n2026-01-01T00:00:00Z,1,2\n"))
	cerr, ok := err.(*Error)
	if !ok || cerr.Cause != CauseUnknownID {
		t.Fatalf("err = %v, want CauseUnknownID", err)
	}
}

func TestExportBucketAveragesWithinWidth(t *testing.T) {
	st := newFakeStore(1)
	ctx := context.Background()
	in := "Datetime,1\n" +
		"2026-01-01T00:00:00Z,10\n" +
		"2026-01-01T00:00:30Z,20\n" +
		"2026-01-01T00:01:00Z,40\n"
	if err := Import(ctx, st, strings.NewReader(in)); err != nil {
		t.Fatalf("Import: %v", err)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Minute)
	out, err := ExportBucket(ctx, st, start, end, []int64{1}, time.Minute, time.UTC, "avg")
	if err != nil {
		t.Fatalf("ExportBucket: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "Datetime,1" {
		t.Fatalf("header = %q", lines[0])
	}
	// First minute bucket averages the two points landing within it (10, 20).
	if !strings.Contains(lines[1], ",15") {
		t.Errorf("first bucket row = %q, want average 15", lines[1])
	}
	if !strings.Contains(lines[2], ",40") {
		t.Errorf("second bucket row = %q, want 40", lines[2])
	}
}
