package model

import (
	"testing"
	"time"
)

func TestOpenEventDefaultsStartToNow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := OpenEvent(now, CategoryOutOfRange, LevelWarning, "topic/a", TargetTimeseries, 1, time.Time{})
	if e.State != EventNew {
		t.Fatalf("state = %v, want NEW", e.State)
	}
	if !e.TimestampStart.Equal(now) {
		t.Errorf("TimestampStart = %v, want %v", e.TimestampStart, now)
	}
}

func TestExtendMovesToOngoingAndAdvancesClock(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := OpenEvent(t0, CategoryOutOfRange, LevelWarning, "topic/a", TargetTimeseries, 1, time.Time{})

	t1 := t0.Add(time.Minute)
	if err := e.Extend(t1); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if e.State != EventOngoing {
		t.Fatalf("state = %v, want ONGOING", e.State)
	}
	if !e.TimestampLastUpdate.Equal(t1) {
		t.Errorf("TimestampLastUpdate = %v, want %v", e.TimestampLastUpdate, t1)
	}
}

func TestExtendAfterCloseFails(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := OpenEvent(t0, CategoryOutOfRange, LevelWarning, "topic/a", TargetTimeseries, 1, time.Time{})
	e.Close(t0.Add(time.Minute), time.Time{})

	if err := e.Extend(t0.Add(2 * time.Minute)); err == nil {
		t.Fatal("Extend on a closed event should fail")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := OpenEvent(t0, CategoryOutOfRange, LevelWarning, "topic/a", TargetTimeseries, 1, time.Time{})

	t1 := t0.Add(time.Hour)
	e.Close(t1, time.Time{})
	firstEnd := e.TimestampEnd

	e.Close(t1.Add(time.Hour), time.Time{})
	if !e.TimestampEnd.Equal(firstEnd) {
		t.Errorf("second Close moved TimestampEnd: %v -> %v", firstEnd, e.TimestampEnd)
	}
}

func TestDurationNonNegative(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := OpenEvent(t0, CategoryOutOfRange, LevelWarning, "topic/a", TargetTimeseries, 1, time.Time{})

	if d := e.Duration(); d < 0 {
		t.Errorf("Duration on a fresh event = %v, want >= 0", d)
	}

	e.Close(t0.Add(5*time.Minute), time.Time{})
	if d := e.Duration(); d != 5*time.Minute {
		t.Errorf("Duration after close = %v, want 5m", d)
	}
}
