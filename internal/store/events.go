package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bemserver/acquisition-engine/internal/model"
)

// InsertEvent persists a newly opened Event and stores its assigned id in
// e.ID.
func (s *Store) InsertEvent(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (category, level, state, source, target_type, target_id,
		timestamp_start, timestamp_end, timestamp_last_update, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`
	var tsEnd any
	if !e.TimestampEnd.IsZero() {
		tsEnd = e.TimestampEnd.UTC()
	}
	row := s.Pool.QueryRow(ctx, q, e.Category, e.Level, e.State, e.Source, e.TargetType, e.TargetID,
		e.TimestampStart.UTC(), tsEnd, e.TimestampLastUpdate.UTC(), e.Description)
	if err := row.Scan(&e.ID); err != nil {
		return &Error{Op: "insert_event", Err: err}
	}
	return nil
}

// UpdateEventState persists State, TimestampEnd, and TimestampLastUpdate
// after Extend/Close mutate an in-memory Event.
func (s *Store) UpdateEventState(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events SET state = $2, timestamp_end = $3, timestamp_last_update = $4 WHERE id = $1`
	var tsEnd any
	if !e.TimestampEnd.IsZero() {
		tsEnd = e.TimestampEnd.UTC()
	}
	if _, err := s.Pool.Exec(ctx, q, e.ID, e.State, tsEnd, e.TimestampLastUpdate.UTC()); err != nil {
		return &Error{Op: "update_event_state", Err: err}
	}
	return nil
}

// ListEventsByState returns events matching the OR of filter.States and
// the AND of every non-zero optional filter field.
func (s *Store) ListEventsByState(ctx context.Context, filter model.EventListFilter) ([]model.Event, error) {
	if len(filter.States) == 0 {
		return nil, &Error{Op: "list_events_by_state", Err: errors.New("states filter must not be empty")}
	}

	var b strings.Builder
	b.WriteString(`SELECT id, category, level, state, source, target_type, target_id,
		timestamp_start, COALESCE(timestamp_end, 'epoch'::timestamptz), timestamp_last_update, description
		FROM events WHERE state = ANY($1)`)
	args := []any{statesToStrings(filter.States)}
	n := 2

	if filter.Category != "" {
		b.WriteString(" AND category = $")
		b.WriteString(strconv.Itoa(n))
		args = append(args, filter.Category)
		n++
	}
	if filter.Source != "" {
		b.WriteString(" AND source = $")
		b.WriteString(strconv.Itoa(n))
		args = append(args, filter.Source)
		n++
	}
	if filter.Level != "" {
		b.WriteString(" AND level = $")
		b.WriteString(strconv.Itoa(n))
		args = append(args, filter.Level)
		n++
	}
	if filter.TargetType != "" {
		b.WriteString(" AND target_type = $")
		b.WriteString(strconv.Itoa(n))
		args = append(args, filter.TargetType)
		n++
	}
	if filter.TargetID != 0 {
		b.WriteString(" AND target_id = $")
		b.WriteString(strconv.Itoa(n))
		args = append(args, filter.TargetID)
		n++
	}
	b.WriteString(" ORDER BY timestamp_start")

	rowsx, err := s.Pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, &Error{Op: "list_events_by_state", Err: err}
	}
	defer rowsx.Close()

	var out []model.Event
	for rowsx.Next() {
		var e model.Event
		var tsEnd time.Time
		if err := rowsx.Scan(&e.ID, &e.Category, &e.Level, &e.State, &e.Source, &e.TargetType, &e.TargetID,
			&e.TimestampStart, &tsEnd, &e.TimestampLastUpdate, &e.Description); err != nil {
			return nil, &Error{Op: "list_events_by_state", Err: err}
		}
		if !tsEnd.Equal(time.Unix(0, 0).UTC()) {
			e.TimestampEnd = tsEnd
		}
		out = append(out, e)
	}
	if err := rowsx.Err(); err != nil {
		return nil, &Error{Op: "list_events_by_state", Err: err}
	}
	return out, nil
}

func statesToStrings(states []model.EventState) []string {
	out := make([]string, len(states))
	for i, st := range states {
		out[i] = string(st)
	}
	return out
}

