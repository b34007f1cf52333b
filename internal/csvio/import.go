package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bemserver/acquisition-engine/internal/model"
)

// Import reads a "Datetime,<id1>,<id2>,..." CSV stream and writes every
// cell as a (timestamp, timeseries_id, value) point, rejecting the whole
// file on any malformed row before a single row is written.
func Import(ctx context.Context, st Store, r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Error{Cause: CauseMissingHeader, Msg: "CSV has no header row"}
		}
		return &Error{Cause: CauseBadHeader, Msg: err.Error()}
	}
	if len(header) == 0 || header[0] != "Datetime" {
		return &Error{Cause: CauseBadHeader, Msg: `first column must be "Datetime"`}
	}

	ids := make([]int64, len(header)-1)
	for i, col := range header[1:] {
		id, err := strconv.ParseInt(col, 10, 64)
		if err != nil {
			return &Error{Cause: CauseBadHeader, Msg: fmt.Sprintf("column %d is not a timeseries id: %q", i+1, col)}
		}
		ids[i] = id
	}

	missing, err := st.ResolveTimeseriesIDs(ctx, ids)
	if err != nil {
		return &Error{Cause: CauseStorage, Msg: err.Error()}
	}
	if len(missing) > 0 {
		return &Error{Cause: CauseUnknownID, Msg: fmt.Sprintf("unknown timeseries id(s): %v", missing)}
	}

	var rows []model.TimeseriesData
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &Error{Cause: CauseShortRow, Msg: err.Error()}
		}
		if len(record) != len(ids)+1 {
			return &Error{Cause: CauseShortRow, Msg: fmt.Sprintf("row has %d columns, want %d", len(record), len(ids)+1)}
		}

		ts, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			return &Error{Cause: CauseBadValue, Msg: "bad timestamp " + record[0]}
		}

		for col, id := range ids {
			cell := record[col+1]
			if cell == "" {
				continue
			}
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return &Error{Cause: CauseBadValue, Msg: fmt.Sprintf("bad value %q for timeseries %d", cell, id)}
			}
			rows = append(rows, model.TimeseriesData{TimeseriesID: id, Timestamp: ts, Value: value})
		}
	}

	if err := st.BulkInsertPoints(ctx, rows); err != nil {
		return &Error{Cause: CauseStorage, Msg: err.Error()}
	}
	return nil
}
