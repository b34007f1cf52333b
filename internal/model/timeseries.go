// Package model defines the persistent entities of the acquisition and
// timeseries store: timeseries, brokers, subscribers, topics, payload
// decoders, and operational events.
package model

import "time"

// Timeseries is a named numeric signal. Values are stored in TimeseriesData.
type Timeseries struct {
	ID          int64
	Name        string
	Description string
	Unit        string
	Min         *float64
	Max         *float64
}

// TimeseriesData is a single observed point. The composite key
// (TimeseriesID, Timestamp) is unique; rows are append-only except for
// on-conflict-ignore upserts.
type TimeseriesData struct {
	TimeseriesID int64
	Timestamp    time.Time
	Value        float64
}

// BucketPoint is one row of a time-bucketed aggregation result.
type BucketPoint struct {
	BucketStart  time.Time
	TimeseriesID int64
	Value        float64
}
