package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means the input dataset could not be loaded. Fatal for a run.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedRow means a numeric cell could not be evaluated during cleaning. Fatal for a run.
	ErrMalformedRow = errors.New("malformed row")
	// ErrRunInProgress is returned when a trigger finds the run lock already held.
	ErrRunInProgress = errors.New("run already in progress")
)

// RowError describes the row and field that made cleaning fail.
type RowError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d field %s value %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// FetchError is a degraded enrichment lookup. It is carried inside a Result, never returned from a run.
type FetchError struct {
	Source string
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("fetch %s for %s: %v", e.Source, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SinkError is a failed write to one output sink.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// IsFatal reports whether err aborts a run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrMalformedRow)
}
