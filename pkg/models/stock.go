// Package models defines the core data structures used throughout stockscore.
package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// OHLCV represents a single daily bar of price data.
type OHLCV struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Open      float64   `json:"open"      yaml:"open"`
	High      float64   `json:"high"      yaml:"high"`
	Low       float64   `json:"low"       yaml:"low"`
	Close     float64   `json:"close"     yaml:"close"`
	Volume    int64     `json:"volume"    yaml:"volume"`
}

// PriceSeries is an ordered sequence of daily bars, oldest first.
// The analysis packages never modify a series they are given.
type PriceSeries []OHLCV

// Closes returns the closing prices of the series.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, c := range s {
		closes[i] = c.Close
	}
	return closes
}

// Volumes returns the bar volumes as floats.
func (s PriceSeries) Volumes() []float64 {
	vols := make([]float64, len(s))
	for i, c := range s {
		vols[i] = float64(c.Volume)
	}
	return vols
}

// Last returns the most recent bar. ok is false for an empty series.
func (s PriceSeries) Last() (bar OHLCV, ok bool) {
	if len(s) == 0 {
		return OHLCV{}, false
	}
	return s[len(s)-1], true
}

// --- Validation ---

// Sentinel errors for malformed price input.
var (
	ErrEmptySeries    = errors.New("price series is empty")
	ErrUnorderedDates = errors.New("bar dates are not ascending")
	ErrDuplicateDate  = errors.New("duplicate bar date")
	ErrNegativeVolume = errors.New("negative volume")
	ErrInvalidBar     = errors.New("bar high/low do not bracket open/close")
	ErrNonFiniteValue = errors.New("price is NaN or infinite")
)

// ValidationError locates a malformed bar. It unwraps to one of the
// sentinel errors above.
type ValidationError struct {
	Index int
	Date  time.Time
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bar %d (%s): %v", e.Index, e.Date.Format("2006-01-02"), e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks that the series is well formed: non-empty, strictly ascending
// dates, finite prices, high/low bracketing open/close and non-negative volume.
func (s PriceSeries) Validate() error {
	if len(s) == 0 {
		return ErrEmptySeries
	}
	for i, bar := range s {
		if i > 0 {
			prev := s[i-1].Timestamp
			switch {
			case bar.Timestamp.Equal(prev):
				return &ValidationError{Index: i, Date: bar.Timestamp, Err: ErrDuplicateDate}
			case bar.Timestamp.Before(prev):
				return &ValidationError{Index: i, Date: bar.Timestamp, Err: ErrUnorderedDates}
			}
		}
		if bar.Volume < 0 {
			return &ValidationError{Index: i, Date: bar.Timestamp, Err: ErrNegativeVolume}
		}
		if !finite(bar.Open, bar.High, bar.Low, bar.Close) {
			return &ValidationError{Index: i, Date: bar.Timestamp, Err: ErrNonFiniteValue}
		}
		if bar.High < max(bar.Open, bar.Close) || bar.Low > min(bar.Open, bar.Close) {
			return &ValidationError{Index: i, Date: bar.Timestamp, Err: ErrInvalidBar}
		}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
