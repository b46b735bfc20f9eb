package request

import (
	"math"
	"strconv"
	"strings"
)

// Search parameter defaults and bounds accepted by the input layer.
const (
	DefaultQuery     = "concrete or external groundwork"
	DefaultThreshold = 0.2
	MinThreshold     = 0.0
	MaxThreshold     = 1.0
	// ThresholdStep is the slider granularity offered to interactive users.
	ThresholdStep = 0.05
	DefaultLimit  = 10
	MinLimit      = 1
	MaxLimit      = 50
)

// Request is a single search interaction: query text plus the two numeric
// parameters forwarded to the remote match procedure.
type Request struct {
	query     string
	threshold float64
	limit     int
}

// New clamps threshold to [0, 1] and limit to [1, 50].
// The query text is kept byte-for-byte: no trimming, no emptiness check.
func New(query string, threshold float64, limit int) Request {
	return Request{
		query:     query,
		threshold: ClampThreshold(threshold),
		limit:     ClampLimit(limit),
	}
}

// Default returns the request used when the page loads without input.
func Default() Request {
	return New(DefaultQuery, DefaultThreshold, DefaultLimit)
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Threshold returns the minimum similarity passed to the match procedure.
func (r *Request) Threshold() float64 { return r.threshold }

// Limit returns the maximum number of rows requested.
func (r *Request) Limit() int { return r.limit }

// ClampThreshold bounds v to [MinThreshold, MaxThreshold]. NaN maps to the default.
func ClampThreshold(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return DefaultThreshold
	case v < MinThreshold:
		return MinThreshold
	case v > MaxThreshold:
		return MaxThreshold
	}
	return v
}

// ClampLimit bounds n to [MinLimit, MaxLimit].
func ClampLimit(n int) int {
	if n < MinLimit {
		return MinLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// ParseThreshold reads a form value. Empty or unparseable input yields the default.
func ParseThreshold(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return DefaultThreshold
	}
	return ClampThreshold(v)
}

// ParseLimit reads a form value. Empty or unparseable input yields the default.
// Fractional input is truncated, matching a number field with step 1.
func ParseLimit(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return ClampLimit(n)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return DefaultLimit
	}
	if v > MaxLimit {
		return MaxLimit
	}
	if v < MinLimit {
		return MinLimit
	}
	return int(v)
}
