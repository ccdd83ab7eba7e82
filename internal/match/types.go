package match

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
)

// Default threshold values used when a caller omits them.
const (
	DefaultRatio      = 0.4
	DefaultMinMatches = 4
)

// Thresholds is the decision policy applied to correspondence candidates.
type Thresholds struct {
	// Ratio is the ratio-test factor in [0, 1]. A candidate is good only if
	// its nearest distance is strictly below Ratio times the second-nearest.
	Ratio float64 `json:"threshold"`

	// MinMatches is the number of good candidates required for a match.
	MinMatches int `json:"min_matches"`
}

// DefaultThresholds returns the standard policy (ratio 0.4, 4 matches).
func DefaultThresholds() Thresholds {
	return Thresholds{Ratio: DefaultRatio, MinMatches: DefaultMinMatches}
}

// Validate reports a *ValidationError when either field is out of range.
func (t Thresholds) Validate() error {
	if math.IsNaN(t.Ratio) || t.Ratio < 0 || t.Ratio > 1 {
		return &ValidationError{Field: "threshold", Reason: fmt.Sprintf("must be between 0.0 and 1.0, got %v", t.Ratio)}
	}
	if t.MinMatches < 1 {
		return &ValidationError{Field: "min_matches", Reason: fmt.Sprintf("must be at least 1, got %d", t.MinMatches)}
	}
	return nil
}

// Candidate holds the neighbor distances found in the reference descriptor set
// for one query descriptor, nearest first. A well-formed candidate has two
// entries; fewer occur when the reference set is too small.
type Candidate struct {
	Distances []float64
}

// Verdict is the outcome of one reference-versus-query evaluation.
type Verdict struct {
	Match      bool       `json:"match"`
	GoodCount  int        `json:"good_matches"`
	Thresholds Thresholds `json:"thresholds"`
}

// CorrespondenceSource finds, for every descriptor of query, its two nearest
// descriptors in reference.
//
// Implementations return an empty slice, not an error, when either raster
// yields no descriptors. Errors are reserved for genuine failures of the
// extraction or matching machinery.
type CorrespondenceSource interface {
	Correspond(ctx context.Context, reference, query *image.Gray) ([]Candidate, error)
}

// ValidationError reports caller input that is missing, malformed or out of
// range. It is always detected before any decode or match work.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MatchFault reports an unexpected failure while extracting descriptors or
// looking up correspondences.
type MatchFault struct {
	Err error
}

func (e *MatchFault) Error() string {
	return fmt.Sprintf("feature matching failed: %v", e.Err)
}

func (e *MatchFault) Unwrap() error { return e.Err }

// ErrNilRaster is wrapped by MatchFault when a raster argument is nil.
var ErrNilRaster = errors.New("nil raster")
