package match

import (
	"context"
	"fmt"
	"image"
)

// Engine renders match verdicts from the candidates produced by a
// CorrespondenceSource. It holds no mutable state and is safe for
// concurrent use if its source is.
type Engine struct {
	source CorrespondenceSource
}

// NewEngine returns an engine backed by source.
func NewEngine(source CorrespondenceSource) *Engine {
	return &Engine{source: source}
}

// Evaluate decides whether query appears in reference.
//
// Thresholds are validated first; a *ValidationError is returned without
// touching the source. Failures of the source, including panics raised
// inside it, are returned as *MatchFault. An empty candidate set is a
// "no match" verdict, not an error.
func (e *Engine) Evaluate(ctx context.Context, reference, query *image.Gray, th Thresholds) (Verdict, error) {
	if err := th.Validate(); err != nil {
		return Verdict{}, err
	}
	if reference == nil || query == nil {
		return Verdict{}, &MatchFault{Err: ErrNilRaster}
	}

	candidates, err := e.correspond(ctx, reference, query)
	if err != nil {
		return Verdict{}, err
	}

	good := CountGood(candidates, th.Ratio)
	return Verdict{
		Match:      good >= th.MinMatches,
		GoodCount:  good,
		Thresholds: th,
	}, nil
}

func (e *Engine) correspond(ctx context.Context, reference, query *image.Gray) (candidates []Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			candidates = nil
			err = &MatchFault{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	candidates, err = e.source.Correspond(ctx, reference, query)
	if err != nil {
		return nil, &MatchFault{Err: err}
	}
	return candidates, nil
}

// IsGood applies the ratio test to one candidate: it must carry exactly two
// distances and the nearest must be strictly below ratio times the second.
func IsGood(c Candidate, ratio float64) bool {
	if len(c.Distances) != 2 {
		return false
	}
	return c.Distances[0] < ratio*c.Distances[1]
}

// CountGood returns how many candidates pass the ratio test.
func CountGood(candidates []Candidate, ratio float64) int {
	n := 0
	for _, c := range candidates {
		if IsGood(c, ratio) {
			n++
		}
	}
	return n
}
