package match

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// ErrEmptyTemplate marks a template slot that carried no payload.
var ErrEmptyTemplate = errors.New("template payload is empty or missing")

// TemplateDecoder turns one template payload into a grayscale raster.
type TemplateDecoder func(payload string) (*image.Gray, error)

// TemplateOutcome is the result for one template: either a verdict or an
// error, never both.
type TemplateOutcome struct {
	Index   int
	Verdict *Verdict
	Err     error
}

// Matched reports whether the outcome is a positive verdict.
func (o TemplateOutcome) Matched() bool {
	return o.Err == nil && o.Verdict != nil && o.Verdict.Match
}

// BatchReport collects per-template outcomes in input order.
type BatchReport struct {
	Outcomes []TemplateOutcome

	// Matching lists, in ascending order, the indices whose outcome matched.
	Matching []int

	Total      int
	Thresholds Thresholds
}

// EvaluateBatch evaluates every template against base using the same
// thresholds.
//
// Outcomes are reported at the template's input index. Failures are isolated
// per template: an empty slot, a decode error, a MatchFault or a cancelled
// context is recorded on that index and the loop moves on.
//
// The returned error is non-nil only for invalid arguments (thresholds, an
// empty template list or a nil base), checked before any template is
// touched.
func (e *Engine) EvaluateBatch(ctx context.Context, base *image.Gray, templates []string, th Thresholds, decode TemplateDecoder) (*BatchReport, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, &ValidationError{Field: "templates", Reason: "must be a non-empty list"}
	}
	if base == nil {
		return nil, &MatchFault{Err: ErrNilRaster}
	}

	report := &BatchReport{
		Outcomes:   make([]TemplateOutcome, 0, len(templates)),
		Matching:   []int{},
		Total:      len(templates),
		Thresholds: th,
	}
	for i, payload := range templates {
		outcome := e.evaluateTemplate(ctx, i, base, payload, th, decode)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Matched() {
			report.Matching = append(report.Matching, i)
		}
	}
	return report, nil
}

func (e *Engine) evaluateTemplate(ctx context.Context, index int, base *image.Gray, payload string, th Thresholds, decode TemplateDecoder) (outcome TemplateOutcome) {
	outcome.Index = index

	defer func() {
		if r := recover(); r != nil {
			outcome.Verdict = nil
			outcome.Err = &MatchFault{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if payload == "" {
		outcome.Err = ErrEmptyTemplate
		return outcome
	}
	if err := ctx.Err(); err != nil {
		outcome.Err = err
		return outcome
	}

	tmpl, err := decode(payload)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	verdict, err := e.Evaluate(ctx, base, tmpl, th)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Verdict = &verdict
	return outcome
}
