// Package service is the boundary between transports and the match engine.
//
// It validates caller input, decodes payloads, runs the engine and converts
// every outcome, including faults and panics, into a response value. Nothing
// returned from this package is a Go error: callers always get a
// well-formed success or {error} variant.
package service

import (
	"context"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/ironsheep/card-finder-mcp/internal/imaging"
	"github.com/ironsheep/card-finder-mcp/internal/logging"
	"github.com/ironsheep/card-finder-mcp/internal/match"
)

// Service exposes compare_images and find_image_on_template.
type Service struct {
	engine   *match.Engine
	defaults match.Thresholds
	logger   *zap.Logger
}

// New returns a service. defaults apply when a request omits threshold or
// min_matches; they must already be valid.
func New(engine *match.Engine, defaults match.Thresholds, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:   engine,
		defaults: defaults,
		logger:   logger.Named("service"),
	}
}

// Defaults returns the thresholds applied to omitted arguments.
func (s *Service) Defaults() match.Thresholds { return s.defaults }

func (s *Service) thresholds(ratio *float64, minMatches *int) match.Thresholds {
	th := s.defaults
	if ratio != nil {
		th.Ratio = *ratio
	}
	if minMatches != nil {
		th.MinMatches = *minMatches
	}
	return th
}

// CompareImages reports whether Image2 (the template) appears in Image1.
func (s *Service) CompareImages(ctx context.Context, req CompareRequest) (resp CompareResponse) {
	log := logging.FromContext(ctx, s.logger)

	defer func() {
		if r := recover(); r != nil {
			log.Error("compare_images panicked", zap.Any("panic", r))
			resp = CompareResponse{Failure: &ErrorResult{Error: fmt.Sprintf("internal error: %v", r)}}
		}
	}()

	th := s.thresholds(req.Threshold, req.MinMatches)
	if err := validateCompare(req, th); err != nil {
		return CompareResponse{Failure: s.failure(log, err)}
	}

	base, err := decodeBase(req.Image1)
	if err != nil {
		return CompareResponse{Failure: s.failure(log, fmt.Errorf("image1: %w", err))}
	}
	tmpl, err := imaging.DecodeGray(req.Image2)
	if err != nil {
		return CompareResponse{Failure: s.failure(log, fmt.Errorf("image2: %w", err))}
	}

	verdict, err := s.engine.Evaluate(ctx, base, tmpl, th)
	if err != nil {
		return CompareResponse{Failure: s.failure(log, err)}
	}

	log.Info("compare_images verdict",
		zap.Bool("match", verdict.Match),
		zap.Int("good_matches", verdict.GoodCount),
		zap.Float64("threshold", th.Ratio),
		zap.Int("min_matches", th.MinMatches))

	return CompareResponse{Result: &CompareResult{
		Match:      verdict.Match,
		Threshold:  th.Ratio,
		MinMatches: th.MinMatches,
		Message:    verdictMessage(verdict.Match),
	}}
}

// FindImageOnTemplate checks every template against BaseImage. A failing
// template is reported at its own index and never aborts the call.
func (s *Service) FindImageOnTemplate(ctx context.Context, req FindRequest) (resp FindResponse) {
	log := logging.FromContext(ctx, s.logger)

	defer func() {
		if r := recover(); r != nil {
			log.Error("find_image_on_template panicked", zap.Any("panic", r))
			resp = FindResponse{Failure: &ErrorResult{Error: fmt.Sprintf("internal error: %v", r)}}
		}
	}()

	th := s.thresholds(req.Threshold, req.MinMatches)
	if err := validateFind(req, th); err != nil {
		return FindResponse{Failure: s.failure(log, err)}
	}

	base, err := decodeBase(req.BaseImage)
	if err != nil {
		return FindResponse{Failure: s.failure(log, fmt.Errorf("base_image: %w", err))}
	}

	report, err := s.engine.EvaluateBatch(ctx, base, req.Templates, th, imaging.DecodeGray)
	if err != nil {
		return FindResponse{Failure: s.failure(log, err)}
	}

	results := make([]TemplateResult, len(report.Outcomes))
	for i, o := range report.Outcomes {
		results[i] = TemplateResult{TemplateIndex: o.Index}
		if o.Err != nil {
			results[i].Error = o.Err.Error()
			log.Warn("template failed", zap.Int("template_index", o.Index), zap.Error(o.Err))
			continue
		}
		results[i].Match = o.Verdict.Match
		results[i].Message = verdictMessage(o.Verdict.Match)
	}

	log.Info("find_image_on_template report",
		zap.Int("total_templates", report.Total),
		zap.Ints("matching_templates", report.Matching))

	return FindResponse{Result: &FindResult{
		BaseImage:         "provided",
		Threshold:         th.Ratio,
		MinMatches:        th.MinMatches,
		TemplateResults:   results,
		TotalTemplates:    report.Total,
		MatchingTemplates: report.Matching,
	}}
}

func validateCompare(req CompareRequest, th match.Thresholds) error {
	if req.Image1 == "" {
		return &match.ValidationError{Field: "image1", Reason: "is required"}
	}
	if req.Image2 == "" {
		return &match.ValidationError{Field: "image2", Reason: "is required"}
	}
	return th.Validate()
}

func validateFind(req FindRequest, th match.Thresholds) error {
	if req.BaseImage == "" {
		return &match.ValidationError{Field: "base_image", Reason: "is required"}
	}
	if len(req.Templates) == 0 {
		return &match.ValidationError{Field: "templates", Reason: "must be a non-empty list"}
	}
	return th.Validate()
}

// decodeBase decodes the base image in color and converts it for matching.
func decodeBase(payload string) (*image.Gray, error) {
	img, err := imaging.DecodeColor(payload)
	if err != nil {
		return nil, err
	}
	return imaging.ToGray(img), nil
}

// failure logs err at a level matching its class and wraps it for the caller.
func (s *Service) failure(log *zap.Logger, err error) *ErrorResult {
	var (
		ve *match.ValidationError
		te *imaging.TransportError
		de *imaging.DecodeError
		mf *match.MatchFault
	)
	switch {
	case errors.As(err, &ve):
		log.Warn("validation failed", zap.Error(err))
	case errors.As(err, &te), errors.As(err, &de):
		log.Warn("decode failed", zap.Error(err))
	case errors.As(err, &mf):
		log.Error("match fault", zap.Error(err))
	default:
		log.Error("unexpected error", zap.Error(err))
	}
	return &ErrorResult{Error: err.Error()}
}
