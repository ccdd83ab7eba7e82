package service

import (
	"encoding/json"
	"errors"
)

// Verdict messages shown to callers.
const (
	MessageMatch   = "✅ MATCH"
	MessageNoMatch = "❌ NO MATCH"
)

func verdictMessage(match bool) string {
	if match {
		return MessageMatch
	}
	return MessageNoMatch
}

// ErrorResult is the failure shape shared by every operation.
type ErrorResult struct {
	Error string `json:"error"`
}

// CompareResult is the success shape of compare_images.
type CompareResult struct {
	Match      bool    `json:"match"`
	Threshold  float64 `json:"threshold"`
	MinMatches int     `json:"min_matches"`
	Message    string  `json:"message"`
}

// CompareResponse holds exactly one of Result or Failure.
type CompareResponse struct {
	Result  *CompareResult
	Failure *ErrorResult
}

// IsError reports whether the response is the failure variant.
func (r CompareResponse) IsError() bool { return r.Failure != nil }

// MarshalJSON emits the active variant only.
func (r CompareResponse) MarshalJSON() ([]byte, error) {
	switch {
	case r.Failure != nil:
		return json.Marshal(r.Failure)
	case r.Result != nil:
		return json.Marshal(r.Result)
	}
	return nil, errors.New("empty compare response")
}

// TemplateResult is one entry of template_results. Successful entries carry
// Message; failed entries carry Error and always report Match=false.
type TemplateResult struct {
	TemplateIndex int    `json:"template_index"`
	Match         bool   `json:"match"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

// FindResult is the success shape of find_image_on_template.
type FindResult struct {
	BaseImage         string           `json:"base_image"`
	Threshold         float64          `json:"threshold"`
	MinMatches        int              `json:"min_matches"`
	TemplateResults   []TemplateResult `json:"template_results"`
	TotalTemplates    int              `json:"total_templates"`
	MatchingTemplates []int            `json:"matching_templates"`
}

// FindResponse holds exactly one of Result or Failure.
type FindResponse struct {
	Result  *FindResult
	Failure *ErrorResult
}

// IsError reports whether the response is the failure variant.
func (r FindResponse) IsError() bool { return r.Failure != nil }

// MarshalJSON emits the active variant only.
func (r FindResponse) MarshalJSON() ([]byte, error) {
	switch {
	case r.Failure != nil:
		return json.Marshal(r.Failure)
	case r.Result != nil:
		return json.Marshal(r.Result)
	}
	return nil, errors.New("empty find response")
}
