package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/card-finder-mcp/internal/match"
)

// CompareRequest carries the arguments of compare_images. Nil thresholds fall
// back to the service defaults.
type CompareRequest struct {
	Image1     string
	Image2     string
	Threshold  *float64
	MinMatches *int
}

// FindRequest carries the arguments of find_image_on_template. An empty string
// in Templates marks a missing template slot.
type FindRequest struct {
	BaseImage  string
	Templates  []string
	Threshold  *float64
	MinMatches *int
}

// ParseCompareArgs decodes compare_images arguments from a JSON object.
// Type mismatches are reported as *match.ValidationError.
func ParseCompareArgs(raw json.RawMessage) (CompareRequest, error) {
	var req CompareRequest

	fields, err := objectFields(raw)
	if err != nil {
		return req, err
	}
	if req.Image1, err = stringField(fields, "image1"); err != nil {
		return req, err
	}
	if req.Image2, err = stringField(fields, "image2"); err != nil {
		return req, err
	}
	if req.Threshold, err = floatField(fields, "threshold"); err != nil {
		return req, err
	}
	if req.MinMatches, err = intField(fields, "min_matches"); err != nil {
		return req, err
	}
	return req, nil
}

// ParseFindArgs decodes find_image_on_template arguments from a JSON object.
//
// templates must be a JSON array. Elements that are null or not strings are
// kept as empty slots so they surface as per-template errors at their index.
func ParseFindArgs(raw json.RawMessage) (FindRequest, error) {
	var req FindRequest

	fields, err := objectFields(raw)
	if err != nil {
		return req, err
	}
	if req.BaseImage, err = stringField(fields, "base_image"); err != nil {
		return req, err
	}
	if req.Templates, err = templatesField(fields, "templates"); err != nil {
		return req, err
	}
	if req.Threshold, err = floatField(fields, "threshold"); err != nil {
		return req, err
	}
	if req.MinMatches, err = intField(fields, "min_matches"); err != nil {
		return req, err
	}
	return req, nil
}

func objectFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &match.ValidationError{Reason: fmt.Sprintf("arguments must be a JSON object: %v", err)}
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields, nil
}

func isNull(v json.RawMessage) bool {
	return len(v) == 0 || string(bytes.TrimSpace(v)) == "null"
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	v, ok := fields[name]
	if !ok || isNull(v) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", &match.ValidationError{Field: name, Reason: "must be a string"}
	}
	return s, nil
}

func floatField(fields map[string]json.RawMessage, name string) (*float64, error) {
	v, ok := fields[name]
	if !ok || isNull(v) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return nil, &match.ValidationError{Field: name, Reason: "must be a number"}
	}
	return &f, nil
}

func intField(fields map[string]json.RawMessage, name string) (*int, error) {
	v, ok := fields[name]
	if !ok || isNull(v) {
		return nil, nil
	}
	var n json.Number
	if bytes.HasPrefix(bytes.TrimSpace(v), []byte(`"`)) {
		return nil, &match.ValidationError{Field: name, Reason: "must be an integer"}
	}
	if err := json.Unmarshal(v, &n); err != nil {
		return nil, &match.ValidationError{Field: name, Reason: "must be an integer"}
	}
	i, err := n.Int64()
	if err != nil {
		return nil, &match.ValidationError{Field: name, Reason: "must be an integer"}
	}
	out := int(i)
	return &out, nil
}

func templatesField(fields map[string]json.RawMessage, name string) ([]string, error) {
	v, ok := fields[name]
	if !ok || isNull(v) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, &match.ValidationError{Field: name, Reason: "must be a list of base64 strings"}
	}
	out := make([]string, len(items))
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out[i] = s
		}
	}
	return out, nil
}
