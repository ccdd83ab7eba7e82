package server

import (
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"compare_images",
		"find_image_on_template",
		"image_to_base64",
		"list_monitors",
		"capture_screen",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Name == "" {
				t.Error("Tool name is empty")
			}
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}

			if schemaType := tool.InputSchema["type"]; schemaType != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", schemaType)
			}
			if props, ok := tool.InputSchema["properties"]; !ok || props == nil {
				t.Error("InputSchema missing 'properties' field")
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	tests := []struct {
		tool     string
		required []string
	}{
		{"compare_images", []string{"image1", "image2"}},
		{"find_image_on_template", []string{"base_image", "templates"}},
		{"image_to_base64", []string{"path"}},
		{"list_monitors", nil},
		{"capture_screen", nil},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			tool, ok := toolMap[tt.tool]
			if !ok {
				t.Fatalf("Tool %s not found", tt.tool)
			}

			required, _ := tool.InputSchema["required"].([]string)
			if len(required) != len(tt.required) {
				t.Fatalf("required: got %v, want %v", required, tt.required)
			}
			for i, name := range tt.required {
				if required[i] != name {
					t.Errorf("required[%d]: got %s, want %s", i, required[i], name)
				}
			}

			props := tool.InputSchema["properties"].(map[string]interface{})
			for _, name := range tt.required {
				if _, ok := props[name]; !ok {
					t.Errorf("required field %s is not a declared property", name)
				}
			}
		})
	}
}

func TestToolDefinitions_ThresholdDefaults(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		props := tool.InputSchema["properties"].(map[string]interface{})

		threshold, ok := props["threshold"].(map[string]interface{})
		if !ok {
			continue
		}
		if threshold["default"] != 0.4 {
			t.Errorf("%s: threshold default: got %v, want 0.4", tool.Name, threshold["default"])
		}
		if threshold["type"] != "number" {
			t.Errorf("%s: threshold type: got %v", tool.Name, threshold["type"])
		}

		minMatches, ok := props["min_matches"].(map[string]interface{})
		if !ok {
			t.Errorf("%s: has threshold but no min_matches", tool.Name)
			continue
		}
		if minMatches["default"] != 4 {
			t.Errorf("%s: min_matches default: got %v, want 4", tool.Name, minMatches["default"])
		}
		if minMatches["type"] != "integer" {
			t.Errorf("%s: min_matches type: got %v", tool.Name, minMatches["type"])
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer()
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      "list-1",
	}

	resp := s.handleToolsList(req)

	if resp.ID != "list-1" {
		t.Errorf("ID: got %v, want list-1", resp.ID)
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	// The list must survive the wire round trip clients see
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded struct {
		Result struct {
			Tools []struct {
				Name        string                 `json:"name"`
				InputSchema map[string]interface{} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if len(decoded.Result.Tools) != len(GetToolDefinitions()) {
		t.Errorf("tools: got %d", len(decoded.Result.Tools))
	}
	for _, tool := range decoded.Result.Tools {
		if tool.InputSchema["type"] != "object" {
			t.Errorf("%s: schema type lost in encoding", tool.Name)
		}
	}
}
