package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func thresholdProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Lowe ratio-test threshold in [0.0, 1.0]. A correspondence is good when its best distance is below threshold times the second-best. Default 0.4",
		"default":     0.4,
		"minimum":     0.0,
		"maximum":     1.0,
	}
}

func minMatchesProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Minimum number of good correspondences required for a match. Default 4",
		"default":     4,
		"minimum":     1,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Matching
		{
			Name:        "compare_images",
			Description: "Check whether a template image (image2) appears inside a base image (image1) using SIFT keypoints and a ratio test.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image1": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded base image (the scene to search)",
					},
					"image2": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded template image (the card to look for)",
					},
					"threshold":   thresholdProperty(),
					"min_matches": minMatchesProperty(),
				},
				"required": []string{"image1", "image2"},
			},
		},
		{
			Name:        "find_image_on_template",
			Description: "Check a list of template images against one base image. Each template is evaluated independently; failures are reported per template and do not abort the call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"base_image": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded base image (the scene to search)",
					},
					"templates": map[string]interface{}{
						"type":        "array",
						"description": "Base64-encoded template images, in order",
						"items":       map[string]interface{}{"type": "string"},
						"minItems":    1,
					},
					"threshold":   thresholdProperty(),
					"min_matches": minMatchesProperty(),
				},
				"required": []string{"base_image", "templates"},
			},
		},

		// Payload helpers
		{
			Name:        "image_to_base64",
			Description: "Read an image file and return its bytes as standard base64, ready to pass to compare_images or find_image_on_template.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Screen capture
		{
			Name:        "list_monitors",
			Description: "List capturable monitors. Index 0 spans all displays; 1..N are the individual displays.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "capture_screen",
			Description: "Capture a monitor or a screen region and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"monitor": map[string]interface{}{
						"type":        "integer",
						"description": "Monitor index from list_monitors. Out-of-range indexes fall back to 1. Default 1",
						"default":     1,
						"minimum":     0,
					},
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional region in screen coordinates; overrides monitor",
						"properties": map[string]interface{}{
							"x":      map[string]interface{}{"type": "integer"},
							"y":      map[string]interface{}{"type": "integer"},
							"width":  map[string]interface{}{"type": "integer", "minimum": 1},
							"height": map[string]interface{}{"type": "integer", "minimum": 1},
						},
						"required": []string{"x", "y", "width", "height"},
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
