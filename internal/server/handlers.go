package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/card-finder-mcp/internal/capture"
	"github.com/ironsheep/card-finder-mcp/internal/imaging"
	"github.com/ironsheep/card-finder-mcp/internal/logging"
	"github.com/ironsheep/card-finder-mcp/internal/service"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "compare_images").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// toolResult is what a tool handler hands back to handleToolsCall. Failed
// tools still produce a payload ({"error": ...}); IsError flags it for the
// client.
type toolResult struct {
	Payload interface{}
	IsError bool
}

// errUnknownTool is returned by executeTool for names outside the tool table.
var errUnknownTool = errors.New("unknown tool")

// errCaptureUnavailable is reported by the screen tools when the server runs
// without a capturer.
var errCaptureUnavailable = errors.New("screen capture is not available")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}],
//	  "isError": false
//	}
//
// Tool failures are reported in the content with isError set. JSON-RPC errors
// are reserved for malformed params and unknown tools.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	requestID := uuid.NewString()
	log := logging.WithOperation(s.logger, params.Name, requestID)
	ctx = logging.ContextWithLogger(ctx, log)

	start := time.Now()
	result, err := s.executeTool(ctx, requestID, params.Name, params.Arguments)
	if errors.Is(err, errUnknownTool) {
		log.Warn("unknown tool")
		return errorResponse(req.ID, codeInvalidParams, "Unknown tool", params.Name)
	}

	log.Debug("tool finished",
		zap.Bool("is_error", result.IsError),
		zap.Duration("elapsed", time.Since(start)))

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result.Payload),
				},
			},
			"isError": result.IsError,
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// The matching tools delegate to the service, which never fails at the Go
// level. The remaining tools convert their errors into an error payload here.
func (s *Server) executeTool(ctx context.Context, requestID, name string, args json.RawMessage) (toolResult, error) {
	var (
		payload interface{}
		err     error
	)

	switch name {
	// Matching
	case "compare_images":
		return s.handleCompareImages(ctx, args), nil
	case "find_image_on_template":
		return s.handleFindImageOnTemplate(ctx, args), nil

	// Payload helpers
	case "image_to_base64":
		payload, err = s.handleImageToBase64(args)

	// Screen capture
	case "list_monitors":
		payload, err = s.handleListMonitors()
	case "capture_screen":
		payload, err = s.handleCaptureScreen(args)

	default:
		return toolResult{}, fmt.Errorf("%w: %s", errUnknownTool, name)
	}

	if err != nil {
		err = logging.NewOperationError(name, requestID, err)
		logging.FromContext(ctx, s.logger).Warn("tool failed", zap.Error(err))
		return toolResult{Payload: service.ErrorResult{Error: err.Error()}, IsError: true}, nil
	}
	return toolResult{Payload: payload}, nil
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an error object instead.
func mustMarshalJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		b, _ = json.Marshal(service.ErrorResult{Error: err.Error()})
	}
	return string(b)
}

// decodeArgs unmarshals tool arguments, treating absent arguments as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Matching Handlers ===

func (s *Server) handleCompareImages(ctx context.Context, args json.RawMessage) toolResult {
	req, err := service.ParseCompareArgs(args)
	if err != nil {
		logging.FromContext(ctx, s.logger).Warn("invalid arguments", zap.Error(err))
		return toolResult{Payload: service.ErrorResult{Error: err.Error()}, IsError: true}
	}
	resp := s.svc.CompareImages(ctx, req)
	return toolResult{Payload: resp, IsError: resp.IsError()}
}

func (s *Server) handleFindImageOnTemplate(ctx context.Context, args json.RawMessage) toolResult {
	req, err := service.ParseFindArgs(args)
	if err != nil {
		logging.FromContext(ctx, s.logger).Warn("invalid arguments", zap.Error(err))
		return toolResult{Payload: service.ErrorResult{Error: err.Error()}, IsError: true}
	}
	resp := s.svc.FindImageOnTemplate(ctx, req)
	return toolResult{Payload: resp, IsError: resp.IsError()}
}

// === Payload Helper Handlers ===

type imageToBase64Args struct {
	Path string `json:"path"`
}

func (s *Server) handleImageToBase64(args json.RawMessage) (interface{}, error) {
	var a imageToBase64Args
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return imaging.EncodeFile(a.Path)
}

// === Screen Capture Handlers ===

type listMonitorsResult struct {
	Monitors []capture.Monitor `json:"monitors"`
	Count    int               `json:"count"`
}

func (s *Server) handleListMonitors() (interface{}, error) {
	if s.capturer == nil {
		return nil, errCaptureUnavailable
	}
	monitors := s.capturer.Monitors()
	if monitors == nil {
		monitors = []capture.Monitor{}
	}
	return listMonitorsResult{Monitors: monitors, Count: len(monitors)}, nil
}

type captureScreenArgs struct {
	Monitor *int `json:"monitor"`
	Region  *struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"region"`
}

func (s *Server) handleCaptureScreen(args json.RawMessage) (interface{}, error) {
	var a captureScreenArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if s.capturer == nil {
		return nil, errCaptureUnavailable
	}

	var (
		img *image.RGBA
		err error
	)
	if a.Region != nil {
		img, err = s.capturer.Region(a.Region.X, a.Region.Y, a.Region.Width, a.Region.Height)
	} else {
		monitor := 1
		if a.Monitor != nil {
			monitor = *a.Monitor
		}
		img, _, err = s.capturer.Monitor(monitor)
	}
	if err != nil {
		return nil, err
	}
	return imaging.EncodeImage(img)
}
