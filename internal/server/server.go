package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/card-finder-mcp/internal/capture"
	"github.com/ironsheep/card-finder-mcp/internal/service"
)

// ServerName is reported in the initialize handshake.
const ServerName = "card-finder-mcp"

// protocolVersion is the MCP revision this server speaks.
const protocolVersion = "2024-11-05"

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// Server handles MCP protocol communication
type Server struct {
	svc             *service.Service
	capturer        *capture.Capturer
	logger          *zap.Logger
	version         string
	maxRequestBytes int
}

// Options configures optional server behaviour.
type Options struct {
	// Version is reported in serverInfo.
	Version string

	// MaxRequestBytes bounds a single request line. Zero means 1 MiB.
	MaxRequestBytes int

	// Capturer backs list_monitors and capture_screen. When nil those tools
	// report that screen capture is unavailable.
	Capturer *capture.Capturer
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(svc *service.Service, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.MaxRequestBytes <= 0 {
		opts.MaxRequestBytes = 1024 * 1024
	}
	return &Server{
		svc:             svc,
		capturer:        opts.Capturer,
		logger:          logger.Named("mcp"),
		version:         opts.Version,
		maxRequestBytes: opts.MaxRequestBytes,
	}
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC message per line from r and writes responses to w
// until r is exhausted or ctx is cancelled.
//
// A line longer than the request limit is discarded and answered with an
// Invalid Request error carrying a null id; serving continues with the next
// line.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	// Requests carry base64 images, so lines can be large
	reader := bufio.NewReaderSize(r, 64*1024)
	encoder := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := s.readLine(reader)
		if errors.Is(err, errLineTooLong) {
			s.logger.Warn("request exceeds size limit", zap.Int("max_request_bytes", s.maxRequestBytes))
			resp := errorResponse(nil, codeInvalidRequest, "Request too large",
				fmt.Sprintf("request exceeds %d bytes", s.maxRequestBytes))
			if err := encoder.Encode(resp); err != nil {
				return fmt.Errorf("failed to encode response: %w", err)
			}
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read error: %w", err)
		}

		if len(bytes.TrimSpace(line)) > 0 {
			if resp := s.handleLine(ctx, line); resp != nil {
				if err := encoder.Encode(resp); err != nil {
					return fmt.Errorf("failed to encode response: %w", err)
				}
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// errLineTooLong is returned by readLine after an oversized line has been
// consumed up to and including its newline.
var errLineTooLong = errors.New("request line too long")

// readLine returns the next line without its trailing newline. io.EOF is
// returned together with any final unterminated line.
func (s *Server) readLine(reader *bufio.Reader) ([]byte, error) {
	var line []byte
	tooLong := false

	for {
		chunk, err := reader.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > s.maxRequestBytes+1 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err != nil:
			if tooLong {
				return nil, errLineTooLong
			}
			return bytes.TrimRight(line, "\r\n"), err
		}

		if tooLong {
			return nil, errLineTooLong
		}
		return bytes.TrimRight(line, "\r\n"), nil
	}
}

// handleLine decodes one request line and dispatches it.
func (s *Server) handleLine(ctx context.Context, line []byte) *MCPResponse {
	var req MCPRequest
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("failed to parse request", zap.Error(err))
		return errorResponse(nil, codeParseError, "Parse error", err.Error())
	}
	return s.handleRequest(ctx, &req)
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	}

	// Client notifications never get a response
	if strings.HasPrefix(req.Method, "notifications/") {
		s.logger.Debug("notification", zap.String("method", req.Method))
		return nil
	}

	return errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}
