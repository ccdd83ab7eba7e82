// Package server implements the MCP (Model Context Protocol) server for card
// matching.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Matching:
//   - compare_images: Is a template present in a base image
//   - find_image_on_template: Check many templates against one base image
//
// Payload helpers:
//   - image_to_base64: Encode an image file for the matching tools
//
// Screen capture:
//   - list_monitors: Enumerate monitors (0 is all displays)
//   - capture_screen: Grab a monitor or region as PNG
//
// # Error Handling
//
// A tool that fails still answers with a result. The content holds
// {"error": "..."} and isError is true. JSON-RPC errors are used only for
// protocol faults:
//   - -32700: the line is not JSON
//   - -32601: unknown method
//   - -32602: malformed tools/call params or an unknown tool name
//
// Every tools/call gets a fresh request ID that is attached to its log lines.
//
// # Usage
//
//	srv := server.New(svc, logger, server.Options{Version: version})
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal("server error", zap.Error(err))
//	}
package server
