// Package server implements the MCP (Model Context Protocol) server for speed
// limit sign detection.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line:
//   - Input: JSON-RPC requests on stdin
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
// Basic Image Information:
//   - image_load: Load image and report metadata
//   - image_crop: Extract rectangular region as PNG
//
// Speed Sign Operations:
//   - speedsign_propose_regions: Candidate boxes from color segmentation
//   - speedsign_classify_region: Speed label of one box
//   - speedsign_detect: Boxes and speeds of every sign
//   - speedsign_annotate: Detected signs drawn onto the image
//
// The speed sign tools need a detector; a server created without one
// answers them with ErrNoDetector.
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the server, so
// proposing, classifying and annotating the same file decodes it once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(detector, server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
