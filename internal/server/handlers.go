package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/speed-sign-mcp/internal/detection"
	"github.com/ironsheep/speed-sign-mcp/internal/imaging"
	"github.com/ironsheep/speed-sign-mcp/internal/speedsign"
)

// ErrNoDetector is returned by the speed sign tools when the server was
// started without exemplars.
var ErrNoDetector = errors.New("no speed sign detector configured")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "speedsign_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Debugw("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_crop":
		return s.handleImageCrop(args)

	// Speed Sign Operations
	case "speedsign_propose_regions":
		return s.handleProposeRegions(args)
	case "speedsign_classify_region":
		return s.handleClassifyRegion(ctx, args)
	case "speedsign_detect":
		return s.handleDetect(ctx, args)
	case "speedsign_annotate":
		return s.handleAnnotate(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imagePathArgs struct {
	Path string `json:"path"`
}

func (a imagePathArgs) validate() error {
	if a.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	// image_load always rereads the file so a changed image replaces the
	// cached copy.
	s.cache.Evict(a.Path)
	info, err := imaging.LoadImageInfo(a.Path)
	if err != nil {
		return nil, err
	}
	if info.Supported {
		// Warm the cache for the tools that follow.
		if _, err := s.cache.Load(a.Path); err != nil {
			return nil, err
		}
	}
	return info, nil
}

type imageRegionArgs struct {
	Path string `json:"path"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"`
	Y2   int    `json:"y2"`
}

func (a imageRegionArgs) validate() error {
	if a.Path == "" {
		return errors.New("path is required")
	}
	if a.X1 >= a.X2 || a.Y1 >= a.Y2 {
		return errors.New("invalid region: x1 must be < x2, y1 must be < y2")
	}
	return nil
}

type imageCropArgs struct {
	imageRegionArgs
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
}

// === Speed Sign Handlers ===

// ProposeResult lists candidate regions for one image.
type ProposeResult struct {
	Boxes [][4]int `json:"boxes"`
	Count int      `json:"count"`
}

// ClassifyResult is the label of one region.
type ClassifyResult struct {
	BBox  [4]int `json:"bbox"`
	Speed int    `json:"speed"`
	Label string `json:"label"`
}

// DetectResult lists the signs found in one image.
type DetectResult struct {
	Signs []speedsign.Result `json:"signs"`
	Count int                `json:"count"`
}

// detectionArgs decodes args into a after checking that the speed sign
// tools are available.
func (s *Server) detectionArgs(args json.RawMessage, a interface{ validate() error }) error {
	if s.detector == nil {
		return ErrNoDetector
	}
	if err := json.Unmarshal(args, a); err != nil {
		return err
	}
	return a.validate()
}

func (s *Server) handleProposeRegions(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := s.detectionArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	boxes, err := s.detector.Proposer().Propose(img)
	if err != nil {
		return nil, err
	}
	out := &ProposeResult{Boxes: make([][4]int, len(boxes)), Count: len(boxes)}
	for i, b := range boxes {
		out.Boxes[i] = b.Array()
	}
	return out, nil
}

func (s *Server) handleClassifyRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageRegionArgs
	if err := s.detectionArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	box := detection.BoundingBox{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2}
	speeds, err := s.detector.ClassifyRegions(ctx, img, []detection.BoundingBox{box})
	if err != nil {
		return nil, err
	}
	return &ClassifyResult{BBox: box.Array(), Speed: int(speeds[0]), Label: speeds[0].String()}, nil
}

func (s *Server) detect(ctx context.Context, args json.RawMessage) (*imaging.RGB, []speedsign.Result, error) {
	var a imagePathArgs
	if err := s.detectionArgs(args, &a); err != nil {
		return nil, nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.detector.Detect(ctx, img)
	if err != nil {
		return nil, nil, err
	}
	return img, results, nil
}

func (s *Server) handleDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	_, results, err := s.detect(ctx, args)
	if err != nil {
		return nil, err
	}
	return &DetectResult{Signs: results, Count: len(results)}, nil
}

func (s *Server) handleAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	img, results, err := s.detect(ctx, args)
	if err != nil {
		return nil, err
	}
	anns := make([]imaging.Annotation, len(results))
	for i, r := range results {
		anns[i] = imaging.Annotation{Rect: r.BBox.Rect(), Label: r.Speed.String()}
	}
	return imaging.AnnotateBase64(img, anns)
}
