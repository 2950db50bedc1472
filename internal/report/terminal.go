package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ironsheep/speed-sign-mcp/internal/speedsign"
)

// WriteTerminal prints detections in the human-readable form:
//
//	Detected speed signs:
//	Sign 1: 60 km/h at [(x1,y1) to (x2,y2)]
//
// Signs are numbered from 1 in result order.
func WriteTerminal(w io.Writer, results []speedsign.Result) error {
	if _, err := fmt.Fprintln(w, "\nDetected speed signs:"); err != nil {
		return err
	}
	for i, r := range results {
		if _, err := fmt.Fprintf(w, "Sign %d: %s\n", i+1, r); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// FileResults pairs an image path with its detections.
type FileResults struct {
	Image   string             `json:"image"`
	Results []speedsign.Result `json:"results"`
}

// WriteJSON writes the detections of one image as indented JSON.
func WriteJSON(w io.Writer, image string, results []speedsign.Result) error {
	if results == nil {
		results = []speedsign.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FileResults{Image: image, Results: results})
}
