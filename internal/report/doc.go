// Package report formats detection results for people and for scripts.
//
// WriteTerminal and WriteJSON cover single images. Evaluate runs a detector
// over a directory of labeled test images (named <speed>-<id>x<count>.png)
// and produces a BatchSummary that can be printed as a log or a table.
package report
