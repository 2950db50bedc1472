// Package detection proposes candidate speed-limit sign regions in a color image.
//
// Signs in scope have a red circular rim. The proposer finds red pixels,
// cleans the resulting mask with binary morphology, groups the remaining
// pixels into connected components, and keeps the components whose bounding
// boxes have a plausible size and shape.
//
// # Pipeline
//
//  1. Color mask: convert to HSV and keep pixels with a red hue (near either
//     end of the hue scale), enough saturation and enough brightness.
//  2. Primary stage: closing, opening and a final erosion, then
//     connected-component labeling and the box filter.
//  3. Fallback stage: only when the primary stage finds nothing. The raw
//     color mask is dilated, the largest qualifying component is kept, and
//     it is discarded again if any row or column of its box is completely
//     set.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// A BoundingBox holds the minimum and maximum column and row of its
// component. Width is X2-X1 and height is Y2-Y1, and BoundingBox.Rect gives
// the crop rectangle used downstream, which excludes the last row and column.
//
// # Morphology
//
// Morphology uses square structuring elements. Pixels outside the image are
// treated as unset, so erosion always clears a border band. Labeling scans
// rows top to bottom and columns left to right, which fixes the order of the
// returned boxes.
//
// # Diagnostics
//
// WithObserver installs a callback that receives each intermediate mask
// together with its stage name. Mask.Gray converts a mask into an image for
// dumping to disk.
package detection
