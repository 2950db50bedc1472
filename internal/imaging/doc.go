// Package imaging provides the image plumbing shared by the speed-sign
// detector: decoding and caching, normalization to three channels, color
// space conversion, region cropping, and annotation.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Channel Normalization
//
// The detector works on three 8-bit channels. Normalize drops any alpha
// channel (keeping the stored color values) and rejects single-channel
// images with ErrInvalidImageFormat. The RGB type produced by Normalize
// implements image.Image, so it can be passed to bild, disintegration/imaging
// and gg without conversion.
//
// # Color Representation
//
// ToHSV returns hue, saturation and value planes scaled to [0, 1], with hue
// wrapping around at red.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. RGB images are never mutated by this
// package after they are returned, so they can be shared across goroutines.
package imaging
