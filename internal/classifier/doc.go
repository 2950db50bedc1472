// Package classifier identifies the speed printed on a cropped sign region.
//
// A region is reduced to a fixed-length grayscale descriptor (see
// Preprocess) and labeled with the speed of the nearest exemplar in
// Euclidean distance. Exemplars are loaded from an N x 4097 matrix whose
// first column is the speed label, stored either as a NumPy .npy file or
// as comma- or whitespace-separated text.
//
// Regions that cannot produce a full descriptor, such as empty crops, are
// classified as NotASign rather than reported as errors.
package classifier
