// Package speedsign detects speed-limit signs in a photograph.
//
// A Detector chains a detection.Proposer, which finds red-rimmed candidate
// regions, with a classifier.Classifier, which reads the speed inside each
// region. Regions that do not look like any exemplar are dropped, so every
// Result carries one of the exemplar speeds.
//
// Example usage:
//
//	proposer, _ := detection.NewProposer(detection.DefaultProposerConfig())
//	cls, err := classifier.NewClassifierFromFile("exemplars.npy")
//	if err != nil {
//	    return err
//	}
//	results, err := speedsign.NewDetector(proposer, cls).Detect(ctx, img)
package speedsign
