package classifier

import "strconv"

// Speed is a classified speed limit in km/h, or NotASign.
type Speed int

// NotASign marks a region that is not a speed-limit sign.
const NotASign Speed = -1

// KnownSpeeds lists the speed limits the classifier is built to recognize.
var KnownSpeeds = []Speed{40, 50, 60, 80, 100, 120}

// IsKnown reports whether s is one of KnownSpeeds.
func (s Speed) IsKnown() bool {
	for _, k := range KnownSpeeds {
		if s == k {
			return true
		}
	}
	return false
}

func (s Speed) String() string {
	if s == NotASign {
		return "not a sign"
	}
	return strconv.Itoa(int(s)) + " km/h"
}
