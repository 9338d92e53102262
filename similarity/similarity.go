// Package similarity compares perceptual fingerprints.
package similarity

import (
	"errors"
	"fmt"
	"math/bits"

	"photodedupe/types"
)

// DefaultThreshold is the largest bit distance still treated as the same picture.
// It tolerates re-encoding noise while rejecting different images.
const DefaultThreshold = 2

// ErrNegativeThreshold is returned for thresholds below zero
var ErrNegativeThreshold = errors.New("threshold must not be negative")

// Distance returns the number of bit positions in which a and b differ
func Distance(a, b types.Fingerprint) int {
	return bits.OnesCount64(a.Rows^b.Rows) + bits.OnesCount64(a.Cols^b.Cols)
}

// IsDuplicate reports whether a and b are within threshold bits of each other
func IsDuplicate(a, b types.Fingerprint, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Comparator decides duplicate verdicts against a fixed threshold
type Comparator struct {
	Threshold int
}

// NewComparator validates threshold and returns a Comparator for it
func NewComparator(threshold int) (Comparator, error) {
	if threshold < 0 {
		return Comparator{}, fmt.Errorf("%w: %d", ErrNegativeThreshold, threshold)
	}
	return Comparator{Threshold: threshold}, nil
}

// Match reports whether a and b are duplicates under the comparator's threshold
func (c Comparator) Match(a, b types.Fingerprint) bool {
	return IsDuplicate(a, b, c.Threshold)
}
