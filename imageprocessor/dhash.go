package imageprocessor

import (
	"fmt"
	"image"
	"slices"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"

	"photodedupe/types"
)

// Algorithm names a fingerprint algorithm
type Algorithm string

const (
	// AlgorithmDHash is the 128-bit row plus column difference hash
	AlgorithmDHash Algorithm = "dhash"

	// AlgorithmDHashRow is the 64-bit row-only difference hash
	AlgorithmDHashRow Algorithm = "dhash-row"
)

// DefaultFilter is the resample filter used when none is configured
const DefaultFilter = "lanczos"

var filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"mitchell":   imaging.MitchellNetravali,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"gaussian":   imaging.Gaussian,
	"nearest":    imaging.NearestNeighbor,
}

// ParseAlgorithm validates an algorithm name
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(name)); a {
	case AlgorithmDHash, AlgorithmDHashRow:
		return a, nil
	default:
		return "", fmt.Errorf("unknown fingerprint algorithm %q", name)
	}
}

// ParseFilter resolves a resample filter by name
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q (known: %s)", name, strings.Join(FilterNames(), ", "))
	}
	return f, nil
}

// FilterNames returns the names accepted by ParseFilter, sorted
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ComputeDifferenceHash computes the 128-bit difference hash of img.
//
// The grayscale image is shrunk to 9x8 and each bit records whether a pixel
// is darker than its right neighbour; it is shrunk again to 8x9 and each bit
// records whether a pixel is darker than the one below. Bits are laid out
// row-major with the first comparison in the most significant position.
func ComputeDifferenceHash(img image.Image, filter imaging.ResampleFilter) (types.Fingerprint, error) {
	if img == nil || img.Bounds().Empty() {
		return types.Fingerprint{}, fmt.Errorf("cannot compute hash for empty image")
	}

	gray := imaging.Grayscale(img)
	wide := imaging.Resize(gray, 9, 8, filter)
	tall := imaging.Resize(gray, 8, 9, filter)

	var rows, cols uint64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			rows <<= 1
			if luma(wide, x, y) < luma(wide, x+1, y) {
				rows |= 1
			}
			cols <<= 1
			if luma(tall, x, y) < luma(tall, x, y+1) {
				cols |= 1
			}
		}
	}

	return types.Fingerprint{Rows: rows, Cols: cols, Bits: types.FullBits}, nil
}

// ComputeRowHash computes the 64-bit row-only difference hash of img
func ComputeRowHash(img image.Image) (types.Fingerprint, error) {
	if img == nil || img.Bounds().Empty() {
		return types.Fingerprint{}, fmt.Errorf("cannot compute hash for empty image")
	}

	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return types.Fingerprint{}, fmt.Errorf("failed to compute difference hash: %w", err)
	}
	return types.Fingerprint{Rows: hash.GetHash(), Bits: types.RowBits}, nil
}

// luma reads the gray level of a pixel in a grayscale NRGBA image
func luma(img *image.NRGBA, x, y int) uint8 {
	return img.Pix[y*img.Stride+x*4]
}
