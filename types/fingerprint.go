package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// RowBits is the width of the row-gradient hash
	RowBits = 64

	// FullBits is the width of a row plus column fingerprint
	FullBits = 128
)

// Fingerprint is a perceptual difference hash.
// Rows holds the row-gradient bits and Cols the column-gradient bits;
// Cols is zero for row-only fingerprints.
type Fingerprint struct {
	Rows uint64
	Cols uint64
	Bits int
}

// String returns the hex representation of the fingerprint
func (f Fingerprint) String() string {
	if f.Bits == RowBits {
		return fmt.Sprintf("%016x", f.Rows)
	}
	return fmt.Sprintf("%016x%016x", f.Rows, f.Cols)
}

// ParseFingerprint parses the hex form produced by Fingerprint.String
func ParseFingerprint(s string) (Fingerprint, error) {
	switch len(s) {
	case 16:
		rows, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			return Fingerprint{}, fmt.Errorf("invalid fingerprint %q: %w", s, err)
		}
		return Fingerprint{Rows: rows, Bits: RowBits}, nil
	case 32:
		rows, err := strconv.ParseUint(s[:16], 16, 64)
		if err != nil {
			return Fingerprint{}, fmt.Errorf("invalid fingerprint %q: %w", s, err)
		}
		cols, err := strconv.ParseUint(s[16:], 16, 64)
		if err != nil {
			return Fingerprint{}, fmt.Errorf("invalid fingerprint %q: %w", s, err)
		}
		return Fingerprint{Rows: rows, Cols: cols, Bits: FullBits}, nil
	default:
		return Fingerprint{}, fmt.Errorf("invalid fingerprint length %d: %q", len(s), s)
	}
}

// MarshalJSON encodes the fingerprint as its hex string
func (f Fingerprint) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON decodes a hex string fingerprint
func (f *Fingerprint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFingerprint(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
