package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
)

// ErrEmptyInput is reported when a run ends with no usable image records.
var ErrEmptyInput = errors.New("no usable images found")

// ImageRecord holds the fingerprint and metadata of one decoded image
type ImageRecord struct {
	Path        string      `json:"path"`
	Fingerprint Fingerprint `json:"fingerprint"`
	Size        int64       `json:"size"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`

	// Index is the discovery order of the record within its run.
	Index int `json:"index"`
}

// Name returns the base file name of the record
func (r ImageRecord) Name() string {
	return filepath.Base(r.Path)
}

// SizeMB returns the file size in megabytes
func (r ImageRecord) SizeMB() float64 {
	return float64(r.Size) / (1024 * 1024)
}

// Dimensions formats the pixel size as WxH
func (r ImageRecord) Dimensions() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// DuplicateGroup holds images judged to be the same picture.
// Members are ordered by size, smallest first, ties broken by discovery order.
// Keep holds sorted member indices of the images that stay in place.
type DuplicateGroup struct {
	Members []ImageRecord `json:"members"`
	Keep    []int         `json:"keep"`
}

// NewDuplicateGroup builds a group with the default policy of keeping the first member
func NewDuplicateGroup(members []ImageRecord) DuplicateGroup {
	return DuplicateGroup{
		Members: members,
		Keep:    []int{0},
	}
}

// IsKept reports whether the member at index i is kept
func (g DuplicateGroup) IsKept(i int) bool {
	_, found := slices.BinarySearch(g.Keep, i)
	return found
}

// Keeper returns the first kept member, false if every member is discarded
func (g DuplicateGroup) Keeper() (ImageRecord, bool) {
	if len(g.Keep) == 0 {
		return ImageRecord{}, false
	}
	return g.Members[g.Keep[0]], true
}

// Kept returns the members that stay in place
func (g DuplicateGroup) Kept() []ImageRecord {
	kept := make([]ImageRecord, 0, len(g.Keep))
	for _, i := range g.Keep {
		kept = append(kept, g.Members[i])
	}
	return kept
}

// Discards returns the members that are to be moved away
func (g DuplicateGroup) Discards() []ImageRecord {
	discards := make([]ImageRecord, 0, len(g.Members)-len(g.Keep))
	for i, m := range g.Members {
		if !g.IsKept(i) {
			discards = append(discards, m)
		}
	}
	return discards
}

// Equal reports whether two groups have the same members and keep set
func (g DuplicateGroup) Equal(other DuplicateGroup) bool {
	return slices.Equal(g.Members, other.Members) && slices.Equal(g.Keep, other.Keep)
}

// RunResult is the output of one clustering run
type RunResult struct {
	Groups []DuplicateGroup `json:"groups"`

	// Singletons counts records that matched no other record.
	Singletons int `json:"singletons"`
}

// Duplicates returns the number of records that belong to a group
func (r RunResult) Duplicates() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Members)
	}
	return n
}

// Discards collects the discarded members of every group, in group order
func (r RunResult) Discards() []ImageRecord {
	var discards []ImageRecord
	for _, g := range r.Groups {
		discards = append(discards, g.Discards()...)
	}
	return discards
}
