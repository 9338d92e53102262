package cluster

import (
	"errors"
	"fmt"
	"slices"

	"photodedupe/types"
)

// ErrIndexOutOfRange is returned when an override names a member that does not exist
var ErrIndexOutOfRange = errors.New("member index out of range")

// ApplyOverride returns a copy of g whose keep set is exactly keep.
// Indices are sorted and deduplicated; an empty keep set discards every member.
func ApplyOverride(g types.DuplicateGroup, keep []int) (types.DuplicateGroup, error) {
	normalized := slices.Clone(keep)
	for _, i := range normalized {
		if i < 0 || i >= len(g.Members) {
			return g, fmt.Errorf("%w: %d (group has %d members)", ErrIndexOutOfRange, i, len(g.Members))
		}
	}
	slices.Sort(normalized)
	normalized = slices.Compact(normalized)
	if normalized == nil {
		normalized = []int{}
	}

	return types.DuplicateGroup{
		Members: g.Members,
		Keep:    normalized,
	}, nil
}

// Toggle flips the member at index i between kept and discarded
func Toggle(g types.DuplicateGroup, i int) (types.DuplicateGroup, error) {
	keep := slices.Clone(g.Keep)
	if pos, found := slices.BinarySearch(keep, i); found {
		keep = slices.Delete(keep, pos, pos+1)
	} else {
		keep = append(keep, i)
	}
	return ApplyOverride(g, keep)
}
