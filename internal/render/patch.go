// Package render splices link markup into text.
package render

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrPatchBounds is returned for a patch outside the original content.
	ErrPatchBounds = errors.New("invalid patch bounds")
	// ErrOverlappingPatches is returned when two patches share bytes.
	ErrOverlappingPatches = errors.New("overlapping patches detected")
)

// Patch replaces original[Start:End] with NewText.
type Patch struct {
	Start   int
	End     int
	NewText []byte
}

// ApplyPatches applies patches to original and returns the result. Patches
// may be given in any order; they are sorted and copied into the output in
// one forward pass. original is never modified.
func ApplyPatches(original []byte, patches []Patch) ([]byte, error) {
	if len(patches) == 0 {
		return original, nil
	}

	sorted := make([]Patch, len(patches))
	copy(sorted, patches)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	grow := 0
	for i, p := range sorted {
		if p.Start < 0 || p.End > len(original) || p.Start > p.End {
			return nil, fmt.Errorf("%w: [%d, %d) in content of length %d", ErrPatchBounds, p.Start, p.End, len(original))
		}
		if i > 0 && p.Start < sorted[i-1].End {
			return nil, fmt.Errorf("%w: [%d, %d) and [%d, %d)", ErrOverlappingPatches, sorted[i-1].Start, sorted[i-1].End, p.Start, p.End)
		}
		grow += len(p.NewText) - (p.End - p.Start)
	}

	result := make([]byte, 0, len(original)+max(grow, 0))
	last := 0
	for _, p := range sorted {
		result = append(result, original[last:p.Start]...)
		result = append(result, p.NewText...)
		last = p.End
	}
	return append(result, original[last:]...), nil
}
