package match

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Folded is content lower-cased for matching, with a way back to the
// original byte offsets. Lower-casing can change a rune's encoded width
// (e.g. U+0130), so offsets into Lower are not always offsets into the
// original.
type Folded struct {
	Lower   string
	offsets []int // nil when every rune kept its width
	origLen int
}

// Fold lower-cases content rune by rune.
func Fold(content string) Folded {
	var b strings.Builder
	b.Grow(len(content))
	offsets := make([]int, 0, len(content)+1)
	aligned := true

	for i := 0; i < len(content); {
		r, size := utf8.DecodeRuneInString(content[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(content[i])
			offsets = append(offsets, i)
			i++
			continue
		}
		lr := unicode.ToLower(r)
		n, _ := b.WriteRune(lr)
		if n != size {
			aligned = false
		}
		for k := 0; k < n; k++ {
			offsets = append(offsets, i)
		}
		i += size
	}
	offsets = append(offsets, len(content))

	f := Folded{Lower: b.String(), origLen: len(content)}
	if !aligned {
		f.offsets = offsets
	}
	return f
}

// Orig maps a byte offset in Lower to the matching offset in the original.
func (f Folded) Orig(i int) int {
	if f.offsets == nil {
		return i
	}
	if i < 0 {
		return 0
	}
	if i >= len(f.offsets) {
		return f.origLen
	}
	return f.offsets[i]
}
