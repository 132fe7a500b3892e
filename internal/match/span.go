// Package match finds the linkable spans in a piece of text: whitelist terms
// located through the term index, and headings located structurally.
//
// Every function here is pure given its inputs. The only state is the
// Scanner's seen-set, which lives for one resolution call.
package match

import "sort"

// Kind distinguishes how a span was found.
type Kind int

const (
	KindTerm Kind = iota
	KindHeading
)

func (k Kind) String() string {
	switch k {
	case KindTerm:
		return "term"
	case KindHeading:
		return "heading"
	default:
		return "unknown"
	}
}

// Span is an accepted [Start, End) byte range of the scanned content.
type Span struct {
	Start  int
	End    int
	Source string // original-case text of the range
	Kind   Kind
	Title  string // link target title
	Key    string // canonical lower-cased term, or lower-cased heading text
}

// Len returns the byte length of the span.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Region is a range of the content that term matching must not claim.
// When MarkSeen is set, terms found inside it still count as linked for the
// first-occurrence policy; this is how existing links are treated.
type Region struct {
	Start    int
	End      int
	MarkSeen bool
}

// Range is a plain [Start, End) byte range.
type Range struct {
	Start int
	End   int
}

// Merge combines heading and term spans into one list sorted by Start.
// Term spans overlapping any heading span are dropped.
func Merge(headings, terms []Span) []Span {
	out := make([]Span, 0, len(headings)+len(terms))
	out = append(out, headings...)
	for _, t := range terms {
		covered := false
		for _, h := range headings {
			if t.Overlaps(h) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Shift returns a copy of spans with every offset moved by delta.
func Shift(spans []Span, delta int) []Span {
	out := make([]Span, len(spans))
	for i, s := range spans {
		s.Start += delta
		s.End += delta
		out[i] = s
	}
	return out
}

// Valid reports whether spans are sorted by Start and pairwise
// non-overlapping.
func Valid(spans []Span) bool {
	for i := 1; i < len(spans); i++ {
		if spans[i].Start < spans[i-1].End {
			return false
		}
	}
	return true
}
