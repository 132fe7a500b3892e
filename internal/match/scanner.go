package match

import (
	"sort"

	"github.com/takaryo1010/termlink/internal/ports"
	"github.com/takaryo1010/termlink/internal/termindex"
)

// Policy controls which accepted candidates are linked.
type Policy struct {
	// FirstOccurrenceOnly links each canonical term at most once per
	// resolution, at its earliest position.
	FirstOccurrenceOnly bool
}

// DefaultPolicy links each term once.
func DefaultPolicy() Policy {
	return Policy{FirstOccurrenceOnly: true}
}

// Scanner matches whitelist terms in text. One Scanner serves one resolution
// call: it remembers which canonical terms were already linked so that
// several text runs of the same document share the first-occurrence policy.
// A Scanner is not safe for concurrent use.
type Scanner struct {
	index     *termindex.Snapshot
	overrides ports.Overrides
	policy    Policy
	seen      map[string]bool
}

// NewScanner returns a scanner over index. overrides may be nil.
func NewScanner(index *termindex.Snapshot, overrides ports.Overrides, policy Policy) *Scanner {
	return &Scanner{
		index:     index,
		overrides: overrides,
		policy:    policy,
		seen:      make(map[string]bool),
	}
}

// candidate is a raw index hit translated to original offsets.
type candidate struct {
	start, end int
	matched    string // key that hit (term or alias)
	entry      ports.Entry
}

func (s *Scanner) candidates(content string) []candidate {
	folded := Fold(content)
	hits := s.index.Find(folded.Lower)
	if len(hits) == 0 {
		return nil
	}

	cands := make([]candidate, 0, len(hits))
	for _, h := range hits {
		entry, ok := s.index.Lookup(h.Key)
		if !ok {
			continue
		}
		cands = append(cands, candidate{
			start:   folded.Orig(h.Start),
			end:     folded.Orig(h.End),
			matched: h.Key,
			entry:   entry,
		})
	}

	// Longest first at equal start: the more specific term must be offered
	// before any of its prefixes.
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].start != cands[j].start {
			return cands[i].start < cands[j].start
		}
		li, lj := cands[i].end-cands[i].start, cands[j].end-cands[j].start
		if li != lj {
			return li > lj
		}
		return cands[i].matched < cands[j].matched
	})
	return cands
}

// Scan returns the accepted term spans of content, sorted and
// non-overlapping. Candidates intersecting an occupied region are never
// accepted; those lying inside a MarkSeen region are recorded as linked.
// occupied must be sorted by Start and non-overlapping.
func (s *Scanner) Scan(content string, occupied []Region) []Span {
	var accepted []Span
	lastEnd := -1

	for _, c := range s.candidates(content) {
		if !IsWordBoundary(content, c.start, c.end) {
			continue
		}
		key := c.entry.Key()

		if r, ok := findOverlap(occupied, c.start, c.end); ok {
			if r.MarkSeen && r.Start <= c.start && c.end <= r.End {
				s.seen[key] = true
			}
			continue
		}
		if c.start < lastEnd {
			continue
		}
		if s.policy.FirstOccurrenceOnly && s.seen[key] {
			continue
		}

		span := Span{
			Start:  c.start,
			End:    c.end,
			Source: content[c.start:c.end],
			Kind:   KindTerm,
			Title:  c.entry.Title,
			Key:    key,
		}
		s.seen[key] = true
		// A disabled term still claims its range; only the link is dropped.
		lastEnd = c.end

		applied, ok := ApplyOverride(span, s.overrides, c.matched)
		if !ok {
			continue
		}
		accepted = append(accepted, applied)
	}
	return accepted
}

// MarkSeen records every boundary-respecting term in content as already
// linked without producing spans. Used for text inside existing links.
func (s *Scanner) MarkSeen(content string) {
	for _, c := range s.candidates(content) {
		if IsWordBoundary(content, c.start, c.end) {
			s.seen[c.entry.Key()] = true
		}
	}
}

// Seen reports whether the canonical term key was linked or marked.
func (s *Scanner) Seen(key string) bool {
	return s.seen[key]
}

// findOverlap returns the first region intersecting [start, end).
func findOverlap(regions []Region, start, end int) (Region, bool) {
	i := sort.Search(len(regions), func(i int) bool { return regions[i].End > start })
	if i < len(regions) && regions[i].Start < end {
		return regions[i], true
	}
	return Region{}, false
}

// Scan is the single-call form: it matches terms in content with a fresh
// Scanner and no occupied regions.
func Scan(content string, index *termindex.Snapshot, overrides ports.Overrides, policy Policy) []Span {
	return NewScanner(index, overrides, policy).Scan(content, nil)
}
