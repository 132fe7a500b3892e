package match

import (
	"sort"

	"github.com/takaryo1010/termlink/internal/ports"
	"github.com/takaryo1010/termlink/internal/termindex"
)

// Resolve runs the whole plain-text pipeline over content: headings are
// located first and claim their ranges, existing links are left alone, and
// terms are matched in what remains. The result is sorted and
// non-overlapping.
func Resolve(content string, index *termindex.Snapshot, overrides ports.Overrides, titles ports.HeadingTitles, policy Policy) []Span {
	links := FindExistingLinks(content)

	var headings []Span
	for _, h := range ScanHeadings(content, titles) {
		if !overlapsLink(h, links) {
			headings = append(headings, h)
		}
	}

	occupied := linkRegions(links)
	for _, h := range headings {
		occupied = append(occupied, Region{Start: h.Start, End: h.End})
	}
	sort.SliceStable(occupied, func(i, j int) bool { return occupied[i].Start < occupied[j].Start })

	terms := NewScanner(index, overrides, policy).Scan(content, occupied)
	return Merge(headings, terms)
}

func overlapsLink(s Span, links []Link) bool {
	for _, l := range links {
		if s.Start < l.Full.End && l.Full.Start < s.End {
			return true
		}
	}
	return false
}
