package markdown

import (
	"sort"

	"github.com/takaryo1010/termlink/internal/match"
	"github.com/takaryo1010/termlink/internal/ports"
	"github.com/takaryo1010/termlink/internal/termindex"
)

// Resolve computes the final spans of a markdown document. Headings come
// first and take their whole content range; their titles are looked up by
// plain text, so emphasis does not change the key. A heading that already
// contains a link is left alone. Terms are matched run by run with one scanner, so the
// first-occurrence policy spans the whole document, and the labels of
// existing links count as occurrences at their position.
func Resolve(content []byte, a *Analysis, index *termindex.Snapshot, overrides ports.Overrides, titles ports.HeadingTitles, policy match.Policy) []match.Span {
	src := string(content)

	var headings []match.Span
	for _, h := range a.Headings {
		if containsAny(h.Range, a.Links) {
			continue
		}
		r := h.Range
		headings = append(headings, match.HeadingSpan(r.Start, r.End, src[r.Start:r.End], h.Text, titles))
	}

	type piece struct {
		r    match.Range
		link bool
	}
	pieces := make([]piece, 0, len(a.Runs)+len(a.Links))
	for _, r := range a.Runs {
		pieces = append(pieces, piece{r: r})
	}
	for _, l := range a.Links {
		pieces = append(pieces, piece{r: l, link: true})
	}
	sort.SliceStable(pieces, func(i, j int) bool { return pieces[i].r.Start < pieces[j].r.Start })

	sc := match.NewScanner(index, overrides, policy)
	var terms []match.Span
	for _, p := range pieces {
		seg := src[p.r.Start:p.r.End]
		if p.link {
			sc.MarkSeen(seg)
			continue
		}
		terms = append(terms, match.Shift(sc.Scan(seg, nil), p.r.Start)...)
	}
	return match.Merge(headings, terms)
}

func containsAny(r match.Range, others []match.Range) bool {
	for _, o := range others {
		if o.Start < r.End && r.Start < o.End {
			return true
		}
	}
	return false
}
