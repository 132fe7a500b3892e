package match

import (
	"regexp"
	"sort"

	"github.com/takaryo1010/termlink/internal/ports"
)

// headingLine matches an ATX heading line and captures its text without the
// marker and any closing sequence.
var headingLine = regexp.MustCompile(`(?m)^ {0,3}#{1,6}[ \t]+(.*?)(?:[ \t]+#+)?[ \t\r]*$`)

// FindHeadingLines locates heading text ranges in plain markdown by the
// leading-marker pattern, one per line.
func FindHeadingLines(content string) []Range {
	matches := headingLine.FindAllStringSubmatchIndex(content, -1)
	ranges := make([]Range, 0, len(matches))
	for _, m := range matches {
		if m[2] < 0 || m[3] <= m[2] {
			continue
		}
		ranges = append(ranges, Range{Start: m[2], End: m[3]})
	}
	return ranges
}

// ResolveHeadings turns already-located heading ranges into heading spans.
// The title comes from titles keyed by lower-cased heading text; a missing
// title falls back to the heading text itself. Empty and overlapping ranges
// are ignored.
func ResolveHeadings(content string, ranges []Range, titles ports.HeadingTitles) []Span {
	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Start < 0 || r.End > len(content) || r.Start >= r.End {
			continue
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	spans := make([]Span, 0, len(sorted))
	lastEnd := -1
	for _, r := range sorted {
		if r.Start < lastEnd {
			continue
		}
		text := content[r.Start:r.End]
		spans = append(spans, HeadingSpan(r.Start, r.End, text, text, titles))
		lastEnd = r.End
	}
	return spans
}

// HeadingSpan builds one heading span over [start, end) whose source is
// text. heading is the full heading text used for the title lookup; it
// differs from text only when a heading is split across several nodes.
func HeadingSpan(start, end int, text, heading string, titles ports.HeadingTitles) Span {
	key := ports.NormalizeKey(heading)
	title, ok := titles[key]
	if !ok || title == "" {
		title = heading
	}
	return Span{
		Start:  start,
		End:    end,
		Source: text,
		Kind:   KindHeading,
		Title:  title,
		Key:    key,
	}
}

// ScanHeadings locates headings by marker and resolves their titles.
func ScanHeadings(content string, titles ports.HeadingTitles) []Span {
	return ResolveHeadings(content, FindHeadingLines(content), titles)
}
