// Package markdown locates the linkable parts of a markdown document with
// goldmark, so that terms are never linked inside code, raw HTML, images or
// existing links.
package markdown

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/takaryo1010/termlink/internal/match"
)

// Analysis is the structural view of a document. All ranges are byte
// offsets into the analyzed source and are sorted by Start.
type Analysis struct {
	Runs     []match.Range // maximal linkable text runs outside headings
	Headings []Heading
	Links    []match.Range // labels of existing links
}

// Heading is the content range of a heading, marker excluded, and its plain
// text with inline markup such as emphasis removed.
type Heading struct {
	Range match.Range
	Text  string
}

// Analyze parses content and traverses its AST, applying the exclusion
// rules. logger may be nil.
func Analyze(content []byte, logger *slog.Logger) (*Analysis, error) {
	if logger == nil {
		logger = slog.Default()
	}
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	document := md.Parser().Parse(text.NewReader(content))

	var a Analysis
	var segments []match.Range

	walker := func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindHTMLBlock, ast.KindRawHTML:
			logger.Debug("skipping node", "kind", n.Kind().String())
			return ast.WalkSkipChildren, nil
		case ast.KindCodeSpan, ast.KindAutoLink, ast.KindImage:
			logger.Debug("skipping inline node", "kind", n.Kind().String())
			return ast.WalkSkipChildren, nil
		case ast.KindLink:
			if r, ok := textExtent(n); ok {
				a.Links = append(a.Links, r)
			}
			return ast.WalkSkipChildren, nil
		case ast.KindHeading:
			if r, ok := linesExtent(n); ok {
				a.Headings = append(a.Headings, Heading{Range: r, Text: plainText(n, content)})
			}
			return ast.WalkContinue, nil
		case ast.KindText:
			segment := n.(*ast.Text).Segment
			if segment.Len() > 0 {
				segments = append(segments, match.Range{Start: segment.Start, End: segment.Stop})
			}
			return ast.WalkContinue, nil
		default:
			return ast.WalkContinue, nil
		}
	}

	if err := ast.Walk(document, walker); err != nil {
		return nil, fmt.Errorf("error during AST traversal: %w", err)
	}

	sort.SliceStable(a.Headings, func(i, j int) bool { return a.Headings[i].Range.Start < a.Headings[j].Range.Start })
	sortRanges(a.Links)
	headings := make([]match.Range, len(a.Headings))
	for i, h := range a.Headings {
		headings[i] = h.Range
	}
	a.Runs = mergeRuns(content, outside(segments, headings))
	return &a, nil
}

// textExtent returns the range spanned by the text descendants of n.
func textExtent(n ast.Node) (match.Range, bool) {
	r := match.Range{Start: -1, End: -1}
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			if r.Start < 0 || t.Segment.Start < r.Start {
				r.Start = t.Segment.Start
			}
			if t.Segment.Stop > r.End {
				r.End = t.Segment.Stop
			}
		}
		return ast.WalkContinue, nil
	})
	return r, r.Start >= 0 && r.Start < r.End
}

// plainText concatenates the text descendants of n. Soft line breaks
// become spaces.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// linesExtent returns the range covered by a block's content lines.
func linesExtent(n ast.Node) (match.Range, bool) {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return match.Range{}, false
	}
	first := lines.At(0)
	last := lines.At(lines.Len() - 1)
	r := match.Range{Start: first.Start, End: last.Stop}
	return r, r.Start < r.End
}

func sortRanges(rs []match.Range) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Start < rs[j].Start })
}

// outside drops segments lying inside any of the given ranges.
func outside(segments, ranges []match.Range) []match.Range {
	out := segments[:0:0]
	for _, s := range segments {
		inside := false
		for _, r := range ranges {
			if s.Start < r.End && r.Start < s.End {
				inside = true
				break
			}
		}
		if !inside {
			out = append(out, s)
		}
	}
	return out
}

// mergeRuns joins text segments separated only by whitespace, which goldmark
// splits at line breaks and inline delimiters.
func mergeRuns(content []byte, segments []match.Range) []match.Range {
	sortRanges(segments)
	var runs []match.Range
	for _, s := range segments {
		n := len(runs)
		if n > 0 && (s.Start <= runs[n-1].End || isBlank(content[runs[n-1].End:s.Start])) {
			if s.End > runs[n-1].End {
				runs[n-1].End = s.End
			}
			continue
		}
		runs = append(runs, s)
	}
	return runs
}

func isBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
