package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takaryo1010/termlink/internal/ports"
)

func TestFindHeadingLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "atx levels", content: "# One\ntext\n###### Six", want: []string{"One", "Six"}},
		{name: "closing sequence", content: "## Title ##", want: []string{"Title"}},
		{name: "hash inside text", content: "## C# basics", want: []string{"C# basics"}},
		{name: "trailing spaces and CR", content: "## Spaced  \r\nbody", want: []string{"Spaced"}},
		{name: "no space after marker", content: "#hashtag", want: nil},
		{name: "seven hashes", content: "####### nope", want: nil},
		{name: "empty heading", content: "## \nbody", want: nil},
		{name: "indented up to three", content: "   # Indented", want: []string{"Indented"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range FindHeadingLines(tt.content) {
				got = append(got, tt.content[r.Start:r.End])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanHeadings_TitleLookup(t *testing.T) {
	content := "## Machine Learning\nbody\n## Unknown Topic\n"
	titles := ports.HeadingTitles{"machine learning": "Intro to ML"}

	spans := ScanHeadings(content, titles)
	require.Len(t, spans, 2)

	assert.Equal(t, Span{Start: 3, End: 19, Source: "Machine Learning", Kind: KindHeading, Title: "Intro to ML", Key: "machine learning"}, spans[0])
	assert.Equal(t, "Unknown Topic", spans[1].Title, "missing title falls back to heading text")
	assert.Equal(t, KindHeading, spans[1].Kind)
}

func TestResolveHeadings_IgnoresBadRanges(t *testing.T) {
	content := "Heading text"
	spans := ResolveHeadings(content, []Range{
		{Start: 0, End: 7},
		{Start: 3, End: 9},   // overlaps the first
		{Start: 5, End: 5},   // empty
		{Start: 10, End: 99}, // out of bounds
	}, nil)

	require.Len(t, spans, 1)
	assert.Equal(t, "Heading", spans[0].Source)
}

func TestResolve_HeadingPrecedence(t *testing.T) {
	index := defaultIndex(t)
	content := "## Machine Learning\nMachine learning is everywhere."

	spans := Resolve(content, index, nil, nil, DefaultPolicy())
	require.Len(t, spans, 2)

	assert.Equal(t, KindHeading, spans[0].Kind)
	assert.Equal(t, "Machine Learning", spans[0].Source)

	// The heading does not consume the term; the body occurrence is the
	// first term occurrence.
	assert.Equal(t, KindTerm, spans[1].Kind)
	assert.Equal(t, "Machine learning", spans[1].Source)
}

func TestResolve_HeadingOnly(t *testing.T) {
	index := defaultIndex(t)
	spans := Resolve("## Machine Learning", index, nil, nil, DefaultPolicy())

	require.Len(t, spans, 1)
	assert.Equal(t, KindHeading, spans[0].Kind)
}

func TestResolve_SkipsExistingLinks(t *testing.T) {
	index := defaultIndex(t)
	content := "## [Machine Learning](/standalone-title?t=ML%20Basics)\n[data](/x) and data and quantum"

	spans := Resolve(content, index, nil, nil, DefaultPolicy())
	assert.Equal(t, []string{"quantum"}, sources(spans))
}

func TestMerge(t *testing.T) {
	headings := []Span{{Start: 10, End: 20, Kind: KindHeading}}
	terms := []Span{
		{Start: 0, End: 5, Kind: KindTerm},
		{Start: 12, End: 15, Kind: KindTerm},
		{Start: 18, End: 25, Kind: KindTerm},
		{Start: 30, End: 35, Kind: KindTerm},
	}

	got := Merge(headings, terms)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, KindHeading, got[1].Kind)
	assert.Equal(t, 30, got[2].Start)
	assert.True(t, Valid(got))
}

func TestApplyOverride(t *testing.T) {
	span := Span{Start: 0, End: 2, Source: "ML", Kind: KindTerm, Title: "ML Basics", Key: "machine learning"}

	got, ok := ApplyOverride(span, nil)
	assert.True(t, ok)
	assert.Equal(t, span, got)

	got, ok = ApplyOverride(span, ports.Overrides{"ml": {Term: "ml", CustomTitle: "Alias Title"}}, "ml")
	assert.True(t, ok)
	assert.Equal(t, "Alias Title", got.Title, "alias key is consulted when the canonical key has no override")

	got, ok = ApplyOverride(span, ports.Overrides{
		"machine learning": {Term: "machine learning", CustomTitle: "Canonical"},
		"ml":               {Term: "ml", Disabled: true},
	}, "ml")
	assert.True(t, ok)
	assert.Equal(t, "Canonical", got.Title, "canonical key wins")

	_, ok = ApplyOverride(span, ports.Overrides{"machine learning": {Term: "machine learning", Disabled: true}})
	assert.False(t, ok)
}

// linkSpans wraps each span as an inline link the way the renderer does.
func linkSpans(content string, spans []Span) string {
	var b strings.Builder
	last := 0
	for _, s := range spans {
		b.WriteString(content[last:s.Start])
		b.WriteString("[" + content[s.Start:s.End] + "](/standalone-title?t=x)")
		last = s.End
	}
	b.WriteString(content[last:])
	return b.String()
}

func TestResolve_RelinkIsNoOp(t *testing.T) {
	index := defaultIndex(t)
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "heading with brackets",
			content: "## Arrays [advanced]\n",
			want:    "## [Arrays [advanced]](/standalone-title?t=x)\n",
		},
		{
			name:    "heading with nested brackets",
			content: "## Data [a [b]]\nquantum\n",
			want:    "## [Data [a [b]]](/standalone-title?t=x)\n[quantum](/standalone-title?t=x)\n",
		},
		{
			name:    "term after bracketed text",
			content: "[note] data and data\n",
			want:    "[note] [data](/standalone-title?t=x) and data\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := linkSpans(tt.content, Resolve(tt.content, index, nil, nil, DefaultPolicy()))
			assert.Equal(t, tt.want, once)

			again := Resolve(once, index, nil, nil, DefaultPolicy())
			assert.Empty(t, again, "linked output has nothing left to link")
		})
	}
}
