package render

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/takaryo1010/termlink/internal/match"
)

// LinkPrefix is the fixed target template; the encoded title is appended.
// Text and tree output must agree on it byte for byte.
const LinkPrefix = "/standalone-title?t="

// EncodeTitle percent-encodes a title for the t= query parameter. Spaces
// become %20 rather than '+', and parentheses are escaped so the URL is safe
// inside a markdown link destination.
func EncodeTitle(title string) string {
	return strings.ReplaceAll(url.QueryEscape(title), "+", "%20")
}

// DecodeTitle reverses EncodeTitle.
func DecodeTitle(encoded string) (string, error) {
	title, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", fmt.Errorf("decode title: %w", err)
	}
	return title, nil
}

// LinkURL returns the link target for title.
func LinkURL(title string) string {
	return LinkPrefix + EncodeTitle(title)
}

// TitleFromURL extracts the title from a URL built by LinkURL.
func TitleFromURL(u string) (string, error) {
	encoded, ok := strings.CutPrefix(u, LinkPrefix)
	if !ok {
		return "", fmt.Errorf("not a standalone title link: %q", u)
	}
	return DecodeTitle(encoded)
}

// Link returns the markdown link for one span.
func Link(s match.Span) string {
	return "[" + s.Source + "](" + LinkURL(s.Title) + ")"
}

// Patches converts spans into link patches.
func Patches(spans []match.Span) []Patch {
	patches := make([]Patch, 0, len(spans))
	for _, s := range spans {
		patches = append(patches, Patch{Start: s.Start, End: s.End, NewText: []byte(Link(s))})
	}
	return patches
}

// Render splices a markdown link for every span into content. spans must be
// sorted and non-overlapping, as produced by the match package; a violation
// is reported as an error rather than rendered.
func Render(content string, spans []match.Span) (string, error) {
	if len(spans) == 0 {
		return content, nil
	}
	if !match.Valid(spans) {
		return "", fmt.Errorf("%w: spans are not sorted and disjoint", ErrOverlappingPatches)
	}
	out, err := ApplyPatches([]byte(content), Patches(spans))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
