package match

// Link is an existing inline link: Full covers the whole syntax, Text only
// the bracketed label.
type Link struct {
	Full Range
	Text Range
}

// FindExistingLinks locates inline links and images already present in
// content. Labels may hold balanced brackets, as produced when a heading
// such as "Arrays [advanced]" is linked; a link never spans lines.
func FindExistingLinks(content string) []Link {
	var links []Link
	for i := 0; i < len(content); i++ {
		if content[i] != '[' {
			continue
		}
		l, ok := linkAt(content, i)
		if !ok {
			continue
		}
		if i > 0 && content[i-1] == '!' {
			l.Full.Start = i - 1
		}
		links = append(links, l)
		i = l.Full.End - 1
	}
	return links
}

// linkAt parses "[label](destination)" starting at the bracket at open.
func linkAt(content string, open int) (Link, bool) {
	depth := 0
	for j := open; j < len(content); j++ {
		switch content[j] {
		case '\n':
			return Link{}, false
		case '[':
			depth++
		case ']':
			depth--
			if depth > 0 {
				continue
			}
			if j+1 >= len(content) || content[j+1] != '(' {
				return Link{}, false
			}
			for k := j + 2; k < len(content); k++ {
				switch content[k] {
				case ')':
					return Link{
						Full: Range{Start: open, End: k + 1},
						Text: Range{Start: open + 1, End: j},
					}, true
				case '(', '\n':
					return Link{}, false
				}
			}
			return Link{}, false
		}
	}
	return Link{}, false
}

// linkRegions converts links to occupied regions: the label marks terms as
// seen, the rest of the syntax is merely blocked.
func linkRegions(links []Link) []Region {
	regions := make([]Region, 0, 3*len(links))
	for _, l := range links {
		if l.Full.Start < l.Text.Start {
			regions = append(regions, Region{Start: l.Full.Start, End: l.Text.Start})
		}
		if l.Text.Start < l.Text.End {
			regions = append(regions, Region{Start: l.Text.Start, End: l.Text.End, MarkSeen: true})
		}
		if l.Text.End < l.Full.End {
			regions = append(regions, Region{Start: l.Text.End, End: l.Full.End})
		}
	}
	return regions
}
