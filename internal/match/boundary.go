package match

// isBoundaryByte reports whether b separates words. Hyphen is deliberately
// absent: "anti-pattern" must not yield a match for "pattern".
func isBoundaryByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r',
		'.', ',', ';', ':', '!', '?',
		'(', ')', '[', ']', '{', '}',
		'\'', '"', '<', '>', '/':
		return true
	default:
		return false
	}
}

// IsWordBoundary reports whether [start, end) of content sits on word
// boundaries at both ends. A position is a boundary when it is the start or
// end of content, or when the neighbouring byte is whitespace or punctuation.
func IsWordBoundary(content string, start, end int) bool {
	if start < 0 || end > len(content) || start >= end {
		return false
	}
	if start > 0 && !isBoundaryByte(content[start-1]) {
		return false
	}
	if end < len(content) && !isBoundaryByte(content[end]) {
		return false
	}
	return true
}
