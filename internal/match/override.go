package match

import "github.com/takaryo1010/termlink/internal/ports"

// ApplyOverride applies the article's override for span's term. It returns
// false when the term is disabled. The canonical key is consulted first, then
// the alias that produced the match, if any.
func ApplyOverride(span Span, overrides ports.Overrides, matched ...string) (Span, bool) {
	if len(overrides) == 0 {
		return span, true
	}
	o, ok := overrides[span.Key]
	for _, m := range matched {
		if ok {
			break
		}
		o, ok = overrides[m]
	}
	if !ok {
		return span, true
	}
	if o.Disabled {
		return Span{}, false
	}
	if o.CustomTitle != "" {
		span.Title = o.CustomTitle
	}
	return span, true
}
