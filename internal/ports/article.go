package ports

import "context"

// Override is a per-article exception for one term.
// A zero CustomTitle with Disabled false means "no change".
type Override struct {
	Term        string `json:"term" yaml:"term" validate:"required"`
	Disabled    bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	CustomTitle string `json:"custom_title,omitempty" yaml:"custom_title,omitempty" validate:"omitempty,max=512"`
}

// HeadingLink maps an exact heading text to a standalone title.
type HeadingLink struct {
	HeadingText string `json:"heading_text" yaml:"heading" validate:"required"`
	Title       string `json:"title" yaml:"title" validate:"required,max=512"`
}

// Overrides is keyed by lower-cased term.
type Overrides map[string]Override

// HeadingTitles is keyed by lower-cased heading text.
type HeadingTitles map[string]string

// OverrideSource supplies the overrides for one article.
// An article with no overrides yields an empty map and a nil error.
type OverrideSource interface {
	Overrides(ctx context.Context, articleID string) (Overrides, error)
}

// HeadingLinkSource supplies precomputed heading titles for one article.
// Missing titles are not errors; the engine falls back to the raw heading.
type HeadingLinkSource interface {
	HeadingLinks(ctx context.Context, articleID string) (HeadingTitles, error)
}
