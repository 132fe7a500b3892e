// Package linker is the entry point for linking a document: it gathers the
// term index, heading titles and overrides for an article, then runs the
// pure matching pipeline over plain text, markdown or a tree document.
package linker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/takaryo1010/termlink/internal/markdown"
	"github.com/takaryo1010/termlink/internal/match"
	"github.com/takaryo1010/termlink/internal/overlay"
	"github.com/takaryo1010/termlink/internal/ports"
	"github.com/takaryo1010/termlink/internal/render"
	"github.com/takaryo1010/termlink/internal/termindex"
	"github.com/takaryo1010/termlink/internal/tree"
)

var linksInserted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "termlink_links_inserted_total",
	Help: "Links produced by the linker, by span kind and input form.",
}, []string{"kind", "form"})

// Linker links documents against a cached term index.
type Linker struct {
	cache     *termindex.Cache
	overrides ports.OverrideSource
	headings  ports.HeadingLinkSource
	policy    match.Policy
	logger    *slog.Logger
}

// Option configures a Linker.
type Option func(*Linker)

// WithOverrides sets where per-article overrides come from.
func WithOverrides(src ports.OverrideSource) Option {
	return func(l *Linker) { l.overrides = src }
}

// WithHeadingLinks sets where precomputed heading titles come from.
func WithHeadingLinks(src ports.HeadingLinkSource) Option {
	return func(l *Linker) { l.headings = src }
}

// WithPolicy sets the linking policy. The default links each term once.
func WithPolicy(p match.Policy) Option {
	return func(l *Linker) { l.policy = p }
}

// WithLogger sets the logger. A nil logger keeps slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns a Linker reading terms from cache.
func New(cache *termindex.Cache, opts ...Option) *Linker {
	l := &Linker{
		cache:  cache,
		policy: match.DefaultPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result is a linked document and the spans that were applied to it.
type Result struct {
	Content string
	Spans   []match.Span
}

// inputs holds everything one resolution needs.
type inputs struct {
	index     *termindex.Snapshot
	overrides ports.Overrides
	titles    ports.HeadingTitles
}

// load fetches the snapshot and the article's data. These are the only
// calls that may block; everything after is pure.
func (l *Linker) load(ctx context.Context, articleID string) (inputs, error) {
	var in inputs
	snap, err := l.cache.Get(ctx)
	if err != nil {
		return in, fmt.Errorf("failed to load term index: %w", err)
	}
	in.index = snap

	if articleID == "" {
		return in, nil
	}
	if l.headings != nil {
		if in.titles, err = l.headings.HeadingLinks(ctx, articleID); err != nil {
			return in, fmt.Errorf("failed to load heading links for %q: %w", articleID, err)
		}
	}
	if l.overrides != nil {
		if in.overrides, err = l.overrides.Overrides(ctx, articleID); err != nil {
			return in, fmt.Errorf("failed to load overrides for %q: %w", articleID, err)
		}
	}
	return in, nil
}

// Spans resolves the spans of plain text without rendering them.
func (l *Linker) Spans(ctx context.Context, articleID, content string) ([]match.Span, error) {
	in, err := l.load(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return match.Resolve(content, in.index, in.overrides, in.titles, l.policy), nil
}

// LinkText links plain text, where headings are found by their markers and
// existing links by the [text](url) pattern.
func (l *Linker) LinkText(ctx context.Context, articleID, content string) (Result, error) {
	spans, err := l.Spans(ctx, articleID, content)
	if err != nil {
		return Result{}, err
	}
	return l.render(articleID, "text", content, spans)
}

// LinkMarkdown links a markdown document, leaving code, raw HTML, images
// and existing links untouched.
func (l *Linker) LinkMarkdown(ctx context.Context, articleID, content string) (Result, error) {
	in, err := l.load(ctx, articleID)
	if err != nil {
		return Result{}, err
	}
	a, err := markdown.Analyze([]byte(content), l.logger)
	if err != nil {
		return Result{}, err
	}
	spans := markdown.Resolve([]byte(content), a, in.index, in.overrides, in.titles, l.policy)
	return l.render(articleID, "markdown", content, spans)
}

// LinkTree links a tree document in place and returns the number of links
// inserted.
func (l *Linker) LinkTree(ctx context.Context, articleID string, doc *tree.Document) (int, error) {
	in, err := l.load(ctx, articleID)
	if err != nil {
		return 0, err
	}

	counts := map[match.Kind]int{}
	spanFn := overlay.Spans(in.index, in.overrides, in.titles, l.policy)
	n, err := overlay.Apply(doc, func(leaf overlay.Leaf) []match.Span {
		spans := spanFn(leaf)
		if !leaf.InLink {
			for _, s := range spans {
				counts[s.Kind]++
			}
		}
		return spans
	})
	if err != nil {
		return 0, fmt.Errorf("failed to apply links: %w", err)
	}
	for kind, c := range counts {
		linksInserted.WithLabelValues(kind.String(), "tree").Add(float64(c))
	}
	l.logger.Debug("linked tree", "article", articleID, "links", n, "index_version", in.index.Version)
	return n, nil
}

func (l *Linker) render(articleID, form, content string, spans []match.Span) (Result, error) {
	out, err := render.Render(content, spans)
	if err != nil {
		return Result{}, fmt.Errorf("failed to render links: %w", err)
	}
	for _, s := range spans {
		linksInserted.WithLabelValues(s.Kind.String(), form).Inc()
	}
	l.logger.Debug("linked document", "article", articleID, "form", form, "links", len(spans))
	return Result{Content: out, Spans: spans}, nil
}
