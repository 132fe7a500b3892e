package whitelist

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/takaryo1010/termlink/internal/ports"
)

// Article holds the per-article data that normally comes from the admin
// tooling: overrides and precomputed heading titles.
type Article struct {
	Overrides []ports.Override    `yaml:"overrides,omitempty" validate:"dive"`
	Headings  []ports.HeadingLink `yaml:"headings,omitempty" validate:"dive"`
}

// ArticleFile is a YAML sidecar of the form
//
//	articles:
//	  intro-to-physics:
//	    overrides:
//	      - term: quantum
//	        disabled: true
//	    headings:
//	      - heading: Machine Learning
//	        title: ML Basics
//
// It implements ports.OverrideSource and ports.HeadingLinkSource. An empty
// Path behaves like a file with no articles.
type ArticleFile struct {
	Path string
}

type articleFileData struct {
	Articles map[string]Article `yaml:"articles"`
}

func (f ArticleFile) load(articleID string) (Article, error) {
	if f.Path == "" {
		return Article{}, nil
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Article{}, nil
		}
		return Article{}, fmt.Errorf("failed to read article file: %w", err)
	}
	var parsed articleFileData
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Article{}, fmt.Errorf("failed to parse article yaml: %w", err)
	}
	article := parsed.Articles[articleID]
	if err := validate.Struct(article); err != nil {
		return Article{}, fmt.Errorf("%w in article %q: %v", ErrInvalidEntry, articleID, err)
	}
	return article, nil
}

// Overrides implements ports.OverrideSource.
func (f ArticleFile) Overrides(_ context.Context, articleID string) (ports.Overrides, error) {
	article, err := f.load(articleID)
	if err != nil {
		return nil, err
	}
	out := make(ports.Overrides, len(article.Overrides))
	for _, o := range article.Overrides {
		key := ports.NormalizeKey(o.Term)
		if _, exists := out[key]; exists {
			return nil, fmt.Errorf("duplicate override found: %s", o.Term)
		}
		out[key] = o
	}
	return out, nil
}

// HeadingLinks implements ports.HeadingLinkSource.
func (f ArticleFile) HeadingLinks(_ context.Context, articleID string) (ports.HeadingTitles, error) {
	article, err := f.load(articleID)
	if err != nil {
		return nil, err
	}
	out := make(ports.HeadingTitles, len(article.Headings))
	for _, h := range article.Headings {
		out[ports.NormalizeKey(h.HeadingText)] = h.Title
	}
	return out, nil
}
