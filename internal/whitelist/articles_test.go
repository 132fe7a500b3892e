package whitelist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takaryo1010/termlink/internal/ports"
)

func writeArticles(t *testing.T, content string) ArticleFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "articles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return ArticleFile{Path: path}
}

func TestArticleFile(t *testing.T) {
	af := writeArticles(t, `articles:
  intro-to-physics:
    overrides:
      - term: Quantum
        disabled: true
      - term: wave function
        custom_title: Wave Functions 101
    headings:
      - heading: Machine Learning
        title: ML Basics
`)
	ctx := context.Background()

	overrides, err := af.Overrides(ctx, "intro-to-physics")
	require.NoError(t, err)
	assert.Equal(t, ports.Overrides{
		"quantum":       {Term: "Quantum", Disabled: true},
		"wave function": {Term: "wave function", CustomTitle: "Wave Functions 101"},
	}, overrides)

	titles, err := af.HeadingLinks(ctx, "intro-to-physics")
	require.NoError(t, err)
	assert.Equal(t, ports.HeadingTitles{"machine learning": "ML Basics"}, titles)

	overrides, err = af.Overrides(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestArticleFile_MissingFile(t *testing.T) {
	for _, af := range []ArticleFile{{}, {Path: filepath.Join(t.TempDir(), "none.yaml")}} {
		overrides, err := af.Overrides(context.Background(), "a")
		require.NoError(t, err)
		assert.Empty(t, overrides)

		titles, err := af.HeadingLinks(context.Background(), "a")
		require.NoError(t, err)
		assert.Empty(t, titles)
	}
}

func TestArticleFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name: "duplicate override",
			content: `articles:
  a:
    overrides:
      - term: Quantum
        disabled: true
      - term: quantum
`,
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "duplicate override found: quantum") },
		},
		{
			name: "override without term",
			content: `articles:
  a:
    overrides:
      - disabled: true
`,
			check: func(t *testing.T, err error) { assert.True(t, errors.Is(err, ErrInvalidEntry)) },
		},
		{
			name:    "broken yaml",
			content: "articles: [",
			check:   func(t *testing.T, err error) { assert.ErrorContains(t, err, "failed to parse article yaml") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := writeArticles(t, tt.content).Overrides(context.Background(), "a")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}
