package termindex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takaryo1010/termlink/internal/ports"
)

func testEntries() []ports.Entry {
	return []ports.Entry{
		{Term: "Machine Learning", Title: "ML Basics"},
		{Term: "data", Title: "Data"},
		{Term: "database", Title: "Databases"},
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name        string
		entries     []ports.Entry
		aliases     []ports.Alias
		wantLen     int
		wantErr     error
		errContains string
	}{
		{
			name:    "terms and aliases",
			entries: testEntries(),
			aliases: []ports.Alias{{Alias: "ML", Term: "Machine Learning"}},
			wantLen: 4,
		},
		{
			name:    "empty whitelist",
			wantLen: 0,
		},
		{
			name: "duplicate term differing only in case",
			entries: []ports.Entry{
				{Term: "Go", Title: "Go"},
				{Term: "go", Title: "Golang"},
			},
			wantErr:     ErrDuplicateKey,
			errContains: `duplicate whitelist key "go"`,
		},
		{
			name:    "alias colliding with a term",
			entries: testEntries(),
			aliases: []ports.Alias{{Alias: "Data", Term: "database"}},
			wantErr: ErrDuplicateKey,
		},
		{
			name:    "alias colliding with another alias",
			entries: testEntries(),
			aliases: []ports.Alias{
				{Alias: "db", Term: "database"},
				{Alias: "DB", Term: "data"},
			},
			wantErr:     ErrDuplicateKey,
			errContains: `alias "DB" of "data" collides with alias "db" of "database"`,
		},
		{
			name:    "alias to unknown term",
			entries: testEntries(),
			aliases: []ports.Alias{{Alias: "nn", Term: "neural network"}},
			wantErr: ErrUnknownTerm,
		},
		{
			name:    "blank term",
			entries: []ports.Entry{{Term: "  ", Title: "x"}},
			wantErr: ErrEmptyKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Build(tt.entries, tt.aliases)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				assert.Nil(t, snap)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, snap.Len())
		})
	}
}

func TestBuild_ReportsEveryCollision(t *testing.T) {
	_, err := Build([]ports.Entry{
		{Term: "a", Title: "A"},
		{Term: "A", Title: "A2"},
		{Term: "b", Title: "B"},
		{Term: "B", Title: "B2"},
	}, nil)
	require.Error(t, err)

	var dups int
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var d *DuplicateKeyError
		if errors.As(e, &d) {
			dups++
		}
	}
	assert.Equal(t, 2, dups)
}

func TestSnapshot_Find(t *testing.T) {
	snap, err := Build(testEntries(), []ports.Alias{{Alias: "ml", Term: "Machine Learning"}})
	require.NoError(t, err)

	hits := snap.Find("the database is")
	keys := map[string]Hit{}
	for _, h := range hits {
		keys[h.Key] = h
	}
	require.Contains(t, keys, "data")
	require.Contains(t, keys, "database")
	assert.Equal(t, Hit{Start: 4, End: 8, Key: "data"}, keys["data"])
	assert.Equal(t, Hit{Start: 4, End: 12, Key: "database"}, keys["database"])

	assert.Empty(t, snap.Find("nothing to see"))
	assert.Empty(t, snap.Find(""))
}

func TestSnapshot_Lookup(t *testing.T) {
	snap, err := Build(testEntries(), []ports.Alias{{Alias: "ML", Term: "machine learning"}})
	require.NoError(t, err)

	e, ok := snap.Lookup("ml")
	require.True(t, ok)
	assert.Equal(t, "Machine Learning", e.Term)
	assert.Equal(t, "ML Basics", e.Title)

	_, ok = snap.Lookup("quantum")
	assert.False(t, ok)

	entries := snap.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "data", entries[0].Term)
}

func TestSnapshot_EmptyFind(t *testing.T) {
	snap, err := Build(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, snap.Find("anything"))

	var nilSnap *Snapshot
	assert.Nil(t, nilSnap.Find("anything"))
	assert.Equal(t, 0, nilSnap.Len())
}
