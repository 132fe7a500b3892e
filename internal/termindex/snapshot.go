// Package termindex builds the multi-pattern matcher over the whitelist and
// publishes it as immutable snapshots.
//
// A Snapshot wraps an Aho-Corasick automaton compiled from every lower-cased
// term and alias. One pass over lower-cased content yields every (start, end,
// key) where an indexed string occurs, overlapping matches included, in
// O(n + m + z).
package termindex

import (
	"errors"
	"fmt"
	"sort"
	"time"

	aho "github.com/petar-dambovaliev/aho-corasick"

	"github.com/takaryo1010/termlink/internal/ports"
)

var (
	// ErrDuplicateKey marks two whitelist rows normalizing to the same key.
	ErrDuplicateKey = errors.New("duplicate whitelist key")
	// ErrEmptyKey marks a term or alias that is blank after normalization.
	ErrEmptyKey = errors.New("empty whitelist key")
	// ErrUnknownTerm marks an alias whose canonical term is not in the whitelist.
	ErrUnknownTerm = errors.New("alias refers to unknown term")
)

// DuplicateKeyError reports one collision between terms and/or aliases.
type DuplicateKeyError struct {
	Key    string
	First  string // the row that claimed Key first
	Second string // the colliding row
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate whitelist key %q: %s collides with %s", e.Key, e.Second, e.First)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// Hit is one raw occurrence of an indexed key in lower-cased content.
// Start and End are byte offsets, End exclusive.
type Hit struct {
	Start int
	End   int
	Key   string
}

// Snapshot is an immutable, versioned view of the whitelist.
type Snapshot struct {
	Version uint64
	BuiltAt time.Time

	automaton aho.AhoCorasick
	patterns  []string               // pattern index -> key
	resolve   map[string]ports.Entry // term or alias key -> canonical entry
}

// Build compiles a snapshot from the full active whitelist. Every collision
// is reported; nothing is resolved by last-write-wins.
func Build(entries []ports.Entry, aliases []ports.Alias) (*Snapshot, error) {
	resolve := make(map[string]ports.Entry, len(entries)+len(aliases))
	owner := make(map[string]string, len(entries)+len(aliases))
	var errs []error

	for _, e := range entries {
		key := e.Key()
		if key == "" {
			errs = append(errs, fmt.Errorf("%w: term with title %q", ErrEmptyKey, e.Title))
			continue
		}
		label := fmt.Sprintf("term %q", e.Term)
		if first, exists := owner[key]; exists {
			errs = append(errs, &DuplicateKeyError{Key: key, First: first, Second: label})
			continue
		}
		owner[key] = label
		resolve[key] = e
	}

	for _, a := range aliases {
		key := a.Key()
		if key == "" {
			errs = append(errs, fmt.Errorf("%w: alias of term %q", ErrEmptyKey, a.Term))
			continue
		}
		label := fmt.Sprintf("alias %q of %q", a.Alias, a.Term)
		if first, exists := owner[key]; exists {
			errs = append(errs, &DuplicateKeyError{Key: key, First: first, Second: label})
			continue
		}
		entry, ok := resolve[ports.NormalizeKey(a.Term)]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownTerm, label))
			continue
		}
		owner[key] = label
		resolve[key] = entry
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	patterns := make([]string, 0, len(resolve))
	for key := range resolve {
		patterns = append(patterns, key)
	}
	sort.Strings(patterns)

	snap := &Snapshot{patterns: patterns, resolve: resolve}
	if len(patterns) > 0 {
		builder := aho.NewAhoCorasickBuilder(aho.Opts{
			DFA: true,
		})
		snap.automaton = builder.Build(patterns)
	}
	return snap, nil
}

// Find returns every occurrence of an indexed key in lower, which must
// already be lower-cased. Hits are in automaton order (by end position).
func (s *Snapshot) Find(lower string) []Hit {
	if s == nil || len(s.patterns) == 0 || lower == "" {
		return nil
	}
	iter := s.automaton.IterOverlappingByte([]byte(lower))
	var hits []Hit
	for next := iter.Next(); next != nil; next = iter.Next() {
		m := *next
		hits = append(hits, Hit{
			Start: m.Start(),
			End:   m.End(),
			Key:   s.patterns[m.Pattern()],
		})
	}
	return hits
}

// Lookup resolves a term or alias key to its canonical entry.
func (s *Snapshot) Lookup(key string) (ports.Entry, bool) {
	if s == nil {
		return ports.Entry{}, false
	}
	e, ok := s.resolve[key]
	return e, ok
}

// Len returns the number of indexed keys (terms plus aliases).
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}

// Entries returns the canonical entries sorted by key.
func (s *Snapshot) Entries() []ports.Entry {
	if s == nil {
		return nil
	}
	var out []ports.Entry
	for _, key := range s.patterns {
		if e := s.resolve[key]; e.Key() == key {
			out = append(out, e)
		}
	}
	return out
}
