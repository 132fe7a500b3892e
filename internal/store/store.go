// Package store keeps the whitelist, aliases, per-article overrides and
// heading titles in bbolt. Top-level "entries" and "aliases" buckets hold
// the whitelist; "articles" holds one sub-bucket per article with
// "overrides" and "headings" inside. Values are JSON.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/takaryo1010/termlink/internal/ports"
	"github.com/takaryo1010/termlink/internal/termindex"
)

var (
	bucketEntries   = []byte("entries")
	bucketAliases   = []byte("aliases")
	bucketArticles  = []byte("articles")
	bucketOverrides = []byte("overrides")
	bucketHeadings  = []byte("headings")
)

var (
	// ErrNotFound is returned when a term, alias or override does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a key is already taken by another term
	// or alias.
	ErrConflict = errors.New("key already in use")
	// ErrEmptyKey is returned for a blank term, alias, article or heading.
	ErrEmptyKey = errors.New("empty key")
)

// entryJSON and aliasJSON are the stored forms of ports.Entry and ports.Alias.
type entryJSON struct {
	Term        string `json:"term"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type aliasJSON struct {
	Alias string `json:"alias"`
	Term  string `json:"term"`
}

// Store implements ports.WhitelistSource, ports.OverrideSource and
// ports.HeadingLinkSource backed by bbolt.
type Store struct {
	db     *bolt.DB
	logger *slog.Logger

	mu       sync.RWMutex
	onChange []func()
}

// Open opens (or creates) a bbolt database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketEntries, bucketAliases, bucketArticles} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// OnChange registers fn to run after every successful mutation. The CLI
// wires it to the term index cache's Invalidate.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Store) changed(what string) {
	s.logger.Debug("store changed", "what", what)
	s.mu.RLock()
	hooks := append([]func(){}, s.onChange...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

func (s *Store) update(what string, fn func(tx *bolt.Tx) error) error {
	if err := s.db.Update(fn); err != nil {
		return err
	}
	s.changed(what)
	return nil
}

func put(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	return b.Put([]byte(key), data)
}

// PutEntry adds or replaces a whitelist term. The key may not be an
// existing alias.
func (s *Store) PutEntry(e ports.Entry) error {
	key := e.Key()
	if key == "" {
		return ErrEmptyKey
	}
	return s.update("entry", func(tx *bolt.Tx) error {
		if tx.Bucket(bucketAliases).Get([]byte(key)) != nil {
			return fmt.Errorf("term %q: %w by an alias", e.Term, ErrConflict)
		}
		return put(tx.Bucket(bucketEntries), key, entryJSON{Term: e.Term, Title: e.Title, Description: e.Description})
	})
}

// DeleteEntry removes a term and every alias pointing at it.
func (s *Store) DeleteEntry(term string) error {
	key := ports.NormalizeKey(term)
	return s.update("entry", func(tx *bolt.Tx) error {
		entries := tx.Bucket(bucketEntries)
		if entries.Get([]byte(key)) == nil {
			return fmt.Errorf("term %q: %w", term, ErrNotFound)
		}
		if err := entries.Delete([]byte(key)); err != nil {
			return err
		}

		aliases := tx.Bucket(bucketAliases)
		var orphans [][]byte
		err := aliases.ForEach(func(k, v []byte) error {
			var a aliasJSON
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("unmarshal alias %q: %w", k, err)
			}
			if ports.NormalizeKey(a.Term) == key {
				orphans = append(orphans, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range orphans {
			if err := aliases.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutAlias adds an alias. The target term must exist and the alias may not
// collide with a term or with an alias for a different term.
func (s *Store) PutAlias(a ports.Alias) error {
	key := a.Key()
	if key == "" {
		return ErrEmptyKey
	}
	target := ports.NormalizeKey(a.Term)
	return s.update("alias", func(tx *bolt.Tx) error {
		entries := tx.Bucket(bucketEntries)
		if entries.Get([]byte(target)) == nil {
			return fmt.Errorf("alias %q points at term %q: %w", a.Alias, a.Term, ErrNotFound)
		}
		if entries.Get([]byte(key)) != nil {
			return fmt.Errorf("alias %q: %w by a term", a.Alias, ErrConflict)
		}
		aliases := tx.Bucket(bucketAliases)
		if v := aliases.Get([]byte(key)); v != nil {
			var existing aliasJSON
			if err := json.Unmarshal(v, &existing); err != nil {
				return fmt.Errorf("unmarshal alias %q: %w", key, err)
			}
			if ports.NormalizeKey(existing.Term) != target {
				return fmt.Errorf("alias %q: %w for %q", a.Alias, ErrConflict, existing.Term)
			}
		}
		return put(aliases, key, aliasJSON{Alias: a.Alias, Term: a.Term})
	})
}

// DeleteAlias removes an alias.
func (s *Store) DeleteAlias(alias string) error {
	key := ports.NormalizeKey(alias)
	return s.update("alias", func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAliases)
		if b.Get([]byte(key)) == nil {
			return fmt.Errorf("alias %q: %w", alias, ErrNotFound)
		}
		return b.Delete([]byte(key))
	})
}

// ImportWhitelist replaces the whole whitelist in one transaction. The rows
// are checked the same way the term index checks them, so a rejected
// import leaves the store unchanged.
func (s *Store) ImportWhitelist(entries []ports.Entry, aliases []ports.Alias) error {
	if _, err := termindex.Build(entries, aliases); err != nil {
		return fmt.Errorf("import rejected: %w", err)
	}
	return s.update("whitelist", func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketEntries, bucketAliases} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
		}
		eb, err := tx.CreateBucket(bucketEntries)
		if err != nil {
			return err
		}
		ab, err := tx.CreateBucket(bucketAliases)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := put(eb, e.Key(), entryJSON{Term: e.Term, Title: e.Title, Description: e.Description}); err != nil {
				return err
			}
		}
		for _, a := range aliases {
			if err := put(ab, a.Key(), aliasJSON{Alias: a.Alias, Term: a.Term}); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadWhitelist implements ports.WhitelistSource.
func (s *Store) LoadWhitelist(ctx context.Context) ([]ports.Entry, []ports.Alias, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	var entries []ports.Entry
	var aliases []ports.Alias
	err := s.db.View(func(tx *bolt.Tx) error {
		err := tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			var e entryJSON
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshal entry %q: %w", k, err)
			}
			entries = append(entries, ports.Entry{Term: e.Term, Title: e.Title, Description: e.Description})
			return nil
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketAliases).ForEach(func(k, v []byte) error {
			var a aliasJSON
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("unmarshal alias %q: %w", k, err)
			}
			aliases = append(aliases, ports.Alias{Alias: a.Alias, Term: a.Term})
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return entries, aliases, nil
}
