// Package ports defines the data the link engine consumes and the interfaces
// of the collaborators that supply it. Storage, file loading and caching live
// in adapters; the engine only sees these types.
package ports

import (
	"context"
	"strings"
)

// Entry is a single linkable whitelist term.
type Entry struct {
	Term        string // canonical display string
	Title       string // standalone title the link points at
	Description string
}

// Key returns the identity of the entry: its lower-cased canonical term.
func (e Entry) Key() string {
	return NormalizeKey(e.Term)
}

// Alias is an alternate spelling resolving to one canonical entry.
type Alias struct {
	Alias string
	Term  string // canonical term the alias points at
}

// Key returns the lower-cased alias.
func (a Alias) Key() string {
	return NormalizeKey(a.Alias)
}

// NormalizeKey is the single normalization used for every lookup key
// (terms, aliases, override terms, heading texts).
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// WhitelistSource supplies the full active whitelist. Implementations may
// block (file or database reads); the index cache calls it only on rebuild.
type WhitelistSource interface {
	LoadWhitelist(ctx context.Context) ([]Entry, []Alias, error)
}
