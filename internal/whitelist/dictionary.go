// Package whitelist loads the linkable-term dictionary from a YAML file.
package whitelist

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/takaryo1010/termlink/internal/ports"
)

// ErrInvalidEntry is returned when a dictionary row fails validation.
var ErrInvalidEntry = errors.New("invalid entry found")

var validate = validator.New()

// Term represents a single entry in the dictionary.
type Term struct {
	Term        string   `yaml:"term" validate:"required"`
	Title       string   `yaml:"title" validate:"required,max=512"`
	Description string   `yaml:"description,omitempty"`
	Aliases     []string `yaml:"aliases,omitempty" validate:"dive,required"`
}

// Dictionary represents the structure of the dictionary file.
type Dictionary struct {
	Terms []Term `yaml:"terms"`
}

// Parse decodes and validates dictionary YAML. Duplicate keys are left for
// the index builder to report so all collisions surface in one place.
func Parse(data []byte) (*Dictionary, error) {
	var dict Dictionary
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary yaml: %w", err)
	}
	for i, term := range dict.Terms {
		if err := validate.Struct(term); err != nil {
			return nil, fmt.Errorf("%w at index %d (%q): %v", ErrInvalidEntry, i, term.Term, err)
		}
	}
	return &dict, nil
}

// LoadDictionary loads and parses the dictionary file from the given path.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file: %w", err)
	}
	return Parse(data)
}

// Split flattens the dictionary into entries and aliases.
func (d *Dictionary) Split() ([]ports.Entry, []ports.Alias) {
	entries := make([]ports.Entry, 0, len(d.Terms))
	var aliases []ports.Alias
	for _, t := range d.Terms {
		entries = append(entries, ports.Entry{Term: t.Term, Title: t.Title, Description: t.Description})
		for _, a := range t.Aliases {
			aliases = append(aliases, ports.Alias{Alias: a, Term: t.Term})
		}
	}
	return entries, aliases
}

// File is a WhitelistSource reading a dictionary file. The file is re-read on
// every load so an invalidated cache picks up edits.
type File struct {
	Path string
}

// LoadWhitelist implements ports.WhitelistSource.
func (f File) LoadWhitelist(_ context.Context) ([]ports.Entry, []ports.Alias, error) {
	dict, err := LoadDictionary(f.Path)
	if err != nil {
		return nil, nil, err
	}
	entries, aliases := dict.Split()
	return entries, aliases, nil
}
