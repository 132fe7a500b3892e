package store

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/takaryo1010/termlink/internal/ports"
)

// articleBucket returns the named sub-bucket of an article, creating it
// when create is set. A nil bucket means the article has no such data.
func articleBucket(tx *bolt.Tx, articleID string, name []byte, create bool) (*bolt.Bucket, error) {
	articles := tx.Bucket(bucketArticles)
	if !create {
		a := articles.Bucket([]byte(articleID))
		if a == nil {
			return nil, nil
		}
		return a.Bucket(name), nil
	}
	a, err := articles.CreateBucketIfNotExists([]byte(articleID))
	if err != nil {
		return nil, err
	}
	return a.CreateBucketIfNotExists(name)
}

// SetOverride stores an override for one term of an article.
func (s *Store) SetOverride(articleID string, o ports.Override) error {
	key := ports.NormalizeKey(o.Term)
	if articleID == "" || key == "" {
		return ErrEmptyKey
	}
	return s.update("override", func(tx *bolt.Tx) error {
		b, err := articleBucket(tx, articleID, bucketOverrides, true)
		if err != nil {
			return err
		}
		return put(b, key, o)
	})
}

// DeleteOverride removes an override.
func (s *Store) DeleteOverride(articleID, term string) error {
	key := ports.NormalizeKey(term)
	return s.update("override", func(tx *bolt.Tx) error {
		b, err := articleBucket(tx, articleID, bucketOverrides, false)
		if err != nil {
			return err
		}
		if b == nil || b.Get([]byte(key)) == nil {
			return fmt.Errorf("override %q for article %q: %w", term, articleID, ErrNotFound)
		}
		return b.Delete([]byte(key))
	})
}

// PutHeadingLink stores the standalone title for a heading of an article.
func (s *Store) PutHeadingLink(articleID string, h ports.HeadingLink) error {
	key := ports.NormalizeKey(h.HeadingText)
	if articleID == "" || key == "" {
		return ErrEmptyKey
	}
	return s.update("heading", func(tx *bolt.Tx) error {
		b, err := articleBucket(tx, articleID, bucketHeadings, true)
		if err != nil {
			return err
		}
		return put(b, key, h)
	})
}

// Overrides implements ports.OverrideSource.
func (s *Store) Overrides(ctx context.Context, articleID string) (ports.Overrides, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(ports.Overrides)
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := articleBucket(tx, articleID, bucketOverrides, false)
		if err != nil || b == nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var o ports.Override
			if err := json.Unmarshal(v, &o); err != nil {
				return fmt.Errorf("unmarshal override %q: %w", k, err)
			}
			out[string(k)] = o
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// HeadingLinks implements ports.HeadingLinkSource.
func (s *Store) HeadingLinks(ctx context.Context, articleID string) (ports.HeadingTitles, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(ports.HeadingTitles)
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := articleBucket(tx, articleID, bucketHeadings, false)
		if err != nil || b == nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var h ports.HeadingLink
			if err := json.Unmarshal(v, &h); err != nil {
				return fmt.Errorf("unmarshal heading %q: %w", k, err)
			}
			out[string(k)] = h.Title
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
