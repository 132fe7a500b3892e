// Package overlay applies resolved spans to a tree document by splitting
// text leaves and wrapping the matched pieces in link nodes.
package overlay

import (
	"errors"
	"fmt"

	"github.com/takaryo1010/termlink/internal/match"
	"github.com/takaryo1010/termlink/internal/ports"
	"github.com/takaryo1010/termlink/internal/render"
	"github.com/takaryo1010/termlink/internal/termindex"
	"github.com/takaryo1010/termlink/internal/tree"
)

// ErrInvalidSpans is returned when a SpanFunc yields spans that are
// unsorted, overlapping or out of the leaf's bounds.
var ErrInvalidSpans = errors.New("invalid spans for text node")

// Leaf is a text node together with the context that decides how it is
// linked.
type Leaf struct {
	ID   tree.NodeID
	Text string

	InLink  bool // an ancestor is a link
	Deleted bool // an ancestor is a deletion annotation

	Heading       tree.NodeID // nearest heading ancestor, or tree.NoNode
	HeadingText   string      // full text of that heading
	HeadingLinked bool        // that heading already contains a link
}

// InHeading reports whether the leaf belongs to a heading.
func (l Leaf) InHeading() bool { return l.Heading != tree.NoNode }

// SpanFunc returns the spans to link inside one leaf, as byte offsets into
// leaf.Text. It is called for every text leaf in document order, including
// leaves that will not be edited, so it can track document-wide state.
type SpanFunc func(leaf Leaf) []match.Span

// Leaves lists the text leaves of doc in pre-order with their context.
func Leaves(doc *tree.Document) []Leaf {
	var leaves []Leaf
	doc.Walk(func(id tree.NodeID, n tree.Node) bool {
		if n.Kind != tree.KindText {
			return true
		}
		leaf := Leaf{ID: id, Text: n.Text, Heading: tree.NoNode}
		for _, a := range doc.Ancestors(id) {
			an, _ := doc.Node(a)
			switch an.Kind {
			case tree.KindLink:
				leaf.InLink = true
			case tree.KindDiff:
				if an.Diff == tree.DiffDelete {
					leaf.Deleted = true
				}
			case tree.KindHeading:
				if leaf.Heading == tree.NoNode {
					leaf.Heading = a
				}
			case tree.KindRoot, tree.KindText, tree.KindElement:
			}
		}
		if leaf.InHeading() {
			leaf.HeadingText = doc.TextContent(leaf.Heading)
			leaf.HeadingLinked = containsLink(doc, leaf.Heading)
		}
		leaves = append(leaves, leaf)
		return false
	})
	return leaves
}

func containsLink(doc *tree.Document, id tree.NodeID) bool {
	n, ok := doc.Node(id)
	if !ok {
		return false
	}
	for _, c := range n.Children() {
		cn, _ := doc.Node(c)
		if cn.Kind == tree.KindLink || containsLink(doc, c) {
			return true
		}
	}
	return false
}

// Spans returns the standard SpanFunc: leaves inside links only mark their
// terms as seen, heading leaves become one heading span each, deleted text
// is left alone and every other leaf is scanned for terms. One scanner is
// shared across leaves so first-occurrence holds for the whole document.
func Spans(index *termindex.Snapshot, overrides ports.Overrides, titles ports.HeadingTitles, policy match.Policy) SpanFunc {
	sc := match.NewScanner(index, overrides, policy)
	return func(leaf Leaf) []match.Span {
		switch {
		case leaf.InLink:
			sc.MarkSeen(leaf.Text)
			return nil
		case leaf.Deleted:
			return nil
		case leaf.InHeading():
			if leaf.HeadingLinked || leaf.Text == "" {
				return nil
			}
			return []match.Span{match.HeadingSpan(0, len(leaf.Text), leaf.Text, leaf.HeadingText, titles)}
		default:
			return sc.Scan(leaf.Text, nil)
		}
	}
}

// Apply links the document in a single transaction and returns how many
// links were inserted. Nothing is published unless every leaf succeeds.
func Apply(doc *tree.Document, spans SpanFunc) (int, error) {
	tx := doc.Begin()
	linked := 0
	for _, leaf := range Leaves(doc) {
		ss := spans(leaf)
		if leaf.InLink || len(ss) == 0 {
			continue
		}
		if !inBounds(ss, len(leaf.Text)) {
			tx.Discard()
			return 0, fmt.Errorf("node %d: %w", leaf.ID, ErrInvalidSpans)
		}
		if err := wrap(tx, leaf, ss); err != nil {
			tx.Discard()
			return 0, fmt.Errorf("node %d: %w", leaf.ID, err)
		}
		linked += len(ss)
	}
	if tx.Empty() {
		tx.Discard()
		return 0, nil
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return linked, nil
}

func inBounds(spans []match.Span, n int) bool {
	for _, s := range spans {
		if s.Start < 0 || s.Start >= s.End || s.End > n {
			return false
		}
	}
	return match.Valid(spans)
}

// wrap replaces leaf with its pieces, working from the last span back so
// the offsets of earlier spans stay valid in the remaining left piece.
func wrap(tx *tree.Txn, leaf Leaf, spans []match.Span) error {
	parent, err := tx.Parent(leaf.ID)
	if err != nil {
		return err
	}

	current := leaf.ID
	var tail []tree.NodeID
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		text, err := tx.Text(current)
		if err != nil {
			return err
		}

		mid := current
		left := tree.NoNode
		var right []tree.NodeID
		if s.End < len(text) {
			var r tree.NodeID
			if mid, r, err = tx.SplitText(mid, s.End); err != nil {
				return err
			}
			right = []tree.NodeID{r}
		}
		if s.Start > 0 {
			if left, mid, err = tx.SplitText(mid, s.Start); err != nil {
				return err
			}
		}

		clone, err := tx.Clone(mid)
		if err != nil {
			return err
		}
		link, err := tx.NewLink(render.LinkURL(s.Title), clone)
		if err != nil {
			return err
		}
		tail = append(append([]tree.NodeID{link}, right...), tail...)

		current = left
		if current == tree.NoNode {
			break
		}
	}

	seq := tail
	if current != tree.NoNode {
		seq = append([]tree.NodeID{current}, tail...)
	}
	return tx.ReplaceChild(parent, leaf.ID, seq...)
}
