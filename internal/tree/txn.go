package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleTransaction is returned by Commit when the document changed
	// after Begin.
	ErrStaleTransaction = errors.New("document changed since transaction began")
	// ErrTxnDone is returned when a committed or discarded Txn is reused.
	ErrTxnDone = errors.New("transaction already finished")
)

// Txn stages edits against a Document. Staged nodes get handles right away
// but exist only inside the Txn until Commit.
type Txn struct {
	doc      *Document
	rev      uint64
	base     int // arena length at Begin; staged IDs start here
	staged   []Node
	children map[NodeID][]NodeID // replacement child lists for existing nodes
	detached map[NodeID]bool
	done     bool
}

// Begin starts a transaction.
func (d *Document) Begin() *Txn {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return &Txn{
		doc:      d,
		rev:      d.rev,
		base:     len(d.nodes),
		children: make(map[NodeID][]NodeID),
		detached: make(map[NodeID]bool),
	}
}

// Empty reports whether the transaction has no edits.
func (tx *Txn) Empty() bool {
	return len(tx.staged) == 0 && len(tx.children) == 0
}

// node returns a copy of id as the transaction currently sees it.
func (tx *Txn) node(id NodeID) (Node, error) {
	if int(id) >= tx.base && int(id) < tx.base+len(tx.staged) {
		return tx.staged[int(id)-tx.base], nil
	}
	n, ok := tx.doc.Node(id)
	if !ok || int(id) >= tx.base {
		return Node{}, fmt.Errorf("unknown node %d", id)
	}
	if kids, ok := tx.children[id]; ok {
		n.children = kids
	}
	return n, nil
}

func (tx *Txn) stage(n Node) NodeID {
	id := NodeID(tx.base + len(tx.staged))
	tx.staged = append(tx.staged, n)
	return id
}

// Text returns the text of a text node, staged or committed.
func (tx *Txn) Text(id NodeID) (string, error) {
	n, err := tx.node(id)
	if err != nil {
		return "", err
	}
	if n.Kind != KindText {
		return "", fmt.Errorf("node %d is %s, not text", id, n.Kind)
	}
	return n.Text, nil
}

// Parent returns id's parent as the transaction sees it.
func (tx *Txn) Parent(id NodeID) (NodeID, error) {
	n, err := tx.node(id)
	if err != nil {
		return NoNode, err
	}
	return n.parent, nil
}

// SplitText returns two new text nodes holding text[:offset] and
// text[offset:] of id. id itself is untouched; placing the halves is up to
// the caller.
func (tx *Txn) SplitText(id NodeID, offset int) (NodeID, NodeID, error) {
	if tx.done {
		return NoNode, NoNode, ErrTxnDone
	}
	n, err := tx.node(id)
	if err != nil {
		return NoNode, NoNode, err
	}
	if n.Kind != KindText {
		return NoNode, NoNode, fmt.Errorf("split: node %d is %s, not text", id, n.Kind)
	}
	if offset <= 0 || offset >= len(n.Text) {
		return NoNode, NoNode, fmt.Errorf("split: offset %d outside (0, %d)", offset, len(n.Text))
	}
	left := tx.stage(Node{Kind: KindText, Text: n.Text[:offset], Format: n.Format, parent: NoNode})
	right := tx.stage(Node{Kind: KindText, Text: n.Text[offset:], Format: n.Format, parent: NoNode})
	return left, right, nil
}

// Clone stages a childless copy of id.
func (tx *Txn) Clone(id NodeID) (NodeID, error) {
	if tx.done {
		return NoNode, ErrTxnDone
	}
	n, err := tx.node(id)
	if err != nil {
		return NoNode, err
	}
	n.parent = NoNode
	n.children = nil
	return tx.stage(n), nil
}

// NewLink stages a link node wrapping children.
func (tx *Txn) NewLink(url string, children ...NodeID) (NodeID, error) {
	if tx.done {
		return NoNode, ErrTxnDone
	}
	for _, c := range children {
		if _, err := tx.node(c); err != nil {
			return NoNode, fmt.Errorf("link child: %w", err)
		}
	}
	return tx.stage(Node{
		Kind:     KindLink,
		URL:      url,
		parent:   NoNode,
		children: append([]NodeID(nil), children...),
	}), nil
}

// ReplaceChild substitutes old in parent's child list with the given nodes,
// in order. old is detached on Commit.
func (tx *Txn) ReplaceChild(parent, old NodeID, with ...NodeID) error {
	if tx.done {
		return ErrTxnDone
	}
	p, err := tx.node(parent)
	if err != nil {
		return err
	}
	idx := -1
	for i, c := range p.children {
		if c == old {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("replace: node %d is not a child of %d", old, parent)
	}
	kids := make([]NodeID, 0, len(p.children)-1+len(with))
	kids = append(kids, p.children[:idx]...)
	kids = append(kids, with...)
	kids = append(kids, p.children[idx+1:]...)

	if int(parent) >= tx.base {
		tx.staged[int(parent)-tx.base].children = kids
	} else {
		tx.children[parent] = kids
	}
	tx.detached[old] = true
	return nil
}

// Commit publishes every staged edit at once.
func (tx *Txn) Commit() error {
	if tx.done {
		return ErrTxnDone
	}
	d := tx.doc
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rev != tx.rev || len(d.nodes) != tx.base {
		return ErrStaleTransaction
	}
	tx.done = true
	if tx.Empty() {
		return nil
	}

	d.nodes = append(d.nodes, tx.staged...)
	for id := range tx.detached {
		d.nodes[id].parent = NoNode
	}
	for id, kids := range tx.children {
		d.nodes[id].children = kids
	}
	for id := range tx.children {
		for _, c := range d.nodes[id].children {
			d.nodes[c].parent = id
		}
	}
	for i := tx.base; i < len(d.nodes); i++ {
		for _, c := range d.nodes[i].children {
			d.nodes[c].parent = NodeID(i)
		}
	}
	d.rev++
	return nil
}

// Discard abandons the transaction.
func (tx *Txn) Discard() {
	tx.done = true
}
