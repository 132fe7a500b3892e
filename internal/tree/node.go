// Package tree is a small rich-text document model: an arena of nodes
// addressed by NodeID, with edits staged in a transaction and committed all
// at once.
//
// Readers never observe a half-applied edit. A Txn only appends new nodes
// and replacement child lists to a private staging area; Commit publishes
// them under the document's write lock.
package tree

import (
	"fmt"
	"strings"
	"sync"
)

// NodeID addresses a node in a Document's arena.
type NodeID int

// NoNode is the zero handle: no parent, no node.
const NoNode NodeID = -1

// Kind is the node variant.
type Kind uint8

const (
	KindRoot Kind = iota
	KindText
	KindLink
	KindHeading
	KindElement // paragraph, list item, quote, ...
	KindDiff    // insertion/deletion/update annotation around inline content
)

var kindNames = [...]string{
	KindRoot:    "root",
	KindText:    "text",
	KindLink:    "link",
	KindHeading: "heading",
	KindElement: "element",
	KindDiff:    "diff",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}

// DiffOp is the change a KindDiff node annotates.
type DiffOp uint8

const (
	DiffNone DiffOp = iota
	DiffInsert
	DiffDelete
	DiffUpdate
)

var diffNames = [...]string{
	DiffNone:   "",
	DiffInsert: "insert",
	DiffDelete: "delete",
	DiffUpdate: "update",
}

func (op DiffOp) String() string {
	if int(op) < len(diffNames) {
		return diffNames[op]
	}
	return fmt.Sprintf("diff(%d)", op)
}

// ParseDiffOp is the inverse of DiffOp.String.
func ParseDiffOp(s string) (DiffOp, error) {
	for op, name := range diffNames {
		if name == s {
			return DiffOp(op), nil
		}
	}
	return 0, fmt.Errorf("unknown diff op %q", s)
}

// Node is one arena entry. Which payload fields are meaningful depends on Kind.
type Node struct {
	Kind   Kind
	Text   string // KindText
	Format int    // KindText: host formatting bits, preserved by splits
	URL    string // KindLink
	Level  int    // KindHeading
	Tag    string // KindElement
	Diff   DiffOp // KindDiff

	parent   NodeID
	children []NodeID
}

// Parent returns the parent handle, NoNode for the root or a detached node.
func (n Node) Parent() NodeID { return n.parent }

// Children returns a copy of the child handles.
func (n Node) Children() []NodeID { return append([]NodeID(nil), n.children...) }

// Document is an arena-backed node tree. It is safe for concurrent use.
type Document struct {
	mu    sync.RWMutex
	nodes []Node
	root  NodeID
	rev   uint64
}

// NewDocument returns a document holding only a root node.
func NewDocument() *Document {
	return &Document{
		nodes: []Node{{Kind: KindRoot, parent: NoNode}},
		root:  0,
	}
}

// Root returns the root handle.
func (d *Document) Root() NodeID { return d.root }

// Revision counts committed edits.
func (d *Document) Revision() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rev
}

// Append adds n as the last child of parent and returns its handle. It is a
// construction helper and commits immediately.
func (d *Document) Append(parent NodeID, n Node) (NodeID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid(parent) {
		return NoNode, fmt.Errorf("append: invalid parent %d", parent)
	}
	if d.nodes[parent].Kind == KindText {
		return NoNode, fmt.Errorf("append: text node %d cannot have children", parent)
	}
	id := NodeID(len(d.nodes))
	n.parent = parent
	n.children = nil
	d.nodes = append(d.nodes, n)
	d.nodes[parent].children = append(d.nodes[parent].children, id)
	d.rev++
	return id, nil
}

// Node returns a copy of the node at id.
func (d *Document) Node(id NodeID) (Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.valid(id) {
		return Node{}, false
	}
	n := d.nodes[id]
	n.children = n.Children()
	return n, true
}

// Ancestors returns the chain from id's parent up to the root.
func (d *Document) Ancestors(id NodeID) []NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []NodeID
	if !d.valid(id) {
		return nil
	}
	for p := d.nodes[id].parent; p != NoNode; p = d.nodes[p].parent {
		out = append(out, p)
	}
	return out
}

// TextContent concatenates the text of every text node under id.
func (d *Document) TextContent(id NodeID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var b strings.Builder
	d.appendText(&b, id)
	return b.String()
}

func (d *Document) appendText(b *strings.Builder, id NodeID) {
	if !d.valid(id) {
		return
	}
	n := &d.nodes[id]
	if n.Kind == KindText {
		b.WriteString(n.Text)
	}
	for _, c := range n.children {
		d.appendText(b, c)
	}
}

type walkEntry struct {
	id   NodeID
	node Node
	end  int // index just past this node's subtree
}

// Walk visits the tree in pre-order. Returning false from fn skips the
// node's children. The traversal works on a consistent copy, so fn may call
// back into the document.
func (d *Document) Walk(fn func(id NodeID, n Node) bool) {
	d.mu.RLock()
	var entries []walkEntry
	var visit func(id NodeID)
	visit = func(id NodeID) {
		i := len(entries)
		n := d.nodes[id]
		n.children = n.Children()
		entries = append(entries, walkEntry{id: id, node: n})
		for _, c := range d.nodes[id].children {
			visit(c)
		}
		entries[i].end = len(entries)
	}
	visit(d.root)
	d.mu.RUnlock()

	for i := 0; i < len(entries); {
		e := entries[i]
		if fn(e.id, e.node) {
			i++
		} else {
			i = e.end
		}
	}
}

func (d *Document) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(d.nodes)
}
