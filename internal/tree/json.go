package tree

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONNode is the nested interchange form of a document.
type JSONNode struct {
	Type     string     `json:"type"`
	Text     string     `json:"text,omitempty"`
	Format   int        `json:"format,omitempty"`
	URL      string     `json:"url,omitempty"`
	Level    int        `json:"level,omitempty"`
	Tag      string     `json:"tag,omitempty"`
	Diff     string     `json:"diff,omitempty"`
	Children []JSONNode `json:"children,omitempty"`
}

// Decode reads a nested JSON document. The top node must be of type root.
func Decode(r io.Reader) (*Document, error) {
	var top JSONNode
	if err := json.NewDecoder(r).Decode(&top); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return FromJSON(top)
}

// FromJSON builds a Document from its nested form.
func FromJSON(top JSONNode) (*Document, error) {
	if top.Type != KindRoot.String() {
		return nil, fmt.Errorf("top node has type %q, want %q", top.Type, KindRoot.String())
	}
	doc := NewDocument()
	for _, c := range top.Children {
		if err := doc.appendJSON(doc.Root(), c); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (d *Document) appendJSON(parent NodeID, j JSONNode) error {
	kind, err := ParseKind(j.Type)
	if err != nil {
		return err
	}
	if kind == KindRoot {
		return fmt.Errorf("nested root node")
	}
	op, err := ParseDiffOp(j.Diff)
	if err != nil {
		return err
	}
	if kind == KindText && len(j.Children) > 0 {
		return fmt.Errorf("text node %q has children", j.Text)
	}
	id, err := d.Append(parent, Node{
		Kind:   kind,
		Text:   j.Text,
		Format: j.Format,
		URL:    j.URL,
		Level:  j.Level,
		Tag:    j.Tag,
		Diff:   op,
	})
	if err != nil {
		return err
	}
	for _, c := range j.Children {
		if err := d.appendJSON(id, c); err != nil {
			return err
		}
	}
	return nil
}

// JSON returns the nested form of the subtree at id.
func (d *Document) JSON(id NodeID) JSONNode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.toJSON(id)
}

func (d *Document) toJSON(id NodeID) JSONNode {
	n := d.nodes[id]
	j := JSONNode{
		Type:   n.Kind.String(),
		Text:   n.Text,
		Format: n.Format,
		URL:    n.URL,
		Level:  n.Level,
		Tag:    n.Tag,
		Diff:   n.Diff.String(),
	}
	for _, c := range n.children {
		j.Children = append(j.Children, d.toJSON(c))
	}
	return j
}

// Encode writes the whole document as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d.JSON(d.Root()))
}
