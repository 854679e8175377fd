// Package render reconstructs documents from stored spans: the full byte
// stream, or a selective view that expands matched nodes and collapses the
// rest to parseable placeholders.
package render

import (
	"bytes"

	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/store"
)

// Renderer reads node trees and document content from a store.
type Renderer struct {
	store *store.Store
}

// NewRenderer returns a Renderer over s.
func NewRenderer(s *store.Store) *Renderer {
	return &Renderer{store: s}
}

// RenderFull reconstructs the original document byte-for-byte by walking
// the contains tree in document order and concatenating leaf spans with
// the separator bytes between them. This is the round-trip oracle for the
// whole pipeline.
func (r *Renderer) RenderFull(docID string) ([]byte, error) {
	doc, err := r.store.GetDocument(docID)
	if err != nil {
		return nil, err
	}
	root, err := r.store.DocRoot(docID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.emitSubtree(&buf, doc.Content, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// emitSubtree writes a node's span by recursing through its children,
// interleaving the bytes between child spans so nothing is lost.
func (r *Renderer) emitSubtree(buf *bytes.Buffer, content []byte, n *store.NodeRecord) error {
	children, err := r.store.ChildrenOf(n.PK)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		buf.Write(content[n.Start:n.End])
		return nil
	}
	pos := n.Start
	for i := range children {
		c := &children[i]
		buf.Write(content[pos:c.Start])
		if err := r.emitSubtree(buf, content, c); err != nil {
			return err
		}
		pos = c.End
	}
	buf.Write(content[pos:n.End])
	return nil
}

// RenderFiltered reconstructs a selective view: matched nodes (given by
// surrogate key) are expanded per the policy, everything else collapses to
// a placeholder. Ancestor chains are found by walking parent_node_pk
// pointers, so cost is proportional to tree depth, not corpus size.
func (r *Renderer) RenderFiltered(docID string, matches []int64, opts Options) ([]byte, error) {
	doc, err := r.store.GetDocument(docID)
	if err != nil {
		return nil, err
	}
	root, err := r.store.DocRoot(docID)
	if err != nil {
		return nil, err
	}

	expand := make(map[int64]bool)  // emit full span
	opened := make(map[int64]bool)  // recurse into, children decided individually
	context := make(map[int64]bool) // opened ancestor whose own text is emitted

	for _, pk := range matches {
		if pk == root.PK {
			expand[pk] = true
			continue
		}
		expand[pk] = true
		if opts.Policy == DirectAncestorsSiblings {
			if err := r.expandSiblings(pk, opts.SiblingWindow, expand); err != nil {
				return nil, err
			}
		}
		// Walk the denormalized parent pointers up to the root.
		cur := pk
		for {
			node, err := r.store.NodeByPK(cur)
			if err != nil {
				return nil, err
			}
			if node.ParentPK == 0 {
				break
			}
			opened[node.ParentPK] = true
			if opts.Policy >= DirectAncestors {
				context[node.ParentPK] = true
			}
			cur = node.ParentPK
		}
	}
	opened[root.PK] = true

	var buf bytes.Buffer
	if err := r.emitFiltered(&buf, doc.Content, root, expand, opened, context, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// expandSiblings adds siblings within window positions of the match, at
// the same level under the same parent.
func (r *Renderer) expandSiblings(pk int64, window int, expand map[int64]bool) error {
	if window <= 0 {
		return nil
	}
	node, err := r.store.NodeByPK(pk)
	if err != nil {
		return err
	}
	if node.ParentPK == 0 {
		return nil
	}
	siblings, err := r.store.ChildrenOf(node.ParentPK)
	if err != nil {
		return err
	}
	idx := -1
	for i := range siblings {
		if siblings[i].PK == pk {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	for i := idx - window; i <= idx+window; i++ {
		if i >= 0 && i < len(siblings) {
			expand[siblings[i].PK] = true
		}
	}
	return nil
}

// emitFiltered renders one node under the filtered view. Expanded nodes
// emit their whole span; opened nodes recurse; anything else becomes a
// placeholder. A node's own text (the bytes of its span not covered by
// children, such as a heading's line and the separators inside its
// section) is emitted only for context ancestors, ShowStructure headings,
// and the root's separators between rendered children.
func (r *Renderer) emitFiltered(buf *bytes.Buffer, content []byte, n *store.NodeRecord, expand, opened, context map[int64]bool, opts Options) error {
	if expand[n.PK] {
		buf.Write(content[n.Start:n.End])
		return nil
	}

	showOwn := context[n.PK] || (opts.ShowStructure && n.Kind == string(parser.KindHeading))
	if !opened[n.PK] && !showOwn {
		buf.WriteString(Placeholder(n.ShortID, n.Kind, n.End-n.Start))
		return nil
	}

	children, err := r.store.ChildrenOf(n.PK)
	if err != nil {
		return err
	}
	pos := n.Start
	for i := range children {
		c := &children[i]
		if showOwn || n.Kind == string(parser.KindDoc) {
			buf.Write(content[pos:c.Start])
		}
		if err := r.emitFiltered(buf, content, c, expand, opened, context, opts); err != nil {
			return err
		}
		if !showOwn && n.Kind != string(parser.KindDoc) && i < len(children)-1 {
			buf.WriteByte('\n')
		}
		pos = c.End
	}
	if showOwn || n.Kind == string(parser.KindDoc) {
		buf.Write(content[pos:n.End])
	}
	return nil
}
