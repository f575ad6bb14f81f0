// Package tree loads, links and validates dialog trees.
//
// A tree is decoded once from a YAML or JSON document, materialised into the
// domain node variants and then shared read-only by every session.
package tree

import (
	_ "embed"
	"fmt"

	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/registry"
)

//go:embed default_tree.yaml
var defaultTree []byte

// DefaultDocument returns the embedded default tree document.
func DefaultDocument() []byte {
	return append([]byte(nil), defaultTree...)
}

// Tree is an immutable, indexed dialog tree.
type Tree struct {
	Title string
	Root  domain.Node

	nodes map[string]domain.Node
	order []domain.Node
}

// New indexes the nodes reachable from root. Node IDs must be unique.
func New(title string, root domain.Node) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("tree has no root")
	}
	t := &Tree{Title: title, Root: root, nodes: make(map[string]domain.Node)}

	queue := []domain.Node{root}
	seen := map[domain.Node]bool{root: true}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		id := n.Base().ID
		if id == "" {
			return nil, fmt.Errorf("node without id reachable from %q", root.Base().ID)
		}
		if _, dup := t.nodes[id]; dup {
			return nil, fmt.Errorf("duplicate node id %q", id)
		}
		t.nodes[id] = n
		t.order = append(t.order, n)

		for _, next := range domain.Transitions(n) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return t, nil
}

// Load decodes, links and validates a tree document.
func Load(data []byte, reg *registry.Registry) (*Tree, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	t, err := Build(doc, reg)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup returns the node with the given ID.
func (t *Tree) Lookup(id string) (domain.Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Nodes lists every reachable node in breadth-first order, root first.
func (t *Tree) Nodes() []domain.Node {
	return append([]domain.Node(nil), t.order...)
}

// Len returns the number of reachable nodes.
func (t *Tree) Len() int { return len(t.order) }
