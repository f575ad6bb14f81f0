package tree

import (
	"fmt"
	"strings"

	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/registry"
)

const (
	// DefaultTitle names trees whose root carries no title.
	DefaultTitle = "Fluxo principal"
	// DefaultErrorMessage is used by validated nodes without an error_message.
	DefaultErrorMessage = "Entrada inválida. Tente novamente."

	rootID = "root"
)

type pendingRef struct {
	from   string
	target string
	set    func(domain.Node)
}

type builder struct {
	reg   *registry.Registry
	nodes map[string]domain.Node
	refs  []pendingRef
	errs  []string
}

// Build links a decoded document into an immutable tree, resolving
// validator names against reg and references by ID.
func Build(doc *Document, reg *registry.Registry) (*Tree, error) {
	if reg == nil {
		reg = registry.Default()
	}
	b := &builder{reg: reg, nodes: make(map[string]domain.Node)}

	if doc.root.Ref != "" {
		return nil, fmt.Errorf("root node cannot be a reference")
	}
	root := b.node(doc.root, rootID)

	for _, ref := range b.refs {
		target, ok := b.nodes[ref.target]
		if !ok {
			b.fail("node %q references unknown node %q", ref.from, ref.target)
			continue
		}
		ref.set(target)
	}

	if len(b.errs) > 0 {
		return nil, fmt.Errorf("found %d errors:\n- %s", len(b.errs), strings.Join(b.errs, "\n- "))
	}
	return New(doc.Title, root)
}

func (b *builder) fail(format string, args ...any) {
	b.errs = append(b.errs, fmt.Sprintf(format, args...))
}

// link builds s, or defers it when s is a reference.
func (b *builder) link(s *nodeSpec, from, fallbackID string, set func(domain.Node)) {
	if s.Ref != "" {
		b.refs = append(b.refs, pendingRef{from: from, target: s.Ref, set: set})
		return
	}
	set(b.node(s, fallbackID))
}

func (b *builder) node(s *nodeSpec, fallbackID string) domain.Node {
	id := s.ID
	if id == "" {
		id = fallbackID
	}
	header := domain.Header{
		ID:       id,
		Title:    s.Title,
		Prompt:   strings.TrimRight(s.Message, "\n"),
		Media:    s.Media,
		Activity: s.Activity || s.Type == "activity",
	}

	var n domain.Node
	switch kind := kindOf(s); kind {
	case domain.KindHandoff:
		h := &domain.HandoffNode{Header: header}
		b.register(id, h)
		if s.Next != nil {
			b.link(s.Next, id, id+".next", func(next domain.Node) { h.Next = next })
		}
		n = h
	case domain.KindInput:
		in := &domain.InputNode{Header: header, ErrorMessage: s.ErrorMessage}
		b.register(id, in)
		in.Validator = b.validator(id, s.Validator)
		if in.ErrorMessage == "" {
			in.ErrorMessage = DefaultErrorMessage
		}
		if s.Next != nil {
			b.link(s.Next, id, id+".next", func(next domain.Node) { in.Next = next })
		}
		n = in
	case domain.KindOptions:
		n = b.options(s, header)
	case domain.KindTerminal:
		t := &domain.TerminalNode{Header: header}
		b.register(id, t)
		n = t
	default:
		b.fail("node %q has unknown type %q", id, s.Type)
		n = &domain.TerminalNode{Header: header}
	}
	return n
}

func (b *builder) options(s *nodeSpec, header domain.Header) domain.Node {
	id := header.ID
	opt := &domain.OptionsNode{Header: header, ErrorMessage: s.ErrorMessage}
	b.register(id, opt)

	if s.Validator != "" {
		opt.Validator = b.validator(id, s.Validator)
		if opt.ErrorMessage == "" {
			opt.ErrorMessage = DefaultErrorMessage
		}
		if s.Next != nil {
			b.link(s.Next, id, id+".next", func(next domain.Node) { opt.Next = next })
		}
	}

	opt.Choices = make([]domain.Choice, len(s.Children))
	seen := make(map[string]bool, len(s.Children))
	for i, c := range s.Children {
		key := strings.TrimSpace(c.Choice)
		if key == "" {
			b.fail("child %d of node %q has no choice key", i, id)
		}
		opt.Choices[i].Key = key

		// Derived child ids embed the key, so a repeat is reported here
		// before it surfaces as a duplicate id.
		if seen[key] {
			b.fail("node %q repeats choice key %q", id, key)
			continue
		}
		seen[key] = true

		childID := id + "." + key
		switch {
		case c.Action == "back":
			if c.Message != "" {
				b.fail("back choice %q of node %q carries a prompt", key, id)
			}
			opt.Choices[i].Action = domain.ActionBack
		case kindOf(c) == domain.KindHandoff:
			opt.Choices[i].Action = domain.ActionHandToAI
			b.link(c, id, childID, func(target domain.Node) { opt.Choices[i].Target = target })
		case isLabel(c):
			// The choice leads straight to the label's next node.
			b.link(c.Next, id, childID, func(target domain.Node) { opt.Choices[i].Target = target })
		default:
			b.link(c, id, childID, func(target domain.Node) { opt.Choices[i].Target = target })
		}
	}
	return opt
}

func (b *builder) register(id string, n domain.Node) {
	if _, exists := b.nodes[id]; exists {
		b.fail("duplicate node id %q", id)
		return
	}
	b.nodes[id] = n
}

func (b *builder) validator(id, name string) domain.Validator {
	if name == "" {
		return nil
	}
	v, err := b.reg.Lookup(name)
	if err != nil {
		b.fail("node %q: %v", id, err)
		return nil
	}
	return v
}

// isLabel reports whether s only names a choice: no type, validator or
// children of its own, just a next node.
func isLabel(s *nodeSpec) bool {
	return s.Ref == "" && s.Next != nil && s.Type == "" && s.Action == "" &&
		s.Validator == "" && len(s.Children) == 0
}

func kindOf(s *nodeSpec) domain.Kind {
	if s.Action == "handoff" {
		return domain.KindHandoff
	}
	switch s.Type {
	case "handoff", "ai":
		return domain.KindHandoff
	case "input":
		return domain.KindInput
	case "terminal":
		return domain.KindTerminal
	case "options", "activity":
		return domain.KindOptions
	case "":
		switch {
		case len(s.Children) > 0 || s.Validator != "":
			return domain.KindOptions
		case s.Next != nil:
			return domain.KindInput
		default:
			return domain.KindTerminal
		}
	}
	return domain.Kind(s.Type)
}
