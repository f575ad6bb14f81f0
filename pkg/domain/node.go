package domain

// Kind identifies the payload shape of a Node.
type Kind string

const (
	// KindOptions displays a menu and waits for one of its choice keys.
	KindOptions Kind = "options"
	// KindInput waits for free text accepted by a validator.
	KindInput Kind = "input"
	// KindHandoff delegates every turn to the assessment engine.
	KindHandoff Kind = "handoff"
	// KindTerminal ends the walk; the next turn restarts from the root.
	KindTerminal Kind = "terminal"
)

// Action is the behaviour attached to a choice.
type Action string

const (
	ActionNone     Action = ""
	ActionBack     Action = "back"
	ActionHandToAI Action = "handoff"
)

// Validator reports whether a trimmed user input is acceptable.
type Validator interface {
	Validate(input string) bool
	// Name identifies the validator in serialized trees.
	Name() string
}

// Node is a dialog tree node. The concrete types are *OptionsNode, *InputNode,
// *HandoffNode and *TerminalNode; callers switch on the concrete type.
type Node interface {
	Base() *Header
	Kind() Kind
}

// Header holds the fields shared by every node kind.
type Header struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Prompt string `json:"prompt,omitempty"`

	// Media is an attachment (usually audio) delivered together with the prompt.
	Media string `json:"media,omitempty"`

	// Activity marks nodes whose prompt and media must be played back exactly
	// once per visit before a reply is accepted.
	Activity bool `json:"activity,omitempty"`
}

// Base returns the shared header.
func (h *Header) Base() *Header { return h }

// Choice is one entry of an options menu.
type Choice struct {
	Key    string `json:"key"`
	Action Action `json:"action,omitempty"`
	// Target is the node entered when the choice is taken. Nil for Back choices.
	Target Node `json:"-"`
}

// OptionsNode waits for an exact choice key. When Validator is set the node
// accepts any input the validator approves and moves to Next instead.
type OptionsNode struct {
	Header
	Choices      []Choice
	Validator    Validator
	ErrorMessage string
	Next         Node
}

func (*OptionsNode) Kind() Kind { return KindOptions }

// Find returns the choice whose key equals key.
func (n *OptionsNode) Find(key string) (Choice, bool) {
	for _, c := range n.Choices {
		if c.Key == key {
			return c, true
		}
	}
	return Choice{}, false
}

// InputNode waits for free text and always moves to Next once it is accepted.
type InputNode struct {
	Header
	Validator    Validator
	ErrorMessage string
	Next         Node
}

func (*InputNode) Kind() Kind { return KindInput }

// HandoffNode hands the conversation to the assessment engine. The walk resumes
// at Next (or the root) once the assessment completes or is cancelled.
type HandoffNode struct {
	Header
	Next Node
}

func (*HandoffNode) Kind() Kind { return KindHandoff }

// TerminalNode has no transitions.
type TerminalNode struct {
	Header
}

func (*TerminalNode) Kind() Kind { return KindTerminal }

// Transitions lists the nodes directly reachable from n.
func Transitions(n Node) []Node {
	var out []Node
	switch v := n.(type) {
	case *OptionsNode:
		for _, c := range v.Choices {
			if c.Target != nil {
				out = append(out, c.Target)
			}
		}
		if v.Next != nil {
			out = append(out, v.Next)
		}
	case *InputNode:
		if v.Next != nil {
			out = append(out, v.Next)
		}
	case *HandoffNode:
		if v.Next != nil {
			out = append(out, v.Next)
		}
	}
	return out
}
