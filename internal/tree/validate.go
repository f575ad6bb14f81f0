package tree

import (
	"fmt"
	"strings"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

// Validate checks the structural invariants of every reachable node:
// non-terminal nodes have at least one transition and choice keys are unique.
func (t *Tree) Validate() error {
	var errors []string

	for _, n := range t.order {
		id := n.Base().ID
		switch v := n.(type) {
		case *domain.OptionsNode:
			if len(v.Choices) == 0 && v.Next == nil {
				errors = append(errors, fmt.Sprintf("Node '%s' has no transitions", id))
			}
			if v.Validator != nil && v.Next == nil {
				errors = append(errors, fmt.Sprintf("Validated node '%s' has no next node", id))
			}
			keys := make(map[string]bool, len(v.Choices))
			for _, c := range v.Choices {
				if keys[c.Key] {
					errors = append(errors, fmt.Sprintf("Node '%s' repeats choice key '%s'", id, c.Key))
				}
				keys[c.Key] = true
				if c.Action != domain.ActionBack && c.Target == nil {
					errors = append(errors, fmt.Sprintf("Choice '%s' of node '%s' leads nowhere", c.Key, id))
				}
			}
		case *domain.InputNode:
			if v.Next == nil {
				errors = append(errors, fmt.Sprintf("Input node '%s' has no next node", id))
			}
		case *domain.HandoffNode, *domain.TerminalNode:
			// Handoff resumes at the root when Next is nil.
		default:
			errors = append(errors, fmt.Sprintf("Node '%s' has unsupported kind '%s'", id, n.Kind()))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}
