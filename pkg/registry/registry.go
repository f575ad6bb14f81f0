package registry

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

// ValidatorFunc defines the signature for an input validator.
// It receives the trimmed user input and reports whether it is acceptable.
type ValidatorFunc func(input string) bool

// regexPrefix selects an ad-hoc pattern validator, e.g. "regex:^[0-9]{5}$".
const regexPrefix = "regex:"

// Registry manages the validators that dialog trees may reference by name.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]ValidatorFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		validators: make(map[string]ValidatorFunc),
	}
}

// Default returns a registry preloaded with the built-in validators:
// nonempty, digits, number, email, phone and name.
func Default() *Registry {
	r := NewRegistry()
	r.Register("nonempty", func(s string) bool { return strings.TrimSpace(s) != "" })
	r.Register("digits", isDigits)
	r.Register("number", isNumber)
	r.Register("email", emailPattern.MatchString)
	r.Register("phone", isPhone)
	r.Register("name", isName)
	return r
}

// Register adds a validator to the registry.
// If a validator with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ValidatorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = fn
}

// Lookup resolves a validator by name.
// Names prefixed with "regex:" compile the remainder as a pattern.
// Returns an error if the validator is not found.
func (r *Registry) Lookup(name string) (domain.Validator, error) {
	if pattern, ok := strings.CutPrefix(name, regexPrefix); ok {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid validator pattern %q: %w", pattern, err)
		}
		return named{name: name, fn: re.MatchString}, nil
	}

	r.mu.RLock()
	fn, ok := r.validators[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("validator not found: %s", name)
	}
	return named{name: name, fn: fn}, nil
}

// Names lists the registered validator names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	return names
}

type named struct {
	name string
	fn   ValidatorFunc
}

func (n named) Validate(input string) bool { return n.fn(input) }
func (n named) Name() string               { return n.name }

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isNumber(s string) bool {
	s = strings.Replace(s, ",", ".", 1)
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if !isDigits(whole) {
		return false
	}
	return frac == "" || isDigits(frac)
}

// isPhone accepts 10 to 13 digits once common separators are stripped.
func isPhone(s string) bool {
	digits := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '+', '.':
			return -1
		}
		return r
	}, s)
	return isDigits(digits) && len(digits) >= 10 && len(digits) <= 13
}

func isName(s string) bool {
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ', r == '\'', r == '-':
		default:
			return false
		}
	}
	return letters >= 2
}
