package middleware

import (
	"context"
	"regexp"

	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

// DefaultPIIPatterns match e-mail addresses, Brazilian phone numbers and CPFs.
var DefaultPIIPatterns = []string{
	`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
	`\d{3}\.?\d{3}\.?\d{3}-?\d{2}`,
	`(?:\+?55\s?)?\(?\d{2}\)?\s?9?\d{4}[\s\-]?\d{4}`,
}

type piiMiddleware struct {
	next     ports.TranscriptStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks the parts of transcript content matching patterns
// before they reach the store. Entries already stored are returned as is.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.TranscriptStore) ports.TranscriptStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Append(ctx context.Context, identity string, entry domain.TranscriptEntry) error {
	// entry is a copy; the caller's value is never modified.
	entry.Content = m.mask(entry.Content)
	return m.next.Append(ctx, identity, entry)
}

func (m *piiMiddleware) Transcript(ctx context.Context, identity string) ([]domain.TranscriptEntry, error) {
	return m.next.Transcript(ctx, identity)
}

func (m *piiMiddleware) Clear(ctx context.Context, identity string) error {
	return m.next.Clear(ctx, identity)
}

func (m *piiMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}
