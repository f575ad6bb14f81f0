package tui

import (
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const (
	defaultWrap = 80
	maxWrap     = 120
)

var (
	chatBold   = regexp.MustCompile(`(^|[\s(])\*([^*\n]+)\*`)
	chatStrike = regexp.MustCompile(`(^|[\s(])~([^~\n]+)~`)
)

// NewRenderer returns a function that renders chat-formatted replies using
// glamour, detecting a light or dark background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(WrapWidth(os.Stdout)),
	)
	if err != nil {
		return func(text string) (string, error) { return text, nil }
	}

	return func(text string) (string, error) {
		return r.Render(ChatToMarkdown(text))
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// WrapWidth returns the terminal width of f capped at 120 columns, or 80 when
// f is not a terminal.
func WrapWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWrap
	}
	return min(w, maxWrap)
}

// ChatToMarkdown converts chat markup (*bold*, _italic_, ~strike~) to
// Markdown and keeps every line break.
func ChatToMarkdown(text string) string {
	text = chatBold.ReplaceAllString(text, "$1**$2**")
	text = chatStrike.ReplaceAllString(text, "$1~~$2~~")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		// Bullets written with • are lists in Markdown.
		if strings.HasPrefix(l, "• ") {
			lines[i] = "- " + strings.TrimPrefix(l, "• ")
			continue
		}
		if l != "" && i < len(lines)-1 && lines[i+1] != "" {
			lines[i] = l + "  "
		}
	}
	return strings.Join(lines, "\n")
}
