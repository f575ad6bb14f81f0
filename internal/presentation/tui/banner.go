package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Botinho ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Green to teal, the chat app palette.
	lines := []struct{ text, color string }{
		{"  ____        _   _       _           ", "#25d366"},
		{" | __ )  ___ | |_(_)_ __ | |__   ___  ", "#22c55e"},
		{" |  _ \\ / _ \\| __| | '_ \\| '_ \\ / _ \\ ", "#10b981"},
		{" | |_) | (_) | |_| | | | | | | | (_) |", "#14b8a6"},
		{" |____/ \\___/ \\__|_|_| |_|_| |_|\\___/ ", "#128c7e"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
