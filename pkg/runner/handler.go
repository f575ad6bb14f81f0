package runner

import (
	"context"

	"github.com/claytonlovin/Botinho/pkg/ports"
)

// Line is one user turn read from the stream.
type Line struct {
	Text string `json:"text,omitempty"`
	// Audio is the path of a file sent as a voice note.
	Audio string `json:"audio,omitempty"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Sender delivers the bot's messages to the user.
	ports.Sender

	// Input reads the next turn. io.EOF ends the conversation.
	Input(ctx context.Context) (Line, error)

	// SystemOutput presents a meta-message to the user (e.g. routing errors).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}
