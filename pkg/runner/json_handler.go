package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
)

// Output is one JSON line written by JSONHandler.
type Output struct {
	Type     string `json:"type"` // message, system
	Identity string `json:"identity,omitempty"`
	Text     string `json:"text,omitempty"`
	Media    string `json:"media,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader *bufio.Reader

	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
	}
}

// Input reads a line holding either a Line object, a JSON string or raw text.
func (h *JSONHandler) Input(ctx context.Context) (Line, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Line{}, err
		}
		text, err := h.Reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			if err != nil {
				return Line{}, err
			}
			continue
		}

		var line Line
		if json.Unmarshal([]byte(text), &line) == nil {
			return line, nil
		}
		var val string
		if json.Unmarshal([]byte(text), &val) == nil {
			return Line{Text: val}, nil
		}
		// Fallback: plain text
		return Line{Text: text}, nil
	}
}

func (h *JSONHandler) SendText(ctx context.Context, identity, text string) error {
	return h.emit(Output{Type: "message", Identity: identity, Text: text})
}

func (h *JSONHandler) SendMedia(ctx context.Context, identity, media, caption string) error {
	return h.emit(Output{Type: "message", Identity: identity, Text: caption, Media: media})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(Output{Type: "system", Text: msg})
}

func (h *JSONHandler) emit(o Output) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(o)
}
