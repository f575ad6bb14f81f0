package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// audioCommand sends the named file as a voice note.
const audioCommand = "/audio "

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the runner.
type ContentRenderer func(string) (string, error)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	// Prompt is printed before every read. Empty disables it.
	Prompt string

	mu        sync.Mutex
	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithPrompt replaces the default "> " prompt.
func WithPrompt(p string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = p
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Prompt: "> ",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// FeedInput pushes a line as if it was typed. Blocks until it is consumed.
func (h *TextHandler) FeedInput(text string, err error) {
	h.initPump()
	h.inputChan <- inputResult{text: text, err: err}
}

// Input reads one line. Blank lines are skipped.
func (h *TextHandler) Input(ctx context.Context) (Line, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return Line{}, ctx.Err()
		default:
			if h.Prompt != "" {
				h.write(h.Prompt)
			}
		}

		select {
		case <-ctx.Done():
			return Line{}, ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return Line{}, io.EOF
			}
			if res.err != nil {
				return Line{}, res.err
			}
			text := strings.TrimSpace(res.text)
			if text == "" {
				continue
			}
			return ParseLine(text), nil
		}
	}
}

// ParseLine turns "/audio <file>" into an audio turn; anything else is text.
func ParseLine(text string) Line {
	if path, ok := strings.CutPrefix(text, audioCommand); ok {
		if path = strings.TrimSpace(path); path != "" {
			return Line{Audio: path}
		}
	}
	return Line{Text: text}
}

func (h *TextHandler) SendText(ctx context.Context, identity, text string) error {
	h.write(h.render(text) + "\n")
	return nil
}

func (h *TextHandler) SendMedia(ctx context.Context, identity, media, caption string) error {
	out := fmt.Sprintf("🔊 [%s]\n", media)
	if caption != "" {
		out += h.render(caption) + "\n"
	}
	h.write(out)
	return nil
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	h.write(fmt.Sprintf("\n[System] %s\n", msg))
	return nil
}

func (h *TextHandler) render(msg string) string {
	output := msg
	if h.Renderer != nil {
		if rendered, err := h.Renderer(msg); err == nil {
			output = rendered
		}
	}
	return strings.TrimSpace(output)
}

func (h *TextHandler) write(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprint(h.Writer, s)
}
