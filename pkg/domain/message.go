package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Message is one outbound chat message.
type Message struct {
	Text  string `json:"text,omitempty"`
	Media string `json:"media,omitempty"` // path or URL of an attachment
}

// Effect is a write that belongs to a turn but must only happen once the
// turn's reply was delivered.
type Effect func(ctx context.Context) error

// Reply is the ordered output of a single turn.
type Reply struct {
	Messages []Message `json:"messages"`
	// Effects run after delivery, in order. See Commit.
	Effects []Effect `json:"-"`
}

// Defer queues effects to run on Commit. Nil effects are ignored.
func (r *Reply) Defer(effects ...Effect) {
	for _, e := range effects {
		if e != nil {
			r.Effects = append(r.Effects, e)
		}
	}
}

// Commit runs every queued effect and clears the queue. All effects run
// even when one fails; the failures are joined.
func (r *Reply) Commit(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, e := range r.Effects {
		errs = append(errs, e(ctx))
	}
	r.Effects = nil
	return errors.Join(errs...)
}

// Say appends a text message. Empty text is ignored.
func (r *Reply) Say(text string) {
	if text == "" {
		return
	}
	r.Messages = append(r.Messages, Message{Text: text})
}

// Attach appends a media message with an optional caption.
func (r *Reply) Attach(media, caption string) {
	r.Messages = append(r.Messages, Message{Text: caption, Media: media})
}

// Append copies every message and effect of other into r.
func (r *Reply) Append(other Reply) {
	r.Messages = append(r.Messages, other.Messages...)
	r.Effects = append(r.Effects, other.Effects...)
}

// Empty reports whether the reply has nothing to deliver.
func (r *Reply) Empty() bool { return r == nil || len(r.Messages) == 0 }

// Text joins the text of every message with blank lines.
func (r *Reply) Text() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Text != "" {
			parts = append(parts, m.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// AudioClip points at a transient audio file on disk.
type AudioClip struct {
	Path     string
	MIMEType string
}

// Turn is one inbound user turn as seen by the state machines.
type Turn struct {
	Text string
	// Modality is an optional hint from the transport. Empty means unknown.
	Modality Modality
	Audio    *AudioClip
}

// Submission is what the scoring oracle evaluates.
type Submission struct {
	Modality Modality
	Text     string
	Audio    *AudioClip
}

// Evaluation is the structured oracle verdict.
type Evaluation struct {
	Content  string `json:"answer"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Transcript roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// TranscriptEntry is one line of a conversation transcript.
type TranscriptEntry struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}
