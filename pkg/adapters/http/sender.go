package http

import (
	"context"
	"sync"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

// BufferSender implements ports.Sender by collecting messages per identity.
type BufferSender struct {
	mu   sync.Mutex
	sent map[string][]domain.Message
}

func (b *BufferSender) SendText(ctx context.Context, identity, text string) error {
	b.add(identity, domain.Message{Text: text})
	return nil
}

func (b *BufferSender) SendMedia(ctx context.Context, identity, media, caption string) error {
	b.add(identity, domain.Message{Text: caption, Media: media})
	return nil
}

func (b *BufferSender) add(identity string, m domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sent == nil {
		b.sent = make(map[string][]domain.Message)
	}
	b.sent[identity] = append(b.sent[identity], m)
}

// Messages returns what was sent to identity, never nil.
func (b *BufferSender) Messages(identity string) []domain.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Message{}, b.sent[identity]...)
}
