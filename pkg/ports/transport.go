package ports

import "context"

// Sender delivers outbound messages through the chat transport.
type Sender interface {
	SendText(ctx context.Context, identity, text string) error
	// SendMedia delivers an attachment (path or URL) with an optional caption.
	SendMedia(ctx context.Context, identity, media, caption string) error
}

// MediaSource downloads the payload of an inbound media message.
type MediaSource interface {
	// Download returns the raw bytes and the MIME type reported by the transport.
	Download(ctx context.Context) ([]byte, string, error)
}

// Media kinds reported by transports.
const (
	MediaVoice = "ptt"
	MediaAudio = "audio"
	MediaImage = "image"
)

// Inbound is one event received from the chat transport.
type Inbound struct {
	Identity  string
	Text      string
	HasMedia  bool
	MediaKind string
	Media     MediaSource
}

// IsAudio reports whether the event carries a voice note or audio file.
func (in Inbound) IsAudio() bool {
	return in.HasMedia && (in.MediaKind == MediaVoice || in.MediaKind == MediaAudio)
}
