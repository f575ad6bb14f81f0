package runner

import (
	"context"
	"fmt"
	"os"

	"github.com/claytonlovin/Botinho/internal/audio"
)

// FileMedia serves a local file as inbound media.
type FileMedia string

func (f FileMedia) Download(ctx context.Context) ([]byte, string, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media file: %w", err)
	}
	return data, audio.MIMEType(string(f)), nil
}
