// Package audio handles transient audio payloads on disk.
package audio

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMIMEType is assumed for unknown extensions; chat voice notes are Ogg/Opus.
const DefaultMIMEType = "audio/ogg"

var byExtension = map[string]string{
	".mp3":  "audio/mp3",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

// MIMEType returns the audio MIME type for the extension of path.
func MIMEType(path string) string {
	if mt, ok := byExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return DefaultMIMEType
}

// Extension maps a MIME type (parameters allowed) back to a file extension.
func Extension(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ".ogg"
	}
	if mt == "audio/mpeg" {
		return ".mp3"
	}
	for ext, known := range byExtension {
		if known == mt {
			return ext
		}
	}
	return ".ogg"
}

// WithTempFile writes data to a new temp_audio_* file in dir (os.TempDir when
// empty), calls fn with its path and removes the file on every exit path.
func WithTempFile(dir string, data []byte, ext string, fn func(path string) error) (err error) {
	if ext == "" {
		ext = ".ogg"
	}
	f, err := os.CreateTemp(dir, "temp_audio_*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp audio file: %w", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = fmt.Errorf("failed to remove temp audio file: %w", rmErr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp audio file: %w", err)
	}
	return fn(path)
}
