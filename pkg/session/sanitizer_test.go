package session

import (
	"strings"
	"testing"

	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	limit := 4096

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeInput(strings.Repeat("a", tt.inputSize), 0)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Olá, tudo bem?", "Olá, tudo bem?"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"}, // ESC removed
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("bad\xff", 0)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestGroupReply(t *testing.T) {
	assert.True(t, IsGroup("123@g.us"))
	assert.False(t, IsGroup("123@c.us"))

	assert.Contains(t, GroupReply("@botinho Oi"), "👋 Olá!")
	assert.Contains(t, GroupReply("hello!"), "Hello! Send me a private message")
	assert.Equal(t, "😊 You're welcome!", GroupReply("thanks"))
	assert.Equal(t, groupDefaultReply, GroupReply("alguém sabe o horário da aula de hoje?"))
}
