package tui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatToMarkdown(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"Bold", "📝 *Pergunta 1/5*", "📝 **Pergunta 1/5**"},
		{"Strike", "~antigo~ novo", "~~antigo~~ novo"},
		{"Math Untouched", "2*3*4", "2*3*4"},
		{"Hard Breaks", "linha 1\nlinha 2\n\nparágrafo", "linha 1  \nlinha 2\n\nparágrafo"},
		{"Bullets", "• iniciar\n• sair", "- iniciar\n- sair"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChatToMarkdown(tt.in))
		})
	}
}

func TestRenderer(t *testing.T) {
	out, err := NewRenderer()("*Olá*")
	assert.NoError(t, err)
	assert.Contains(t, out, "Olá")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Equal(t, 7, strings.Count(buf.String(), "\n"))
}

func TestWrapWidth_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	assert.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
	assert.Equal(t, defaultWrap, WrapWidth(f))
}
