package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claytonlovin/Botinho/internal/assessment"
	"github.com/claytonlovin/Botinho/internal/dialog"
	"github.com/claytonlovin/Botinho/internal/tree"
	"github.com/claytonlovin/Botinho/pkg/adapters/memory"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/ports"
	"github.com/claytonlovin/Botinho/pkg/runner"
	"github.com/claytonlovin/Botinho/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordingRouter echoes every turn back and remembers what it saw.
type recordingRouter struct {
	seen []ports.Inbound
	fail error
}

func (r *recordingRouter) Route(ctx context.Context, in ports.Inbound, out ports.Sender) (*domain.Reply, error) {
	r.seen = append(r.seen, in)
	if r.fail != nil {
		return nil, r.fail
	}
	if in.HasMedia {
		return nil, out.SendMedia(ctx, in.Identity, "echo.ogg", "audio")
	}
	return nil, out.SendText(ctx, in.Identity, "echo: "+in.Text)
}

func TestRunner_TextConversation(t *testing.T) {
	in := strings.NewReader("oi\n\n/audio answer.ogg\n")
	out := &bytes.Buffer{}
	router := &recordingRouter{}

	r := runner.New(router, runner.NewTextHandler(in, out), runner.WithIdentity("ana@c.us"))
	require.NoError(t, r.Run(context.Background()))

	require.Len(t, router.seen, 2, "blank lines are skipped")
	assert.Equal(t, "ana@c.us", router.seen[0].Identity)
	assert.Equal(t, "oi", router.seen[0].Text)

	voice := router.seen[1]
	assert.True(t, voice.IsAudio())
	assert.Equal(t, ports.MediaVoice, voice.MediaKind)
	assert.Equal(t, runner.FileMedia("answer.ogg"), voice.Media)

	assert.Equal(t, "> echo: oi\n> > 🔊 [echo.ogg]\naudio\n> ", out.String())
}

func TestRunner_RouteErrorIsReported(t *testing.T) {
	out := &bytes.Buffer{}
	router := &recordingRouter{fail: errors.New("store offline")}

	r := runner.New(router, runner.NewTextHandler(strings.NewReader("oi\n"), out, runner.WithPrompt("")))
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, "\n[System] erro: store offline\n", out.String())
	assert.Equal(t, runner.DefaultIdentity, r.Identity())
}

func TestRunner_TransportErrorStops(t *testing.T) {
	router := &recordingRouter{fail: domain.ErrTransport}
	r := runner.New(router, runner.NewTextHandler(strings.NewReader("a\nb\n"), &bytes.Buffer{}))

	err := r.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Len(t, router.seen, 1)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := runner.NewTextHandler(strings.NewReader(""), &bytes.Buffer{})
	assert.NoError(t, runner.New(&recordingRouter{}, h).Run(ctx))
}

func TestRunner_JSONConversation(t *testing.T) {
	in := strings.NewReader(`{"text":"oi"}` + "\n" + `"2"` + "\n" + "plain\n" + `{"audio":"a.ogg"}`)
	out := &bytes.Buffer{}
	router := &recordingRouter{}

	r := runner.New(router, runner.NewJSONHandler(in, out), runner.WithIdentity("ana@c.us"))
	require.NoError(t, r.Run(context.Background()))

	require.Len(t, router.seen, 4)
	assert.Equal(t, "oi", router.seen[0].Text)
	assert.Equal(t, "2", router.seen[1].Text)
	assert.Equal(t, "plain", router.seen[2].Text)
	assert.True(t, router.seen[3].IsAudio())

	dec := json.NewDecoder(out)
	var first runner.Output
	require.NoError(t, dec.Decode(&first))
	assert.Equal(t, runner.Output{Type: "message", Identity: "ana@c.us", Text: "echo: oi"}, first)
}

func TestParseLine(t *testing.T) {
	assert.Equal(t, runner.Line{Audio: "x.ogg"}, runner.ParseLine("/audio  x.ogg"))
	assert.Equal(t, runner.Line{Text: "/audio"}, runner.ParseLine("/audio"))
	assert.Equal(t, runner.Line{Text: "hello"}, runner.ParseLine("hello"))
}

func TestFileMedia(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3"), 0o600))

	data, mimeType, err := runner.FileMedia(path).Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3"), data)
	assert.Equal(t, "audio/mp3", mimeType)

	_, _, err = runner.FileMedia(filepath.Join(t.TempDir(), "missing.ogg")).Download(context.Background())
	assert.Error(t, err)
}

type mockScorer struct{ mock.Mock }

func (m *mockScorer) Evaluate(ctx context.Context, q domain.Question, s domain.Submission) (domain.Evaluation, error) {
	args := m.Called(ctx, q, s)
	return args.Get(0).(domain.Evaluation), args.Error(1)
}

func TestRunner_WithSessionManager(t *testing.T) {
	tr, err := tree.Load(tree.DefaultDocument(), nil)
	require.NoError(t, err)
	engine := assessment.New(&mockScorer{}, memory.NewResultStore())
	mgr := session.NewManager(memory.NewStore(), dialog.New(tr, engine))

	out := &bytes.Buffer{}
	h := runner.NewTextHandler(strings.NewReader("oi\n9\nsair\n"), out, runner.WithPrompt(""))
	require.NoError(t, runner.New(mgr, h).Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, dialog.MsgInvalidOption)
	assert.True(t, strings.HasSuffix(text, session.MsgSessionClosed+"\n"))
}
