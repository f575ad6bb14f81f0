package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claytonlovin/Botinho/internal/assessment"
	"github.com/claytonlovin/Botinho/internal/dialog"
	"github.com/claytonlovin/Botinho/internal/tree"
	botinhohttp "github.com/claytonlovin/Botinho/pkg/adapters/http"
	"github.com/claytonlovin/Botinho/pkg/adapters/memory"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const user = "5511988887777@c.us"

const testTree = `
id: root
message: Menu
children:
  - choice: 1
    id: ai
    action: handoff
    message: Avaliação
  - choice: 2
    id: info
    message: Informações
`

type mockScorer struct{ mock.Mock }

func (m *mockScorer) Evaluate(ctx context.Context, q domain.Question, s domain.Submission) (domain.Evaluation, error) {
	args := m.Called(ctx, q, s)
	return args.Get(0).(domain.Evaluation), args.Error(1)
}

type fixture struct {
	server  *httptest.Server
	results *memory.ResultStore
	streams *botinhohttp.StreamManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tr, err := tree.Load([]byte(testTree), nil)
	require.NoError(t, err)

	f := &fixture{
		results: memory.NewResultStore(),
		streams: botinhohttp.NewStreamManager(),
	}
	transcripts := memory.NewTranscriptStore(0)
	engine := assessment.New(&mockScorer{}, f.results)
	machine := dialog.New(tr, engine, dialog.WithHooks(f.streams.Hooks()))
	mgr := session.NewManager(memory.NewStore(), machine,
		session.WithTranscripts(transcripts), session.WithTempDir(t.TempDir()))

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "botinho_up 1\n")
	})

	f.server = httptest.NewServer(botinhohttp.NewHandler(botinhohttp.Deps{
		Router:      mgr,
		Sessions:    mgr,
		Results:     f.results,
		Transcripts: transcripts,
		Tree:        tr,
		Metrics:     metrics,
		Streams:     f.streams,
		Version:     "test",
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) post(t *testing.T, body any) (*http.Response, botinhohttp.WebhookResponse) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.server.URL+"/webhook", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out botinhohttp.WebhookResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestWebhook_Conversation(t *testing.T) {
	f := newFixture(t)

	resp, out := f.post(t, botinhohttp.InboundMessage{Identity: user, Text: "oi"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, "Menu", out.Messages[0].Text)

	_, out = f.post(t, botinhohttp.InboundMessage{Identity: user, Text: "2"})
	require.Len(t, out.Messages, 1)
	assert.Equal(t, "Informações", out.Messages[0].Text)

	_, out = f.post(t, botinhohttp.InboundMessage{Identity: user, Text: "sair"})
	require.Len(t, out.Messages, 1)
	assert.Equal(t, session.MsgSessionClosed, out.Messages[0].Text)
}

func TestWebhook_BadRequests(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.server.URL+"/webhook", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.post(t, botinhohttp.InboundMessage{Text: "oi"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhook_MediaOutsideHandoffIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.post(t, botinhohttp.InboundMessage{Identity: user, Text: "oi"})

	resp, out := f.post(t, botinhohttp.InboundMessage{
		Identity: user,
		Media: &botinhohttp.InboundMedia{
			Kind:     "ptt",
			MIMEType: "audio/ogg",
			Data:     base64.StdEncoding.EncodeToString([]byte("OggS")),
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, dialog.MsgInvalidOption, out.Messages[0].Text)
}

func TestSessions_Admin(t *testing.T) {
	f := newFixture(t)
	f.post(t, botinhohttp.InboundMessage{Identity: user, Text: "oi"})
	f.post(t, botinhohttp.InboundMessage{Identity: user, Text: "2"})

	resp, body := f.get(t, "/sessions")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, fmt.Sprintf(`{"sessions":[%q]}`, user), string(body))

	resp, body = f.get(t, "/sessions/"+user)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var s domain.Session
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, "info", s.CurrentNodeID)
	assert.Equal(t, []string{"root"}, s.History)

	resp, body = f.get(t, "/sessions/"+user+"/transcript")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"content":"2"`)

	resp, body = f.get(t, "/sessions/"+user+"/graph")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "class info current")

	req, err := http.NewRequest(http.MethodDelete, f.server.URL+"/sessions/"+user, nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	resp, _ = f.get(t, "/sessions/"+user)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResults(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.results.SaveResult(context.Background(), &domain.AssessmentResult{
		Identity: user, TotalScore: 400, AverageScore: 80, Level: domain.LevelFor(80),
	}))

	resp, body := f.get(t, "/results/"+user)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var r domain.AssessmentResult
	require.NoError(t, json.Unmarshal(body, &r))
	assert.Equal(t, 80, r.AverageScore)

	resp, body = f.get(t, "/results")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), user)

	resp, _ = f.get(t, "/results/ghost@c.us")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTreeAndInfo(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/tree")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var tr struct {
		Nodes []botinhohttp.NodeView `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(body, &tr))
	require.Len(t, tr.Nodes, 3)
	assert.Equal(t, "root", tr.Nodes[0].ID)
	assert.Equal(t, map[string]string{"1": "ai", "2": "info"}, tr.Nodes[0].Choices)
	assert.Equal(t, "root", tr.Nodes[1].Next, "handoff resumes at the root")

	resp, body = f.get(t, "/tree/graph")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "graph TD"))

	_, body = f.get(t, "/info")
	assert.Contains(t, string(body), `"version":"test"`)

	resp, body = f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")

	_, body = f.get(t, "/metrics")
	assert.Equal(t, "botinho_up 1\n", string(body))
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/sessions", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestEvents_StreamNodeEnter(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/events?identity="+user, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	f.post(t, botinhohttp.InboundMessage{Identity: user, Text: "oi"})
	f.post(t, botinhohttp.InboundMessage{Identity: user, Text: "2"})

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var ev botinhohttp.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		assert.Equal(t, "node_enter", ev.Type)
		assert.Equal(t, user, ev.Identity)
		return
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", domain.ErrResultNotFound), http.StatusNotFound},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrQuotaExceeded, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: socket closed", domain.ErrTransport), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, botinhohttp.StatusFor(tt.err), tt.err.Error())
	}
}

func TestStreamManager_Broadcast(t *testing.T) {
	sm := botinhohttp.NewStreamManager()
	mine, cancelMine := sm.Subscribe(user)
	all, cancelAll := sm.Subscribe("*")
	other, cancelOther := sm.Subscribe("other@c.us")
	defer cancelMine()
	defer cancelAll()
	defer cancelOther()

	sm.Broadcast(user, "hello")

	assert.Equal(t, "hello", <-mine)
	assert.Equal(t, "hello", <-all)
	select {
	case msg := <-other:
		t.Fatalf("unexpected message %q", msg)
	default:
	}
}

func TestNodeViews_HandoffResumePoint(t *testing.T) {
	tr, err := tree.Load([]byte(`
id: root
message: Menu
children:
  - choice: 1
    type: ai
    id: ai
    next:
      id: depois
      message: Fim
  - choice: 2
    type: ai
    id: ai2
`), nil)
	require.NoError(t, err)

	next := map[string]string{}
	for _, v := range botinhohttp.NodeViews(tr) {
		next[v.ID] = v.Next
	}
	assert.Equal(t, "depois", next["ai"])
	assert.Equal(t, "root", next["ai2"])
	assert.Equal(t, "", next["depois"])
}
