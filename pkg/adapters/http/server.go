// Package http exposes the bot over HTTP: an inbound webhook for chat
// gateways, read-only admin endpoints, a live event stream and metrics.
package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/claytonlovin/Botinho/internal/logging"
	"github.com/claytonlovin/Botinho/internal/presentation/graph"
	"github.com/claytonlovin/Botinho/internal/tree"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router routes one inbound message and delivers the replies through out.
type Router interface {
	Route(ctx context.Context, in ports.Inbound, out ports.Sender) (*domain.Reply, error)
}

// Sessions is the admin view of the session registry.
type Sessions interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, identity string) (*domain.Session, error)
	Remove(ctx context.Context, identity string) error
}

// Deps are the collaborators of the handler. Transcripts, Metrics and
// Streams are optional.
type Deps struct {
	Router      Router
	Sessions    Sessions
	Results     ports.ResultStore
	Transcripts ports.TranscriptStore
	Tree        *tree.Tree
	Metrics     http.Handler
	Streams     *StreamManager
	Version     string
	Logger      *slog.Logger
}

// Server holds the handlers.
type Server struct {
	Deps
}

// NewHandler builds the chi router.
func NewHandler(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	s := &Server{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/webhook", s.Webhook)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Get("/{identity}", s.GetSession)
		r.Delete("/{identity}", s.DeleteSession)
		r.Get("/{identity}/transcript", s.GetTranscript)
		r.Get("/{identity}/graph", s.GetSessionGraph)
	})
	r.Get("/results", s.ListResults)
	r.Get("/results/{identity}", s.GetResult)
	r.Get("/tree", s.GetTree)
	r.Get("/tree/graph", s.GetTreeGraph)

	if d.Streams != nil {
		r.Get("/events", s.SubscribeEvents)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// InboundMessage is the webhook payload.
type InboundMessage struct {
	Identity string        `json:"identity"`
	Text     string        `json:"text"`
	Media    *InboundMedia `json:"media,omitempty"`
}

// InboundMedia carries an attachment inline, base64 encoded.
type InboundMedia struct {
	Kind     string `json:"kind"` // ptt, audio, image
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// WebhookResponse lists the messages the bot sent for the turn.
type WebhookResponse struct {
	Messages []domain.Message `json:"messages"`
}

// Webhook handles POST /webhook. Replies are collected and returned in the
// response body instead of being pushed to a chat transport.
func (s *Server) Webhook(w http.ResponseWriter, r *http.Request) {
	var body InboundMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.Logger.Warn("Webhook: Invalid request body", "err", err)
		writeError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}
	if body.Identity == "" {
		writeError(w, fmt.Errorf("%w: identity is required", domain.ErrInvalidInput))
		return
	}

	in := ports.Inbound{Identity: body.Identity, Text: body.Text}
	if body.Media != nil {
		in.HasMedia = true
		in.MediaKind = body.Media.Kind
		in.Media = inlineMedia{mimeType: body.Media.MIMEType, data: body.Media.Data}
	}

	out := &BufferSender{}
	if _, err := s.Router.Route(r.Context(), in, out); err != nil {
		s.Logger.Error("Webhook: Route failed", "identity", body.Identity, "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, WebhookResponse{Messages: out.Messages(body.Identity)})
}

type inlineMedia struct {
	mimeType string
	data     string
}

func (m inlineMedia) Download(context.Context) ([]byte, string, error) {
	b, err := base64.StdEncoding.DecodeString(m.data)
	if err != nil {
		return nil, "", fmt.Errorf("invalid media payload: %w", err)
	}
	return b, m.mimeType, nil
}

func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Remove(r.Context(), chi.URLParam(r, "identity")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetTranscript(w http.ResponseWriter, r *http.Request) {
	if s.Transcripts == nil {
		http.Error(w, "transcripts are disabled", http.StatusNotFound)
		return
	}
	entries, err := s.Transcripts.Transcript(r.Context(), chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// GetSessionGraph renders the tree with the session path highlighted.
func (s *Server) GetSessionGraph(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, err)
		return
	}
	overlay := &graph.GraphOverlay{VisitedNodes: sess.History, CurrentNode: sess.CurrentNodeID}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.Tree.Nodes(), overlay))
}

func (s *Server) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.Results.ListResults(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.Results.LoadResult(r.Context(), chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// NodeView is the JSON shape of a tree node.
type NodeView struct {
	ID      string            `json:"id"`
	Kind    domain.Kind       `json:"kind"`
	Title   string            `json:"title,omitempty"`
	Media   string            `json:"media,omitempty"`
	Choices map[string]string `json:"choices,omitempty"`
	Next    string            `json:"next,omitempty"`
}

func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"title": s.Tree.Title, "nodes": NodeViews(s.Tree)})
}

func (s *Server) GetTreeGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(s.Tree.Nodes(), nil))
}

// NodeViews flattens t in breadth-first order.
func NodeViews(t *tree.Tree) []NodeView {
	nodes := t.Nodes()
	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		h := n.Base()
		v := NodeView{ID: h.ID, Kind: n.Kind(), Title: h.Title, Media: h.Media}
		var next domain.Node
		switch node := n.(type) {
		case *domain.OptionsNode:
			v.Choices = make(map[string]string, len(node.Choices))
			for _, c := range node.Choices {
				if c.Action == domain.ActionBack {
					v.Choices[c.Key] = string(domain.ActionBack)
				} else {
					v.Choices[c.Key] = c.Target.Base().ID
				}
			}
			next = node.Next
		case *domain.InputNode:
			next = node.Next
		case *domain.HandoffNode:
			// A finished assessment without a resume point goes back to the root.
			next = node.Next
			if next == nil {
				next = t.Root
			}
		}
		if next != nil {
			v.Next = next.Base().ID
		}
		views = append(views, v)
	}
	return views
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "botinho",
		"version": s.Version,
		"tree":    s.Tree.Title,
	})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrResultNotFound),
		errors.Is(err, domain.ErrTreeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnknownChoice):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, domain.ErrAssessmentTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}
