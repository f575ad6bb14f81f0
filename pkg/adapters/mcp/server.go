// Package mcp exposes read and reset operations over sessions and assessment
// results as Model Context Protocol tools, so an operator can inspect the bot
// from an MCP client.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/claytonlovin/Botinho/internal/logging"
	"github.com/claytonlovin/Botinho/internal/presentation/graph"
	"github.com/claytonlovin/Botinho/internal/tree"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TreeURI is the resource holding the Mermaid rendering of the dialog tree.
const TreeURI = "botinho://tree"

// Sessions is the subset of the session manager the tools need.
type Sessions interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, identity string) (*domain.Session, error)
	Remove(ctx context.Context, identity string) error
}

// IdentityArgs selects one conversation.
type IdentityArgs struct {
	Identity string `json:"identity"`
}

// SessionStatus is the structured output of session_status.
type SessionStatus struct {
	Identity        string                  `json:"identity" jsonschema_description:"Chat identity"`
	CurrentNode     string                  `json:"current_node" jsonschema_description:"Node the session is at"`
	History         []string                `json:"history" jsonschema_description:"Back stack of node IDs"`
	Assessment      domain.AssessmentStatus `json:"assessment_status,omitempty"`
	CurrentQuestion int                     `json:"current_question,omitempty"`
	Answered        int                     `json:"answered"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// ResultList is the structured output of list_results.
type ResultList struct {
	Results []*domain.AssessmentResult `json:"results"`
}

// SessionList is the structured output of list_sessions.
type SessionList struct {
	Identities []string `json:"identities"`
}

// Server wraps the session registry and result store as an MCP server.
type Server struct {
	sessions    Sessions
	results     ports.ResultStore
	transcripts ports.TranscriptStore
	tree        *tree.Tree
	logger      *slog.Logger
	mcpServer   *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithTranscripts enables the get_transcript tool.
func WithTranscripts(t ports.TranscriptStore) Option {
	return func(s *Server) { s.transcripts = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions Sessions, results ports.ResultStore, t *tree.Tree, version string, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		results:  results,
		tree:     t,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("botinho-mcp", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	identity := mcp.WithString("identity", mcp.Required(), mcp.Description("Chat identity, e.g. 5511988887777@c.us"))

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List identities with an open session."),
		mcp.WithOutputSchema[SessionList](),
	), mcp.NewStructuredToolHandler(s.handleListSessions))

	s.mcpServer.AddTool(mcp.NewTool("session_status",
		mcp.WithDescription("Show where a conversation is in the dialog tree and how far its assessment went."),
		identity,
		mcp.WithOutputSchema[SessionStatus](),
	), mcp.NewStructuredToolHandler(s.handleSessionStatus))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Remove a session. The next message starts over at the menu. Results are kept."),
		identity,
	), mcp.NewTypedToolHandler(s.handleResetSession))

	s.mcpServer.AddTool(mcp.NewTool("get_result",
		mcp.WithDescription("Get the assessment result of an identity."),
		identity,
		mcp.WithOutputSchema[domain.AssessmentResult](),
	), mcp.NewStructuredToolHandler(s.handleGetResult))

	s.mcpServer.AddTool(mcp.NewTool("list_results",
		mcp.WithDescription("List every completed assessment."),
		mcp.WithOutputSchema[ResultList](),
	), mcp.NewStructuredToolHandler(s.handleListResults))

	if s.transcripts != nil {
		s.mcpServer.AddTool(mcp.NewTool("get_transcript",
			mcp.WithDescription("Get the recent conversation transcript of an identity."),
			identity,
		), mcp.NewTypedToolHandler(s.handleGetTranscript))
	}
}

func (s *Server) handleListSessions(ctx context.Context, _ mcp.CallToolRequest, _ struct{}) (SessionList, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return SessionList{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	return SessionList{Identities: ids}, nil
}

func (s *Server) handleSessionStatus(ctx context.Context, _ mcp.CallToolRequest, args IdentityArgs) (SessionStatus, error) {
	sess, err := s.sessions.Load(ctx, args.Identity)
	if err != nil {
		return SessionStatus{}, err
	}
	return SessionStatus{
		Identity:        sess.Identity,
		CurrentNode:     sess.CurrentNodeID,
		History:         sess.History,
		Assessment:      sess.Assessment.Status,
		CurrentQuestion: sess.Assessment.CurrentQuestion,
		Answered:        len(sess.Assessment.Answers),
		UpdatedAt:       sess.UpdatedAt,
	}, nil
}

func (s *Server) handleResetSession(ctx context.Context, _ mcp.CallToolRequest, args IdentityArgs) (*mcp.CallToolResult, error) {
	if args.Identity == "" {
		return mcp.NewToolResultError("identity is required"), nil
	}
	if err := s.sessions.Remove(ctx, args.Identity); err != nil {
		s.logger.Error("MCP reset_session failed", "identity", args.Identity, "err", err)
		return mcp.NewToolResultErrorFromErr("reset failed", err), nil
	}
	s.logger.Info("MCP reset_session", "identity", args.Identity)
	return mcp.NewToolResultText(fmt.Sprintf("session %s removed", args.Identity)), nil
}

func (s *Server) handleGetResult(ctx context.Context, _ mcp.CallToolRequest, args IdentityArgs) (domain.AssessmentResult, error) {
	r, err := s.results.LoadResult(ctx, args.Identity)
	if errors.Is(err, domain.ErrResultNotFound) {
		return domain.AssessmentResult{}, fmt.Errorf("%s has not completed an assessment", args.Identity)
	}
	if err != nil {
		return domain.AssessmentResult{}, err
	}
	return *r, nil
}

func (s *Server) handleListResults(ctx context.Context, _ mcp.CallToolRequest, _ struct{}) (ResultList, error) {
	results, err := s.results.ListResults(ctx)
	if err != nil {
		return ResultList{}, err
	}
	if results == nil {
		results = []*domain.AssessmentResult{}
	}
	return ResultList{Results: results}, nil
}

func (s *Server) handleGetTranscript(ctx context.Context, _ mcp.CallToolRequest, args IdentityArgs) (*mcp.CallToolResult, error) {
	entries, err := s.transcripts.Transcript(ctx, args.Identity)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("transcript failed", err), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("(empty)"), nil
	}
	var text string
	for _, e := range entries {
		text += fmt.Sprintf("[%s] %s: %s\n", e.At.Format(time.RFC3339), e.Role, e.Content)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TreeURI, "Dialog tree (Mermaid)",
		mcp.WithResourceDescription("Flowchart of the menu tree served to every conversation."),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TreeURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.tree.Nodes(), nil),
			},
		}, nil
	})
}
