package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

// allIdentities subscribes to every identity.
const allIdentities = "*"

// Event is one entry of the live event stream.
type Event struct {
	Type      string    `json:"type"`
	Identity  string    `json:"identity,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// StreamManager fans engine events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // identity -> set of channels
	now         func() time.Time
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		now:         time.Now,
	}
}

// Subscribe registers a channel for identity ("*" for all) and returns it
// with its cancel function.
func (sm *StreamManager) Subscribe(identity string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[identity]; !ok {
		sm.subscribers[identity] = make(map[chan<- string]struct{})
	}
	sm.subscribers[identity][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[identity]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, identity)
			}
		}
	}
}

// Broadcast sends msg to the subscribers of identity and to global subscribers.
func (sm *StreamManager) Broadcast(identity string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{identity, allIdentities} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				// Slow client.
				slog.Warn("SSE: Client buffer full, dropping message", "identity", identity)
			}
		}
	}
}

func (sm *StreamManager) publish(typ, identity string, data any) {
	b, err := json.Marshal(Event{Type: typ, Identity: identity, Timestamp: sm.now(), Data: data})
	if err != nil {
		return
	}
	sm.Broadcast(identity, string(b))
}

// Hooks returns engine callbacks publishing into the stream.
func (sm *StreamManager) Hooks() domain.Hooks {
	return domain.Hooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			sm.publish("node_enter", e.Identity, e)
		},
		OnAssessment: func(_ context.Context, e *domain.AssessmentEvent) {
			sm.publish("assessment", e.Identity, e)
		},
		OnOracleCall: func(_ context.Context, e *domain.OracleEvent) {
			sm.publish("oracle", e.Identity, e)
		},
		OnQuotaChange: func(blocked bool) {
			sm.publish("quota", "", map[string]bool{"blocked": blocked})
		},
	}
}

// SubscribeEvents handles GET /events?identity=... (SSE). Without identity
// every event is streamed.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	identity := r.URL.Query().Get("identity")
	if identity == "" {
		identity = allIdentities
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(identity)
	defer cancel()
	s.Logger.Info("SSE: client subscribed", "identity", identity)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: client disconnected", "identity", identity)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
