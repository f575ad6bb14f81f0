package domain

import "time"

// VisitPhase tracks the sub-state of the current node visit.
type VisitPhase string

const (
	// VisitPending means the node was entered but its activity playback,
	// if any, has not been delivered yet.
	VisitPending VisitPhase = "pending"
	// VisitPlayed means the activity playback was delivered for this visit.
	VisitPlayed VisitPhase = "played"
)

// Session is the snapshot of one identity's walk through the dialog tree.
// Nodes are referenced by ID so the snapshot can be persisted and the tree
// stays shared and read-only.
type Session struct {
	Identity      string     `json:"identity"`
	CurrentNodeID string     `json:"current_node_id"`
	History       []string   `json:"history"`
	Visit         VisitPhase `json:"visit"`
	Assessment    Assessment `json:"assessment"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewSession creates a session anchored at rootID.
func NewSession(identity, rootID string, now time.Time) *Session {
	return &Session{
		Identity:      identity,
		CurrentNodeID: rootID,
		History:       []string{},
		Visit:         VisitPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Push records the current node on the history stack.
func (s *Session) Push() {
	s.History = append(s.History, s.CurrentNodeID)
}

// Pop removes and returns the most recent history entry.
func (s *Session) Pop() (string, bool) {
	if len(s.History) == 0 {
		return "", false
	}
	last := s.History[len(s.History)-1]
	s.History = s.History[:len(s.History)-1]
	return last, true
}

// Clone returns a deep copy safe for independent mutation.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.History = append([]string(nil), s.History...)
	if next.History == nil {
		next.History = []string{}
	}
	next.Assessment.Answers = append([]Answer(nil), s.Assessment.Answers...)
	return &next
}
