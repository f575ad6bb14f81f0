package domain

import (
	"context"
	"time"
)

// AssessmentEventType categorises assessment lifecycle events.
type AssessmentEventType string

const (
	EventAssessmentStarted   AssessmentEventType = "started"
	EventAssessmentAnswered  AssessmentEventType = "answered"
	EventAssessmentCompleted AssessmentEventType = "completed"
	EventAssessmentTimedOut  AssessmentEventType = "timed_out"
	EventAssessmentPaused    AssessmentEventType = "paused"
	EventAssessmentResumed   AssessmentEventType = "resumed"
	EventAssessmentCancelled AssessmentEventType = "cancelled"
)

// NodeEvent is emitted when a session enters a node.
type NodeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Identity  string    `json:"identity"`
	NodeID    string    `json:"node_id"`
	Kind      Kind      `json:"kind"`
}

// AssessmentEvent is emitted on assessment state changes.
type AssessmentEvent struct {
	Timestamp  time.Time           `json:"timestamp"`
	Identity   string              `json:"identity"`
	Type       AssessmentEventType `json:"type"`
	QuestionID int                 `json:"question_id,omitempty"`
	Score      int                 `json:"score,omitempty"`
	Level      Level               `json:"level,omitempty"`
}

// OracleOutcome classifies a scoring oracle call.
type OracleOutcome string

const (
	OracleOK          OracleOutcome = "ok"
	OracleRateLimited OracleOutcome = "rate_limited"
	OracleMalformed   OracleOutcome = "malformed"
	OracleFailed      OracleOutcome = "error"
	OracleRefused     OracleOutcome = "refused"
)

// OracleEvent is emitted after every scoring attempt.
type OracleEvent struct {
	Identity   string        `json:"identity"`
	QuestionID int           `json:"question_id"`
	Modality   Modality      `json:"modality"`
	Duration   time.Duration `json:"duration"`
	Outcome    OracleOutcome `json:"outcome"`
}

// Hooks defines callbacks for engine observability. Nil callbacks are skipped.
type Hooks struct {
	OnNodeEnter   func(context.Context, *NodeEvent)
	OnAssessment  func(context.Context, *AssessmentEvent)
	OnOracleCall  func(context.Context, *OracleEvent)
	OnQuotaChange func(blocked bool)
}
