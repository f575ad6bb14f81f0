package domain

import "time"

// Modality is the form in which an answer is given.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityAudio Modality = "audio"
)

// Question is one fixed assessment question. IDs are 1-based.
type Question struct {
	ID          int      `json:"id" yaml:"id"`
	Modality    Modality `json:"modality" yaml:"modality"`
	Prompt      string   `json:"prompt" yaml:"prompt"`
	Instruction string   `json:"instruction" yaml:"instruction"`
}

// AssessmentStatus is the lifecycle state of an assessment.
// The zero value is the uninitialized state; cancelling returns to it.
type AssessmentStatus string

const (
	StatusUninitialized AssessmentStatus = ""
	StatusActive        AssessmentStatus = "active"
	StatusPaused        AssessmentStatus = "paused"
	StatusTimedOut      AssessmentStatus = "timed_out"
	StatusCompleted     AssessmentStatus = "completed"
)

// Answer is a scored response to one question.
type Answer struct {
	QuestionID int       `json:"question_id"`
	Modality   Modality  `json:"modality"`
	Content    string    `json:"content"` // raw text or transcript
	Score      int       `json:"score"`
	Feedback   string    `json:"feedback,omitempty"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Assessment is the per-identity assessment state.
// While active, len(Answers) == CurrentQuestion-1.
type Assessment struct {
	Status          AssessmentStatus `json:"status,omitempty"`
	CurrentQuestion int              `json:"current_question,omitempty"`
	StartedAt       time.Time        `json:"started_at,omitzero"`
	LastActivityAt  time.Time        `json:"last_activity_at,omitzero"`
	Answers         []Answer         `json:"answers,omitempty"`
}

// IsActive reports whether the assessment accepts answers.
func (a *Assessment) IsActive() bool { return a.Status == StatusActive }

// IsCompleted reports whether the assessment reached the end and is frozen.
func (a *Assessment) IsCompleted() bool { return a.Status == StatusCompleted }

// Level is the proficiency level derived from an average score.
type Level string

const (
	LevelAdvanced          Level = "Advanced"
	LevelUpperIntermediate Level = "Upper-Intermediate"
	LevelIntermediate      Level = "Intermediate"
	LevelPreIntermediate   Level = "Pre-Intermediate"
	LevelElementary        Level = "Elementary"
	LevelBeginner          Level = "Beginner"
)

// LevelFor maps a score to its level. Thresholds are inclusive lower bounds.
func LevelFor(score int) Level {
	switch {
	case score >= 90:
		return LevelAdvanced
	case score >= 75:
		return LevelUpperIntermediate
	case score >= 60:
		return LevelIntermediate
	case score >= 45:
		return LevelPreIntermediate
	case score >= 30:
		return LevelElementary
	default:
		return LevelBeginner
	}
}

// AssessmentResult is derived once when an assessment completes.
type AssessmentResult struct {
	Identity     string        `json:"identity"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Duration     time.Duration `json:"duration"`
	Answers      []Answer      `json:"answers"`
	TotalScore   int           `json:"total_score"`
	AverageScore int           `json:"average_score"`
	Level        Level         `json:"level"`
}
