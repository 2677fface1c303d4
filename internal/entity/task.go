package entity

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID               string     `json:"id"`
	ProjectID        string     `json:"project_id"`
	UserID           string     `json:"user_id"`
	Description      string     `json:"description"`
	VoiceCommand     string     `json:"voice_command,omitempty"`
	RawTranscript    string     `json:"raw_transcript,omitempty"`
	IntentType       string     `json:"intent_type,omitempty"`
	IntentConfidence *float64   `json:"intent_confidence"`
	OutputSummary    string     `json:"output_summary,omitempty"`
	Status           TaskStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at"`
}
