package voice

import "callstack/internal/entity"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// AudioInput is one recorded clip as received from the client.
type AudioInput struct {
	Filename      string
	ContentType   string
	Data          []byte
	CallSessionID string
}

type TextCommandRequest struct {
	Transcript    string `json:"transcript" validate:"required,max=4000"`
	CallSessionID string `json:"call_session_id" validate:"omitempty,max=64"`
}

type CreatedRefs struct {
	ProjectID *string `json:"project_id"`
	TaskID    *string `json:"task_id"`
}

type TranscribeResponse struct {
	Status               string              `json:"status"`
	Transcript           string              `json:"transcript"`
	Language             string              `json:"language,omitempty"`
	Intent               entity.IntentRecord `json:"intent"`
	ActionResult         *string             `json:"action_result"`
	ContextProjectsCount int                 `json:"context_projects_count"`
	Created              CreatedRefs         `json:"created"`
	LoggedTaskID         string              `json:"logged_task_id,omitempty"`
	AudioLocation        string              `json:"audio_location,omitempty"`
	Message              string              `json:"message,omitempty"`
}

// ErrorResponse is the failure body of the transcribe endpoints. It keeps the
// status field so clients can branch on it like on a success body.
type ErrorResponse struct {
	Status     string `json:"status"`
	Transcript string `json:"transcript,omitempty"`
	Message    string `json:"message"`
}
