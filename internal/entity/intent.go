package entity

import "strings"

type IntentType string

const (
	IntentCreateProject IntentType = "create_project"
	IntentCreateTask    IntentType = "create_task"
	IntentStatusCheck   IntentType = "status_check"
	IntentUnknown       IntentType = "unknown"

	// IntentError marks a classifier call that failed or produced
	// unparseable output.
	IntentError IntentType = "error"
)

// ParseIntentType maps any unrecognised label to IntentUnknown.
func ParseIntentType(s string) IntentType {
	switch t := IntentType(strings.ToLower(strings.TrimSpace(s))); t {
	case IntentCreateProject, IntentCreateTask, IntentStatusCheck, IntentUnknown, IntentError:
		return t
	}
	return IntentUnknown
}

type IntentRecord struct {
	Type            IntentType             `json:"intent"`
	ProjectName     *string                `json:"project_name"`
	TaskDescription *string                `json:"task_description"`
	Parameters      map[string]interface{} `json:"parameters"`
	Confidence      *float64               `json:"confidence,omitempty"`
	Message         string                 `json:"message,omitempty"`
}

func (r IntentRecord) Project() string {
	if r.ProjectName == nil {
		return ""
	}
	return *r.ProjectName
}

func (r IntentRecord) Description() string {
	if r.TaskDescription == nil {
		return ""
	}
	return *r.TaskDescription
}
