package voiceService

import (
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type auditEvent struct {
	UserID        string
	ProjectName   string
	KnownProjects []entity.ProjectContext
	Description   string
	RawTranscript string
	IntentType    entity.IntentType
	Confidence    *float64
	OutputSummary string
	VoiceCommand  string
}

// recordEvent writes the audit task for one pipeline run. The project is the
// named one when it is among KnownProjects, otherwise the user's General
// project.
func (v *voiceService) recordEvent(ctx context.Context, ev auditEvent) (string, error) {
	projectID := ""
	if p, ok := entity.MatchProjectContext(ev.KnownProjects, ev.ProjectName); ok {
		projectID = p.ID
	} else {
		general, err := v.projectService.EnsureProject(ctx, ev.UserID, entity.GeneralProjectName)
		if err != nil {
			return "", err
		}
		projectID = general.ID
	}

	if err := v.projectService.TouchProject(ctx, projectID); err != nil {
		return "", err
	}

	taskID, err := v.projectService.CreateTask(ctx, entity.Task{
		ProjectID:        projectID,
		UserID:           ev.UserID,
		Description:      ev.Description,
		VoiceCommand:     ev.VoiceCommand,
		RawTranscript:    ev.RawTranscript,
		IntentType:       string(ev.IntentType),
		IntentConfidence: ev.Confidence,
		OutputSummary:    ev.OutputSummary,
		Status:           entity.TaskStatusPending,
	})
	if err != nil {
		return "", err
	}

	v.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"project_id": projectID,
		"task_id":    taskID,
		"intent":     ev.IntentType,
	}).Debug("Voice command recorded")

	return taskID, nil
}
