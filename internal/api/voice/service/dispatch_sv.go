package voiceService

import (
	"callstack/internal/api/project"
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	msgMissingProjectName = "I couldn't determine the project name."
	msgMissingTaskFields  = "I couldn't determine the project or task."
	msgUnmapped           = "I wasn't able to map that command to an action."
	msgNoProjects         = "You don't have any projects yet. Say \"create a project called ...\" to get started."
)

type dispatchOutcome struct {
	Result    string
	ProjectID *string
	TaskID    *string
}

// dispatch executes the intent. Business misses come back as a Result string;
// only store failures are returned as errors.
func (v *voiceService) dispatch(ctx context.Context, userID, transcript string, record entity.IntentRecord) (dispatchOutcome, error) {
	switch record.Type {
	case entity.IntentCreateProject:
		return v.dispatchCreateProject(ctx, userID, record.Project())
	case entity.IntentCreateTask:
		return v.dispatchCreateTask(ctx, userID, transcript, record.Project(), record.Description())
	case entity.IntentStatusCheck:
		return v.dispatchStatusCheck(ctx, userID)
	default:
		return dispatchOutcome{Result: msgUnmapped}, nil
	}
}

func (v *voiceService) dispatchCreateProject(ctx context.Context, userID, name string) (dispatchOutcome, error) {
	if name == "" {
		return dispatchOutcome{Result: msgMissingProjectName}, nil
	}

	existing, found, err := v.projectService.GetProjectByName(ctx, userID, name)
	if err != nil {
		return dispatchOutcome{}, err
	}
	if found {
		return dispatchOutcome{Result: fmt.Sprintf("Project '%s' already exists.", existing.Name)}, nil
	}

	projectID, err := v.projectService.CreateProject(ctx, userID, name, "")
	if errors.Is(err, project.ErrProjectAlreadyExists) {
		return dispatchOutcome{Result: fmt.Sprintf("Project '%s' already exists.", name)}, nil
	}
	if err != nil {
		return dispatchOutcome{}, err
	}

	v.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"project_id": projectID,
	}).Info("Project created by voice command")

	return dispatchOutcome{
		Result:    fmt.Sprintf("Successfully created project '%s'.", name),
		ProjectID: &projectID,
	}, nil
}

func (v *voiceService) dispatchCreateTask(ctx context.Context, userID, transcript, name, description string) (dispatchOutcome, error) {
	if name == "" || description == "" {
		return dispatchOutcome{Result: msgMissingTaskFields}, nil
	}

	p, found, err := v.projectService.GetProjectByName(ctx, userID, name)
	if err != nil {
		return dispatchOutcome{}, err
	}
	if !found {
		return dispatchOutcome{Result: fmt.Sprintf("Project '%s' not found.", name)}, nil
	}

	if err := v.projectService.TouchProject(ctx, p.ID); err != nil {
		return dispatchOutcome{}, err
	}

	taskID, err := v.projectService.CreateTask(ctx, entity.Task{
		ProjectID:    p.ID,
		UserID:       userID,
		Description:  description,
		VoiceCommand: transcript,
		Status:       entity.TaskStatusPending,
	})
	if err != nil {
		return dispatchOutcome{}, err
	}

	return dispatchOutcome{
		Result:    fmt.Sprintf("Added task '%s' to project '%s'.", description, p.Name),
		ProjectID: &p.ID,
		TaskID:    &taskID,
	}, nil
}

func (v *voiceService) dispatchStatusCheck(ctx context.Context, userID string) (dispatchOutcome, error) {
	counts, err := v.projectService.GetUserProjectsWithTaskCounts(ctx, userID)
	if err != nil {
		return dispatchOutcome{}, err
	}
	if len(counts) == 0 {
		return dispatchOutcome{Result: msgNoProjects}, nil
	}

	return dispatchOutcome{Result: renderStatus(counts)}, nil
}

func renderStatus(counts []entity.ProjectTaskCounts) string {
	lines := make([]string, 0, len(counts))
	for _, c := range counts {
		lines = append(lines, fmt.Sprintf("%s — %d task(s) (%d pending, %d in progress, %d done)",
			c.Project.Name, c.Total, c.Pending, c.InProgress, c.Completed))
	}
	return strings.Join(lines, "\n")
}
