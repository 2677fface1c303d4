package voiceService

import (
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// loadContext returns the user's projects, most recently touched first.
func (v *voiceService) loadContext(ctx context.Context, userID string) ([]entity.ProjectContext, error) {
	projects, err := v.projectService.ListProjects(ctx, userID)
	if err != nil {
		v.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("Failed to load project context")
		return nil, err
	}

	out := make([]entity.ProjectContext, 0, len(projects))
	for _, p := range projects {
		out = append(out, entity.ProjectContext{
			ID:     p.ID,
			Name:   p.Name,
			Status: p.Status,
		})
	}

	return out, nil
}

func projectNames(projects []entity.ProjectContext) []string {
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}
	return names
}
