package entity

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

const (
	ProjectStatusActive = "active"

	// GeneralProjectName is the catch-all project for audit records that
	// cannot be attributed to a known project.
	GeneralProjectName = "General"
)

type Project struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	NameKey      string    `json:"-"`
	FilePath     string    `json:"file_path,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// ProjectContext is the slice of a project handed to the intent classifier.
type ProjectContext struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type ProjectTaskCounts struct {
	Project    Project `json:"project"`
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	InProgress int     `json:"in_progress"`
	Completed  int     `json:"completed"`
}

var folder = cases.Fold()

// ProjectNameKey folds case and collapses whitespace so that "My  App" and
// "my app" map to the same key.
func ProjectNameKey(name string) string {
	return folder.String(strings.Join(strings.Fields(name), " "))
}

// MatchProjectContext finds a project by name among already loaded context.
func MatchProjectContext(projects []ProjectContext, name string) (ProjectContext, bool) {
	key := ProjectNameKey(name)
	if key == "" {
		return ProjectContext{}, false
	}

	for _, p := range projects {
		if ProjectNameKey(p.Name) == key {
			return p, true
		}
	}

	return ProjectContext{}, false
}
