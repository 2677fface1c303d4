package projectService_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"callstack/database/dbtest"
	"callstack/internal/api/project"
	projectRepository "callstack/internal/api/project/repository"
	projectService "callstack/internal/api/project/service"
	"callstack/internal/entity"
	"callstack/pkg/utils"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, users ...string) (projectService.IProjectService, *sqlx.DB) {
	t.Helper()
	db := dbtest.New(t)
	now := time.Now().UTC()
	for _, id := range users {
		_, err := db.Exec(`INSERT INTO users (id, created_at, updated_at) VALUES (?, ?, ?)`, id, now, now)
		require.NoError(t, err)
	}

	log := dbtest.Logger()
	return projectService.NewProjectService(log, projectRepository.New(db, log), utils.New(0)), db
}

func TestCreateProject_AndLookupByName(t *testing.T) {
	svc, _ := newService(t, "u1")
	ctx := context.Background()

	id, err := svc.CreateProject(ctx, "u1", "  Launch ", "/tmp/launch")
	require.NoError(t, err)
	assert.Len(t, id, 26)

	p, found, err := svc.GetProjectByName(ctx, "u1", "launch")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "Launch", p.Name)
	assert.Equal(t, "/tmp/launch", p.FilePath)
	assert.Equal(t, entity.ProjectStatusActive, p.Status)

	_, err = svc.CreateProject(ctx, "u1", "LAUNCH", "")
	assert.ErrorIs(t, err, project.ErrProjectAlreadyExists)

	_, found, err = svc.GetProjectByName(ctx, "u1", "Other")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = svc.CreateProject(ctx, "u1", "   ", "")
	assert.ErrorIs(t, err, project.ErrInvalidProjectName)
}

func TestEnsureProject_ConvergesOnOneRow(t *testing.T) {
	svc, db := newService(t, "u1")
	ctx := context.Background()

	const workers = 5
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.EnsureProject(ctx, "u1", entity.GeneralProjectName)
			ids[i], errs[i] = p.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM projects WHERE user_id = ?`, "u1"))
	assert.Equal(t, 1, count)

	again, err := svc.EnsureProject(ctx, "u1", "general")
	require.NoError(t, err)
	assert.Equal(t, ids[0], again.ID)
}

func TestListProjects_OrderedByLastAccessed(t *testing.T) {
	svc, _ := newService(t, "u1")
	ctx := context.Background()

	first, err := svc.CreateProject(ctx, "u1", "First", "")
	require.NoError(t, err)
	second, err := svc.CreateProject(ctx, "u1", "Second", "")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.TouchProject(ctx, first))

	projects, err := svc.ListProjects(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, first, projects[0].ID)
	assert.Equal(t, second, projects[1].ID)
}

func TestGetUserProjectsWithTaskCounts(t *testing.T) {
	svc, _ := newService(t, "u1", "u2")
	ctx := context.Background()

	launch, err := svc.CreateProject(ctx, "u1", "Launch", "")
	require.NoError(t, err)
	_, err = svc.CreateProject(ctx, "u1", "Empty", "")
	require.NoError(t, err)
	_, err = svc.CreateProject(ctx, "u2", "Theirs", "")
	require.NoError(t, err)

	var taskIDs []string
	for _, d := range []string{"a", "b", "c", "d"} {
		id, err := svc.CreateTask(ctx, entity.Task{ProjectID: launch, UserID: "u1", Description: d})
		require.NoError(t, err)
		taskIDs = append(taskIDs, id)
	}
	_, err = svc.UpdateTaskStatus(ctx, taskIDs[0], entity.TaskStatusInProgress)
	require.NoError(t, err)
	_, err = svc.UpdateTaskStatus(ctx, taskIDs[1], entity.TaskStatusCompleted)
	require.NoError(t, err)

	counts, err := svc.GetUserProjectsWithTaskCounts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, counts, 2)

	byName := map[string]entity.ProjectTaskCounts{}
	for _, c := range counts {
		assert.Equal(t, c.Total, c.Pending+c.InProgress+c.Completed)
		byName[c.Project.Name] = c
	}

	assert.Equal(t, entity.ProjectTaskCounts{Project: byName["Launch"].Project, Total: 4, Pending: 2, InProgress: 1, Completed: 1}, byName["Launch"])
	assert.Equal(t, 0, byName["Empty"].Total)
}

func TestUpdateTaskStatus_CompletedAtFollowsStatus(t *testing.T) {
	svc, _ := newService(t, "u1")
	ctx := context.Background()

	projectID, err := svc.CreateProject(ctx, "u1", "Launch", "")
	require.NoError(t, err)
	taskID, err := svc.CreateTask(ctx, entity.Task{ProjectID: projectID, UserID: "u1", Description: "ship it"})
	require.NoError(t, err)

	task, err := svc.UpdateTaskStatus(ctx, taskID, entity.TaskStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, entity.TaskStatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)

	task, err = svc.UpdateTaskStatus(ctx, taskID, entity.TaskStatusPending)
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)

	_, err = svc.UpdateTaskStatus(ctx, taskID, entity.TaskStatus("done"))
	assert.ErrorIs(t, err, project.ErrInvalidTaskStatus)

	_, err = svc.UpdateTaskStatus(ctx, "missing", entity.TaskStatusPending)
	assert.ErrorIs(t, err, project.ErrTaskNotFound)
}

func TestCreateTask_OwnershipAndListing(t *testing.T) {
	svc, _ := newService(t, "u1", "u2")
	ctx := context.Background()

	projectID, err := svc.CreateProject(ctx, "u1", "Launch", "")
	require.NoError(t, err)

	confidence := 0.9
	taskID, err := svc.CreateTask(ctx, entity.Task{
		ProjectID:        projectID,
		UserID:           "u1",
		Description:      "write the press release",
		VoiceCommand:     "add a task",
		RawTranscript:    "add a task",
		IntentType:       string(entity.IntentCreateTask),
		IntentConfidence: &confidence,
	})
	require.NoError(t, err)

	_, err = svc.CreateTask(ctx, entity.Task{ProjectID: projectID, UserID: "u2", Description: "sneaky"})
	assert.ErrorIs(t, err, project.ErrProjectNotFound)

	tasks, err := svc.ListProjectTasks(ctx, "u1", projectID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, taskID, tasks[0].ID)
	assert.Equal(t, entity.TaskStatusPending, tasks[0].Status)
	require.NotNil(t, tasks[0].IntentConfidence)
	assert.InDelta(t, 0.9, *tasks[0].IntentConfidence, 1e-9)

	_, err = svc.ListProjectTasks(ctx, "u2", projectID)
	assert.ErrorIs(t, err, project.ErrProjectNotFound)

	_, err = svc.UpdateUserTaskStatus(ctx, "u2", taskID, entity.TaskStatusCompleted)
	assert.ErrorIs(t, err, project.ErrTaskNotFound)
}
