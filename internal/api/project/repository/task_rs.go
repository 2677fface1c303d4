package projectRepository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"callstack/internal/api/project"
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// CreateTask inserts task after checking that its project exists and is owned
// by task.UserID. Callers that need both statements atomic use a tx client.
func (r *taskRepository) CreateTask(ctx context.Context, task entity.Task) error {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryGetProjectOwner, map[string]interface{}{"id": task.ProjectID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateTask owner query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	var ownerID string
	if err := r.q.QueryRowxContext(ctx, query, args...).Scan(&ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return project.ErrProjectNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateTask owner lookup err")
		return err
	}

	if ownerID != task.UserID {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"project_id": task.ProjectID,
			"user_id":    task.UserID,
		}).Warn("Task user does not own project")
		return project.ErrProjectNotFound
	}

	argsKV := map[string]interface{}{
		"id":                task.ID,
		"project_id":        task.ProjectID,
		"user_id":           task.UserID,
		"description":       task.Description,
		"voice_command":     nullString(task.VoiceCommand),
		"raw_transcript":    nullString(task.RawTranscript),
		"intent_type":       nullString(task.IntentType),
		"intent_confidence": nullFloat(task.IntentConfidence),
		"output_summary":    nullString(task.OutputSummary),
		"status":            string(task.Status),
		"created_at":        task.CreatedAt.UTC(),
	}

	query, args, err = sqlx.Named(queryCreateTask, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateTask")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating task")
		return err
	}

	return nil
}

func (r *taskRepository) GetTaskByID(ctx context.Context, id string) (entity.Task, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var taskDB TaskDB

	query, args, err := sqlx.Named(queryGetTaskByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTaskByID named query preparation err")
		return entity.Task{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&taskDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Task{}, project.ErrTaskNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTaskByID execution err")
		return entity.Task{}, err
	}

	return makeTask(taskDB), nil
}

func (r *taskRepository) GetProjectTasks(ctx context.Context, projectID string) ([]entity.Task, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryGetProjectTasks, map[string]interface{}{"project_id": projectID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetProjectTasks named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []TaskDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetProjectTasks execution err")
		return nil, err
	}

	tasks := make([]entity.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, makeTask(row))
	}

	return tasks, nil
}

func (r *taskRepository) UpdateTaskStatus(ctx context.Context, id string, status entity.TaskStatus, completedAt *time.Time) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":           id,
		"status":       string(status),
		"completed_at": nullTime(completedAt),
	}

	query, args, err := sqlx.Named(queryUpdateTaskStatus, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateTaskStatus named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateTaskStatus execution err")
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return project.ErrTaskNotFound
	}

	return nil
}
