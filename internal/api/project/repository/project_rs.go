package projectRepository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"callstack/database"
	"callstack/internal/api/project"
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"
	"callstack/pkg/response"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func (r *projectRepository) CreateProject(ctx context.Context, p entity.Project) error {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryCreateProject, projectArgs(p))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateProject")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"user_id":    p.UserID,
				"name":       p.Name,
			}).Warn("Project name already taken")
			return response.Wrap(project.ErrProjectAlreadyExists, err)
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating project")
		return err
	}

	return nil
}

// InsertProjectIfAbsent reports whether a row was inserted. A concurrent
// insert of the same (user, name key) is not an error.
func (r *projectRepository) InsertProjectIfAbsent(ctx context.Context, p entity.Project) (bool, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryInsertProjectIfAbsent, projectArgs(p))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for InsertProjectIfAbsent")
		return false, err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when inserting project")
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (r *projectRepository) GetProjectByID(ctx context.Context, id string) (entity.Project, error) {
	return r.getOne(ctx, queryGetProjectByID, map[string]interface{}{"id": id}, "GetProjectByID")
}

func (r *projectRepository) GetProjectByName(ctx context.Context, userID, name string) (entity.Project, error) {
	argsKV := map[string]interface{}{
		"user_id":  userID,
		"name_key": entity.ProjectNameKey(name),
	}
	return r.getOne(ctx, queryGetProjectByName, argsKV, "GetProjectByName")
}

func (r *projectRepository) getOne(ctx context.Context, namedQuery string, argsKV map[string]interface{}, op string) (entity.Project, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var projectDB ProjectDB

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " named query preparation err")
		return entity.Project{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&projectDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"args":       argsKV,
			}).Debug(op + " no project found")
			return entity.Project{}, project.ErrProjectNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " execution err")
		return entity.Project{}, err
	}

	return makeProject(projectDB), nil
}

func (r *projectRepository) GetUserProjects(ctx context.Context, userID string) ([]entity.Project, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryGetUserProjects, map[string]interface{}{"user_id": userID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetUserProjects named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []ProjectDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetUserProjects execution err")
		return nil, err
	}

	projects := make([]entity.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, makeProject(row))
	}

	return projects, nil
}

func (r *projectRepository) TouchProject(ctx context.Context, id string, now time.Time) error {
	argsKV := map[string]interface{}{
		"id":  id,
		"now": now.UTC(),
	}
	return r.execOne(ctx, queryTouchProject, argsKV, "TouchProject")
}

func (r *projectRepository) UpdateProjectStatus(ctx context.Context, id, userID, status string) error {
	argsKV := map[string]interface{}{
		"id":      id,
		"user_id": userID,
		"status":  status,
	}
	return r.execOne(ctx, queryUpdateProjectStatus, argsKV, "UpdateProjectStatus")
}

// execOne runs an update that must hit exactly one project row.
func (r *projectRepository) execOne(ctx context.Context, namedQuery string, argsKV map[string]interface{}, op string) error {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " execution err")
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return project.ErrProjectNotFound
	}

	return nil
}

func (r *projectRepository) GetUserProjectsWithTaskCounts(ctx context.Context, userID string) ([]entity.ProjectTaskCounts, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryGetUserProjectsWithTaskCounts, map[string]interface{}{"user_id": userID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetUserProjectsWithTaskCounts named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []ProjectCountsDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetUserProjectsWithTaskCounts execution err")
		return nil, err
	}

	counts := make([]entity.ProjectTaskCounts, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, entity.ProjectTaskCounts{
			Project:    makeProject(row.ProjectDB),
			Total:      row.Total,
			Pending:    row.Pending,
			InProgress: row.InProgress,
			Completed:  row.Completed,
		})
	}

	return counts, nil
}

func projectArgs(p entity.Project) map[string]interface{} {
	return map[string]interface{}{
		"id":            p.ID,
		"user_id":       p.UserID,
		"name":          p.Name,
		"name_key":      p.NameKey,
		"file_path":     nullString(p.FilePath),
		"status":        p.Status,
		"created_at":    p.CreatedAt.UTC(),
		"last_accessed": p.LastAccessed.UTC(),
	}
}
