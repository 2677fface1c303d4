package projectRepository

import (
	"database/sql"
	"time"

	"callstack/internal/entity"
)

type ProjectDB struct {
	ID           string         `db:"id"`
	UserID       string         `db:"user_id"`
	Name         string         `db:"name"`
	NameKey      string         `db:"name_key"`
	FilePath     sql.NullString `db:"file_path"`
	Status       string         `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	LastAccessed time.Time      `db:"last_accessed"`
}

type ProjectCountsDB struct {
	ProjectDB
	Total      int `db:"total"`
	Pending    int `db:"pending"`
	InProgress int `db:"in_progress"`
	Completed  int `db:"completed"`
}

type TaskDB struct {
	ID               string          `db:"id"`
	ProjectID        string          `db:"project_id"`
	UserID           string          `db:"user_id"`
	Description      string          `db:"description"`
	VoiceCommand     sql.NullString  `db:"voice_command"`
	RawTranscript    sql.NullString  `db:"raw_transcript"`
	IntentType       sql.NullString  `db:"intent_type"`
	IntentConfidence sql.NullFloat64 `db:"intent_confidence"`
	OutputSummary    sql.NullString  `db:"output_summary"`
	Status           string          `db:"status"`
	CreatedAt        time.Time       `db:"created_at"`
	CompletedAt      sql.NullTime    `db:"completed_at"`
}

func makeProject(p ProjectDB) entity.Project {
	return entity.Project{
		ID:           p.ID,
		UserID:       p.UserID,
		Name:         p.Name,
		NameKey:      p.NameKey,
		FilePath:     p.FilePath.String,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt.UTC(),
		LastAccessed: p.LastAccessed.UTC(),
	}
}

func makeTask(t TaskDB) entity.Task {
	task := entity.Task{
		ID:            t.ID,
		ProjectID:     t.ProjectID,
		UserID:        t.UserID,
		Description:   t.Description,
		VoiceCommand:  t.VoiceCommand.String,
		RawTranscript: t.RawTranscript.String,
		IntentType:    t.IntentType.String,
		OutputSummary: t.OutputSummary.String,
		Status:        entity.TaskStatus(t.Status),
		CreatedAt:     t.CreatedAt.UTC(),
	}

	if t.IntentConfidence.Valid {
		confidence := t.IntentConfidence.Float64
		task.IntentConfidence = &confidence
	}
	if t.CompletedAt.Valid {
		completedAt := t.CompletedAt.Time.UTC()
		task.CompletedAt = &completedAt
	}

	return task
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
