package callSessionRepository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	callsession "callstack/internal/api/call_session"
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type CallSessionDB struct {
	ID               string         `db:"id"`
	UserID           string         `db:"user_id"`
	PhoneNumber      sql.NullString `db:"phone_number"`
	Transcript       string         `db:"transcript"`
	CommandsExecuted string         `db:"commands_executed"`
	StartedAt        time.Time      `db:"started_at"`
	EndedAt          sql.NullTime   `db:"ended_at"`
}

func (r *sessionRepository) CreateSession(ctx context.Context, session entity.CallSession) error {
	requestID := contextPkg.GetRequestID(ctx)

	commands, err := marshalCommands(session.CommandsExecuted)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal commands executed")
		return err
	}

	argsKV := map[string]interface{}{
		"id":                session.ID,
		"user_id":           session.UserID,
		"phone_number":      sql.NullString{String: session.PhoneNumber, Valid: session.PhoneNumber != ""},
		"transcript":        session.Transcript,
		"commands_executed": commands,
		"started_at":        session.StartedAt.UTC(),
	}

	return r.exec(ctx, queryCreateSession, argsKV, "CreateSession", false)
}

func (r *sessionRepository) GetSessionByID(ctx context.Context, id string) (entity.CallSession, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var sessionDB CallSessionDB

	query, args, err := sqlx.Named(queryGetSessionByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID named query preparation err")
		return entity.CallSession{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&sessionDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.CallSession{}, callsession.ErrSessionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID execution err")
		return entity.CallSession{}, err
	}

	return r.makeCallSession(sessionDB), nil
}

func (r *sessionRepository) UpdateSessionLog(ctx context.Context, session entity.CallSession) error {
	commands, err := marshalCommands(session.CommandsExecuted)
	if err != nil {
		return err
	}

	argsKV := map[string]interface{}{
		"id":                session.ID,
		"transcript":        session.Transcript,
		"commands_executed": commands,
	}

	return r.exec(ctx, queryUpdateSessionLog, argsKV, "UpdateSessionLog", true)
}

func (r *sessionRepository) EndSession(ctx context.Context, id string, endedAt time.Time) error {
	argsKV := map[string]interface{}{
		"id":       id,
		"ended_at": endedAt.UTC(),
	}

	return r.exec(ctx, queryEndSession, argsKV, "EndSession", true)
}

func (r *sessionRepository) GetUserSessions(ctx context.Context, userID string, limit int) ([]entity.CallSession, error) {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
	}

	query, args, err := sqlx.Named(queryGetUserSessions, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetUserSessions named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []CallSessionDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetUserSessions execution err")
		return nil, err
	}

	sessions := make([]entity.CallSession, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, r.makeCallSession(row))
	}

	return sessions, nil
}

func (r *sessionRepository) exec(ctx context.Context, namedQuery string, argsKV map[string]interface{}, op string, mustMatch bool) error {
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

	if mustMatch {
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return callsession.ErrSessionNotFound
		}
	}

	return nil
}

func (r *sessionRepository) makeCallSession(s CallSessionDB) entity.CallSession {
	session := entity.CallSession{
		ID:               s.ID,
		UserID:           s.UserID,
		PhoneNumber:      s.PhoneNumber.String,
		Transcript:       s.Transcript,
		CommandsExecuted: []string{},
		StartedAt:        s.StartedAt.UTC(),
	}

	if s.CommandsExecuted != "" {
		if err := json.UnmarshalFromString(s.CommandsExecuted, &session.CommandsExecuted); err != nil {
			r.log.WithFields(logrus.Fields{
				"session_id": s.ID,
				"error":      err.Error(),
			}).Warn("Stored commands_executed is not a JSON list")
			session.CommandsExecuted = []string{}
		}
	}

	if s.EndedAt.Valid {
		endedAt := s.EndedAt.Time.UTC()
		session.EndedAt = &endedAt
	}

	return session
}

func marshalCommands(commands []string) (string, error) {
	if commands == nil {
		commands = []string{}
	}
	return json.MarshalToString(commands)
}
