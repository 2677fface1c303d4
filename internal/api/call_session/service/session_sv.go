package callSessionService

import (
	"errors"
	"strings"
	"time"

	callsession "callstack/internal/api/call_session"
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const defaultHistoryLimit = 50

func (s *callSessionService) StartSession(ctx context.Context, userID, phoneNumber string) (entity.CallSession, error) {
	requestID := contextPkg.GetRequestID(ctx)

	now := time.Now().UTC()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return entity.CallSession{}, err
	}

	session := entity.CallSession{
		ID:               id,
		UserID:           userID,
		PhoneNumber:      strings.TrimSpace(phoneNumber),
		CommandsExecuted: []string{},
		StartedAt:        now,
	}

	repo, err := s.sessionRepo.NewClient(false)
	if err != nil {
		return entity.CallSession{}, err
	}

	if err := repo.Sessions.CreateSession(ctx, session); err != nil {
		return entity.CallSession{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": id,
		"user_id":    userID,
	}).Info("Call session started")

	return session, nil
}

// GetUserSession hides sessions of other users behind not found.
func (s *callSessionService) GetUserSession(ctx context.Context, userID, sessionID string) (entity.CallSession, error) {
	repo, err := s.sessionRepo.NewClient(false)
	if err != nil {
		return entity.CallSession{}, err
	}

	session, err := repo.Sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		return entity.CallSession{}, err
	}
	if session.UserID != userID {
		return entity.CallSession{}, callsession.ErrSessionNotFound
	}

	return session, nil
}

// AppendCommand adds one utterance to the session transcript and records the
// task logged for it.
func (s *callSessionService) AppendCommand(ctx context.Context, userID, sessionID, transcript, taskID string) (entity.CallSession, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.sessionRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.CallSession{}, err
	}
	defer repo.Rollback()

	session, err := repo.Sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		return entity.CallSession{}, err
	}
	if session.UserID != userID {
		return entity.CallSession{}, callsession.ErrSessionNotFound
	}
	if session.Ended() {
		return entity.CallSession{}, callsession.ErrSessionEnded
	}

	transcript = strings.TrimSpace(transcript)
	if transcript != "" {
		if session.Transcript == "" {
			session.Transcript = transcript
		} else {
			session.Transcript += "\n" + transcript
		}
	}
	if taskID != "" {
		session.CommandsExecuted = append(session.CommandsExecuted, taskID)
	}

	if err := repo.Sessions.UpdateSessionLog(ctx, session); err != nil {
		return entity.CallSession{}, err
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit call session update")
		return entity.CallSession{}, err
	}

	return session, nil
}

func (s *callSessionService) EndSession(ctx context.Context, userID, sessionID string) (entity.CallSession, error) {
	session, err := s.GetUserSession(ctx, userID, sessionID)
	if err != nil {
		return entity.CallSession{}, err
	}
	if session.Ended() {
		return entity.CallSession{}, callsession.ErrSessionEnded
	}

	repo, err := s.sessionRepo.NewClient(false)
	if err != nil {
		return entity.CallSession{}, err
	}

	now := time.Now().UTC()
	if err := repo.Sessions.EndSession(ctx, sessionID, now); err != nil {
		if errors.Is(err, callsession.ErrSessionNotFound) {
			return entity.CallSession{}, callsession.ErrSessionEnded
		}
		return entity.CallSession{}, err
	}

	session.EndedAt = &now
	return session, nil
}

func (s *callSessionService) ListSessions(ctx context.Context, userID string, limit int) ([]entity.CallSession, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	repo, err := s.sessionRepo.NewClient(false)
	if err != nil {
		return nil, err
	}

	return repo.Sessions.GetUserSessions(ctx, userID, limit)
}
