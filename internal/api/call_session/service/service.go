package callSessionService

import (
	callSessionRepository "callstack/internal/api/call_session/repository"
	"callstack/internal/entity"
	"callstack/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ICallSessionService interface {
	StartSession(ctx context.Context, userID, phoneNumber string) (entity.CallSession, error)
	GetUserSession(ctx context.Context, userID, sessionID string) (entity.CallSession, error)
	AppendCommand(ctx context.Context, userID, sessionID, transcript, taskID string) (entity.CallSession, error)
	EndSession(ctx context.Context, userID, sessionID string) (entity.CallSession, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]entity.CallSession, error)
}

type callSessionService struct {
	log         *logrus.Logger
	sessionRepo callSessionRepository.Repository
	utils       utils.IUtils
}

func NewCallSessionService(log *logrus.Logger, sr callSessionRepository.Repository, utils utils.IUtils) ICallSessionService {
	return &callSessionService{
		log:         log,
		sessionRepo: sr,
		utils:       utils,
	}
}
