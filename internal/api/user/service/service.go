package userService

import (
	userRepository "callstack/internal/api/user/repository"
	"callstack/internal/entity"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IUserService interface {
	UpsertUser(ctx context.Context, userID, email, phone string) (entity.User, error)
	GetUser(ctx context.Context, userID string) (entity.User, error)
}

type userService struct {
	log      *logrus.Logger
	userRepo userRepository.Repository
}

func NewUserService(log *logrus.Logger, ur userRepository.Repository) IUserService {
	return &userService{
		log:      log,
		userRepo: ur,
	}
}
