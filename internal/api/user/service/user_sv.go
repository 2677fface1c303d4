package userService

import (
	"errors"
	"strings"
	"time"

	"callstack/internal/api/user"
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// UpsertUser reconciles the caller with the users table. A row matching the
// id gets its missing contact fields filled; otherwise a row matching the
// email is moved to the new id; otherwise a row is inserted. A unique
// violation from a concurrent upsert is retried once.
func (s *userService) UpsertUser(ctx context.Context, userID, email, phone string) (entity.User, error) {
	requestID := contextPkg.GetRequestID(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entity.User{}, user.ErrInvalidUserID
	}

	candidate := entity.User{
		ID:    userID,
		Email: strings.TrimSpace(email),
		Phone: strings.TrimSpace(phone),
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		u, err := s.upsertOnce(ctx, candidate)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, user.ErrUserConflict) {
			return entity.User{}, err
		}

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"attempt":    attempt,
		}).Warn("User upsert raced with another writer")
		lastErr = err
	}

	return entity.User{}, lastErr
}

func (s *userService) upsertOnce(ctx context.Context, candidate entity.User) (entity.User, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.userRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.User{}, err
	}
	defer repo.Rollback()

	now := time.Now().UTC()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	existing, err := repo.Users.GetUserByID(ctx, candidate.ID)
	switch {
	case err == nil:
		if existing.Email == "" && candidate.Email != "" {
			candidate.Email, err = s.claimableEmail(ctx, repo.Users, candidate)
			if err != nil {
				return entity.User{}, err
			}
		}
		err = repo.Users.FillMissingContact(ctx, candidate)
	case errors.Is(err, user.ErrUserNotFound):
		err = s.insertOrReassign(ctx, repo.Users, candidate)
	}
	if err != nil {
		return entity.User{}, err
	}

	stored, err := repo.Users.GetUserByID(ctx, candidate.ID)
	if err != nil {
		return entity.User{}, err
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit user upsert")
		return entity.User{}, err
	}

	return stored, nil
}

type userStore interface {
	GetUserByEmail(ctx context.Context, email string) (entity.User, error)
	CreateUser(ctx context.Context, user entity.User) error
	ReassignUserID(ctx context.Context, user entity.User) error
}

// claimableEmail returns the candidate email, or "" when another row already
// owns it. The stored row then keeps its NULL email.
func (s *userService) claimableEmail(ctx context.Context, users userStore, candidate entity.User) (string, error) {
	owner, err := users.GetUserByEmail(ctx, candidate.Email)
	if errors.Is(err, user.ErrUserNotFound) {
		return candidate.Email, nil
	}
	if err != nil {
		return "", err
	}
	if owner.ID == candidate.ID {
		return candidate.Email, nil
	}

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"user_id":    candidate.ID,
		"owner_id":   owner.ID,
	}).Warn("Email belongs to another user, keeping stored contact")

	return "", nil
}

func (s *userService) insertOrReassign(ctx context.Context, users userStore, candidate entity.User) error {
	if candidate.Email == "" {
		return users.CreateUser(ctx, candidate)
	}

	existing, err := users.GetUserByEmail(ctx, candidate.Email)
	if errors.Is(err, user.ErrUserNotFound) {
		return users.CreateUser(ctx, candidate)
	}
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"old_id":     existing.ID,
		"new_id":     candidate.ID,
	}).Info("Reassigning user id matched by email")

	return users.ReassignUserID(ctx, candidate)
}

func (s *userService) GetUser(ctx context.Context, userID string) (entity.User, error) {
	repo, err := s.userRepo.NewClient(false)
	if err != nil {
		return entity.User{}, err
	}

	return repo.Users.GetUserByID(ctx, userID)
}
