package userRepository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"callstack/database"
	"callstack/internal/api/user"
	"callstack/internal/entity"
	contextPkg "callstack/pkg/context"
	"callstack/pkg/response"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type UserDB struct {
	ID        string         `db:"id"`
	Email     sql.NullString `db:"email"`
	Phone     sql.NullString `db:"phone"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (entity.User, error) {
	return r.getOne(ctx, queryGetUserByID, map[string]interface{}{"id": id}, "GetUserByID")
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (entity.User, error) {
	return r.getOne(ctx, queryGetUserByEmail, map[string]interface{}{"email": email}, "GetUserByEmail")
}

func (r *userRepository) getOne(ctx context.Context, namedQuery string, argsKV map[string]interface{}, op string) (entity.User, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var userDB UserDB

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " named query preparation err")
		return entity.User{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&userDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.User{}, user.ErrUserNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " execution err")
		return entity.User{}, err
	}

	return makeUser(userDB), nil
}

func (r *userRepository) CreateUser(ctx context.Context, u entity.User) error {
	return r.exec(ctx, queryCreateUser, userArgs(u), "CreateUser")
}

// FillMissingContact sets email and phone only where the stored value is NULL.
func (r *userRepository) FillMissingContact(ctx context.Context, u entity.User) error {
	return r.exec(ctx, queryFillMissingContact, userArgs(u), "FillMissingContact")
}

// ReassignUserID moves the row matching u.Email to u.ID. Owned rows follow
// through ON UPDATE CASCADE.
func (r *userRepository) ReassignUserID(ctx context.Context, u entity.User) error {
	return r.exec(ctx, queryReassignUserID, userArgs(u), "ReassignUserID")
}

func (r *userRepository) exec(ctx context.Context, namedQuery string, argsKV map[string]interface{}, op string) error {
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

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		if target, ok := database.UniqueViolation(err); ok {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"constraint": target,
			}).Warn(op + " unique violation")
			return response.Wrap(user.ErrUserConflict, err)
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " execution err")
		return err
	}

	return nil
}

func userArgs(u entity.User) map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID,
		"email":      sql.NullString{String: u.Email, Valid: u.Email != ""},
		"phone":      sql.NullString{String: u.Phone, Valid: u.Phone != ""},
		"created_at": u.CreatedAt.UTC(),
		"updated_at": u.UpdatedAt.UTC(),
	}
}

func makeUser(u UserDB) entity.User {
	return entity.User{
		ID:        u.ID,
		Email:     u.Email.String,
		Phone:     u.Phone.String,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}
