package middleware

import (
	"callstack/internal/entity"
	"callstack/pkg/identity"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const accessTokenQuery = "access_token"

// NewTokenMiddleware resolves the bearer credential through the configured
// identity provider and stores the caller under the "user" local. Browsers
// cannot set headers on websocket upgrades, so the access_token query
// parameter is accepted as well.
func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	credential := bearerToken(ctx)

	if credential == "" && identity.RequiresCredential(m.identity) {
		m.log.WithFields(logrus.Fields{
			"path":       ctx.Path(),
			"request_id": m.GetRequestID(ctx),
		}).Warn("Missing access token")
		return unauthorized(ctx)
	}

	id, err := m.identity.Resolve(ctx.UserContext(), credential)
	if err != nil {
		fields := logrus.Fields{
			"path":       ctx.Path(),
			"provider":   m.identity.Name(),
			"request_id": m.GetRequestID(ctx),
			"error":      err.Error(),
		}
		if errors.Is(err, identity.ErrInvalidCredential) || errors.Is(err, identity.ErrMissingCredential) {
			m.log.WithFields(fields).Warn("Token verification failed")
			return unauthorized(ctx)
		}
		m.log.WithFields(fields).Error("Identity provider unavailable")
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "identity provider unavailable",
		})
	}

	ctx.Locals("user", entity.UserLoginData{
		ID:       id.ID,
		Email:    id.Email,
		Phone:    id.Phone,
		Provider: id.Variant,
	})

	m.log.WithFields(logrus.Fields{
		"user_id":  id.ID,
		"provider": id.Variant,
	}).Debug("Authentication successful")

	return ctx.Next()
}

func bearerToken(ctx *fiber.Ctx) string {
	header := strings.TrimSpace(ctx.Get(fiber.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(ctx.Query(accessTokenQuery))
}

func unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized, access token invalid or expired",
	})
}
