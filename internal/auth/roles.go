package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/domain"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// RequireOperator ensures a principal was stored by AuthMiddleware.
func RequireOperator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("operator required")
		}
		return c.Next()
	}
}

// ActorFromContext returns the Actor of the authenticated operator.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return domain.Actor{}, false
	}
	return principal.Actor, true
}
