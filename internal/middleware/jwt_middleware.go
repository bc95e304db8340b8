package middleware

import (
	"outfitter/internal/apperr"
	"outfitter/internal/services"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// IdentityResolver turns an Authorization header into the caller's identity.
type IdentityResolver interface {
	ResolveIdentity(authHeader string) (services.Identity, error)
}

// AuthRequired is a Fiber middleware that rejects requests without a valid bearer token.
func AuthRequired(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := resolver.ResolveIdentity(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return deny(c, fiber.StatusUnauthorized, err)
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// OptionalAuth stores the caller's identity when the token verifies and otherwise lets the
// request through anonymously.
func OptionalAuth(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity, err := resolver.ResolveIdentity(c.Get(fiber.HeaderAuthorization)); err == nil {
			c.Locals(identityKey, identity)
		}
		return c.Next()
	}
}

// RequireRole must run after AuthRequired.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return deny(c, fiber.StatusUnauthorized, apperr.New(apperr.Unauthenticated, "authentication required"))
		}
		if identity.Role != role {
			return deny(c, fiber.StatusForbidden, apperr.Newf(apperr.Forbidden, "%s role required", role))
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by AuthRequired or OptionalAuth.
func IdentityFrom(c *fiber.Ctx) (services.Identity, bool) {
	identity, ok := c.Locals(identityKey).(services.Identity)
	return identity, ok
}

func deny(c *fiber.Ctx, status int, err error) error {
	kind := apperr.KindOf(err)
	return c.Status(status).JSON(fiber.Map{
		"message":   apperr.MessageOf(err),
		"kind":      kind.String(),
		"retryable": apperr.Retryable(kind),
	})
}
