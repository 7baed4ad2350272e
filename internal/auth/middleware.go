package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/khaldi-abdarhmane/user-management-microservice/internal/domain"
	apperrors "github.com/khaldi-abdarhmane/user-management-microservice/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads the calling user.
type AuthMiddleware struct {
	strategy *Strategy
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(strategy *Strategy) *AuthMiddleware {
	return &AuthMiddleware{strategy: strategy}
}

// Handle enforces authentication for protected routes. Every rejection uses
// the same message so callers cannot probe which check failed.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("not authenticated")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("not authenticated")
	}

	user := m.strategy.ReadToken(c.Context(), parts[1])
	if user == nil || !user.IsActive {
		return apperrors.NewUnauthorized("not authenticated")
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// UserFromContext retrieves the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}

// RequireRoles ensures the authenticated user holds one of the allowed roles.
func RequireRoles(allowed ...string) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[strings.ToLower(role)] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("not authenticated")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[strings.ToLower(user.Role)]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
