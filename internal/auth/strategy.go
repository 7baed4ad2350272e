package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khaldi-abdarhmane/user-management-microservice/internal/domain"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/repository"
	apperrors "github.com/khaldi-abdarhmane/user-management-microservice/pkg/util"
)

// ErrDestroyNotSupported is reported when a caller tries to invalidate a
// token before it expires. Tokens are stateless and self-expiring; there is
// nothing to destroy.
var ErrDestroyNotSupported = apperrors.NewUnsupportedOperation(
	"a signed token cannot be invalidated: it is valid until it expires")

// Strategy bridges raw token strings and domain identity. Token invalidity
// and user disappearance both read as nil: callers only learn that the
// bearer is not authenticated, never why.
type Strategy struct {
	codec    *TokenCodec
	users    repository.UserRepository
	lifetime time.Duration
}

// NewStrategy builds a strategy around the codec and user store.
func NewStrategy(codec *TokenCodec, users repository.UserRepository, lifetime time.Duration) *Strategy {
	return &Strategy{codec: codec, users: users, lifetime: lifetime}
}

// ReadToken resolves a bearer token to the user it identifies, or nil.
func (s *Strategy) ReadToken(ctx context.Context, token string) *domain.User {
	if token == "" {
		return nil
	}
	claims := s.codec.Decode(token)
	if claims == nil || claims.UserID == "" {
		return nil
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil
	}
	return user
}

// WriteToken issues a token binding the user's id and role, carrying the
// customer id when one was resolved.
func (s *Strategy) WriteToken(user *domain.User, customerID *int64) (string, error) {
	claims := Claims{
		UserID:     user.ID,
		Role:       user.Role,
		CustomerID: customerID,
	}
	return s.codec.Encode(claims, s.lifetime)
}

// DestroyToken always reports an unsupported operation regardless of input.
func (s *Strategy) DestroyToken(_ string, _ *domain.User) error {
	return ErrDestroyNotSupported
}

// Lifetime returns the configured token lifetime.
func (s *Strategy) Lifetime() time.Duration {
	return s.lifetime
}
