package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/khaldi-abdarhmane/user-management-microservice/internal/auth"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/domain"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/events"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/repository"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/tokenstore"
	apperrors "github.com/khaldi-abdarhmane/user-management-microservice/pkg/util"
)

const sirenMaxLen = 9

// UserService covers registration, email verification, password reset and
// profile maintenance.
type UserService struct {
	users      repository.UserRepository
	roles      domain.RoleSets
	tokens     tokenstore.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	verifyTTL  time.Duration
	resetTTL   time.Duration
}

// UserDependencies encapsulates collaborator requirements for the service.
type UserDependencies struct {
	Users      repository.UserRepository
	Roles      domain.RoleSets
	Tokens     tokenstore.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
	VerifyTTL  time.Duration
	ResetTTL   time.Duration
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.Users,
		roles:      deps.Roles,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
		verifyTTL:  deps.VerifyTTL,
		resetTTL:   deps.ResetTTL,
	}
}

// RegisterInput carries the self-registration fields.
type RegisterInput struct {
	Email       string
	Password    string
	Role        string
	FirstName   string
	LastName    string
	Phone       string
	Civility    *string
	CompanyName *string
	Siren       *string
	Address     *domain.Address
	BirthDate   *time.Time
}

// Register creates a new unverified account and emits a verification token.
// Only roles from the registrable set may self-register.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Role = strings.ToLower(strings.TrimSpace(input.Role))

	if input.Email == "" || input.Password == "" || input.Phone == "" {
		return nil, apperrors.NewValidationError("email, password and phone are required", nil)
	}
	if !s.roles.IsRegistrable(input.Role) {
		return nil, apperrors.NewValidationError("role is not registrable",
			map[string]any{"role": input.Role})
	}
	if err := validateProfile(input.Civility, input.Siren, input.BirthDate); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Civility:     input.Civility,
		Phone:        input.Phone,
		Address:      input.Address,
		CompanyName:  input.CompanyName,
		Siren:        input.Siren,
		BirthDate:    input.BirthDate,
		IsActive:     true,
		IsVerified:   false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, user.ID,
		events.UserRegisteredPayload{Email: user.Email, Role: user.Role})

	if err := s.issueVerificationToken(ctx, user); err != nil {
		s.logger.Warn("failed to issue verification token",
			zap.String("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

// RequestVerification re-issues a verification token. Unknown or already
// verified emails are accepted silently to avoid account enumeration.
func (s *UserService) RequestVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil || user.IsVerified {
		return nil
	}
	return s.issueVerificationToken(ctx, user)
}

// Verify consumes a verification token and marks the user verified.
func (s *UserService) Verify(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Get(ctx, tokenstore.KindVerification, token)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return nil, apperrors.NewValidationError("invalid or expired verification token", nil)
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid or expired verification token", nil)
	}

	user.IsVerified = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	_ = s.tokens.Delete(ctx, tokenstore.KindVerification, token)

	s.publish(ctx, events.EventUserVerified, user.ID, nil)
	return user, nil
}

// RequestPasswordReset issues a reset token. Unknown emails are accepted
// silently to avoid account enumeration.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil
	}

	token := uuid.NewString()
	if err := s.tokens.Put(ctx, tokenstore.KindPasswordReset, token, user.ID, s.resetTTL); err != nil {
		return err
	}

	s.publish(ctx, events.EventUserPasswordResetRequested, user.ID,
		events.PasswordResetRequestedPayload{Email: user.Email, Token: token})
	return nil
}

// ConfirmPasswordReset consumes a reset token and updates the password.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return apperrors.NewValidationError("new password is required", nil)
	}

	userID, err := s.tokens.Get(ctx, tokenstore.KindPasswordReset, token)
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return apperrors.NewValidationError("invalid or expired reset token", nil)
		}
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.NewValidationError("invalid or expired reset token", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	_ = s.tokens.Delete(ctx, tokenstore.KindPasswordReset, token)

	s.publish(ctx, events.EventUserPasswordChanged, user.ID, nil)
	return nil
}

// UpdateProfileInput carries optional profile changes; nil fields are left
// untouched.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Civility    *string
	Phone       *string
	CompanyName *string
	Siren       *string
	Address     *domain.Address
	BirthDate   *time.Time
}

// UpdateProfile applies the requested changes to the user's profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	if err := validateProfile(input.Civility, input.Siren, input.BirthDate); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Civility != nil {
		user.Civility = input.Civility
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.CompanyName != nil {
		user.CompanyName = input.CompanyName
	}
	if input.Siren != nil {
		user.Siren = input.Siren
	}
	if input.Address != nil {
		user.Address = input.Address
	}
	if input.BirthDate != nil {
		user.BirthDate = input.BirthDate
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser loads a user by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.NewValidationError("user id must be a UUID", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) issueVerificationToken(ctx context.Context, user *domain.User) error {
	token := uuid.NewString()
	if err := s.tokens.Put(ctx, tokenstore.KindVerification, token, user.ID, s.verifyTTL); err != nil {
		return err
	}
	s.publish(ctx, events.EventUserVerificationRequested, user.ID,
		events.VerificationRequestedPayload{Email: user.Email, Token: token})
	return nil
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, userID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func validateProfile(civility, siren *string, birthDate *time.Time) error {
	if civility != nil && *civility != domain.CivilityMr && *civility != domain.CivilityMrs {
		return apperrors.NewValidationError("civility must be Mr or Mrs", nil)
	}
	if siren != nil && len(*siren) > sirenMaxLen {
		return apperrors.NewValidationError("siren must be at most 9 characters", nil)
	}
	if birthDate != nil && birthDate.After(time.Now()) {
		return apperrors.NewValidationError("birthdate cannot be in the future", nil)
	}
	return nil
}
