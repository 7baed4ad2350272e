package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khaldi-abdarhmane/user-management-microservice/internal/auth"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/directory"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/domain"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/events"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/repository"
	apperrors "github.com/khaldi-abdarhmane/user-management-microservice/pkg/util"
)

// LoginService orchestrates credential login: it decides whether the
// customer directory must be consulted, shapes the response payload by
// role, and issues the bearer token.
type LoginService struct {
	users      repository.UserRepository
	strategy   *auth.Strategy
	transport  *auth.BearerTransport
	directory  directory.Client
	roles      domain.RoleSets
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// LoginDependencies encapsulates collaborator requirements for the service.
type LoginDependencies struct {
	Users      repository.UserRepository
	Strategy   *auth.Strategy
	Transport  *auth.BearerTransport
	Directory  directory.Client
	Roles      domain.RoleSets
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewLoginService builds the service.
func NewLoginService(deps LoginDependencies) *LoginService {
	return &LoginService{
		users:      deps.Users,
		strategy:   deps.Strategy,
		transport:  deps.Transport,
		directory:  deps.Directory,
		roles:      deps.Roles,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Login authenticates the credentials and assembles the role-shaped payload.
// Bad email, bad password, inactive and unverified accounts all collapse to
// the same rejection so callers cannot probe which check failed.
func (s *LoginService) Login(ctx context.Context, email, password string) (map[string]any, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.IsActive || !user.IsVerified {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	customerID, err := s.resolveCustomerID(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.strategy.WriteToken(user, customerID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	bearer := s.transport.LoginResponse(token)
	payload := map[string]any{
		"access_token": bearer.AccessToken,
		"token_type":   bearer.TokenType,
		"expires_in":   int(s.strategy.Lifetime().Seconds()),
	}

	// Machine callers get the bare token envelope; human roles get their
	// profile echoed back to spare a second round-trip.
	if s.roles.IsAvailable(user.Role) && !s.roles.IsAPI(user.Role) {
		mergeProfile(payload, user)
	}
	if s.roles.IsCustomer(user.Role) {
		payload["customer_id"] = *customerID
	}

	s.stampLastVisit(ctx, user)
	s.publishLoggedIn(ctx, user, customerID)

	return payload, nil
}

// resolveCustomerID consults the directory for customer roles. A remote
// failure is logged and treated as "no id resolved"; a customer-role user
// with no resolvable id is rejected outright, since the directory and the
// user store disagree about who this person is.
func (s *LoginService) resolveCustomerID(ctx context.Context, user *domain.User) (*int64, error) {
	if !s.roles.IsCustomer(user.Role) {
		return nil, nil
	}

	s.logger.Warn("checking customer link for user", zap.String("user_id", user.ID))

	customerID, err := s.directory.VerifyUserEssentials(ctx, user.ID, user.Address.Map())
	if err != nil {
		s.logger.Error("error while checking customer related to user",
			zap.String("user_id", user.ID), zap.Error(err))
		customerID = nil
	}

	if customerID == nil {
		return nil, apperrors.NewDataIntegrity(
			fmt.Sprintf("user with first name: %s, last name: %s, email: %s and id: %s doesn't exist in the customer directory",
				user.FirstName, user.LastName, user.Email, user.ID),
			map[string]any{
				"first_name": user.FirstName,
				"last_name":  user.LastName,
				"email":      user.Email,
				"user_id":    user.ID,
			})
	}
	return customerID, nil
}

func mergeProfile(payload map[string]any, user *domain.User) {
	payload["id"] = user.ID
	payload["email"] = user.Email
	payload["first_name"] = user.FirstName
	payload["last_name"] = user.LastName
	payload["civility"] = user.Civility
	payload["phone"] = user.Phone
	payload["is_active"] = user.IsActive
	payload["is_verified"] = user.IsVerified
	payload["role"] = user.Role
	payload["address"] = user.Address
	payload["company_name"] = user.CompanyName
	payload["siren"] = user.Siren
	payload["last_visited_at"] = user.LastVisitedAt
	payload["birthdate"] = user.BirthDate
}

// stampLastVisit records the visit after the payload is assembled, so the
// response still carries the previous visit time. Failure is non-fatal.
func (s *LoginService) stampLastVisit(ctx context.Context, user *domain.User) {
	now := time.Now()
	user.LastVisitedAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("failed to stamp last visit",
			zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (s *LoginService) publishLoggedIn(ctx context.Context, user *domain.User, customerID *int64) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserLoggedIn,
		UserID:    user.ID,
		Timestamp: time.Now(),
		Payload:   events.UserLoggedInPayload{Role: user.Role, CustomerID: customerID},
	})
}
