package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/khaldi-abdarhmane/user-management-microservice/internal/domain"
	apperrors "github.com/khaldi-abdarhmane/user-management-microservice/pkg/util"
)

type stubUserRepo struct {
	byID map[string]*domain.User
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	repo := &stubUserRepo{byID: make(map[string]*domain.User)}
	for _, user := range users {
		repo.byID[user.ID] = user
	}
	return repo
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.byID[user.ID] = user
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.byID[user.ID] = user
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

const testUserID = "aa1e67b0-41dd-4d9c-b3a4-8d0f3c0a55e1"

func TestStrategy_ReadToken_Success(t *testing.T) {
	codec := newTestCodec(t, nil)
	user := &domain.User{ID: testUserID, Email: "alice@example.com", Role: "customer", IsActive: true}
	strategy := NewStrategy(codec, newStubUserRepo(user), time.Hour)

	token, err := strategy.WriteToken(user, nil)
	if err != nil {
		t.Fatalf("WriteToken returned error: %v", err)
	}

	got := strategy.ReadToken(context.Background(), token)
	if got == nil {
		t.Fatal("ReadToken returned nil for a valid token")
	}
	if got.ID != user.ID {
		t.Errorf("unexpected user id: %s", got.ID)
	}
}

func TestStrategy_ReadToken_NilOutcomes(t *testing.T) {
	codec := newTestCodec(t, nil)
	user := &domain.User{ID: testUserID, Role: "customer"}
	strategy := NewStrategy(codec, newStubUserRepo(user), time.Hour)

	validToken, err := strategy.WriteToken(user, nil)
	if err != nil {
		t.Fatalf("WriteToken returned error: %v", err)
	}

	// Token valid but user no longer exists.
	emptyStrategy := NewStrategy(codec, newStubUserRepo(), time.Hour)
	if got := emptyStrategy.ReadToken(context.Background(), validToken); got != nil {
		t.Errorf("expected nil for deleted user, got %+v", got)
	}

	// Claims carry an id that is not a UUID.
	badIDToken, err := codec.Encode(Claims{UserID: "not-a-uuid", Role: "customer"}, time.Hour)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if got := strategy.ReadToken(context.Background(), badIDToken); got != nil {
		t.Errorf("expected nil for malformed subject id, got %+v", got)
	}

	if got := strategy.ReadToken(context.Background(), ""); got != nil {
		t.Errorf("expected nil for empty token, got %+v", got)
	}
	if got := strategy.ReadToken(context.Background(), "garbage"); got != nil {
		t.Errorf("expected nil for malformed token, got %+v", got)
	}
}

func TestStrategy_WriteToken_EmbedsCustomerID(t *testing.T) {
	codec := newTestCodec(t, nil)
	user := &domain.User{ID: testUserID, Role: "customer"}
	strategy := NewStrategy(codec, newStubUserRepo(user), time.Hour)

	// Zero is a legitimate id and must survive the trip.
	customerID := int64(0)
	token, err := strategy.WriteToken(user, &customerID)
	if err != nil {
		t.Fatalf("WriteToken returned error: %v", err)
	}

	claims := codec.Decode(token)
	if claims == nil {
		t.Fatal("Decode returned nil")
	}
	if claims.CustomerID == nil {
		t.Fatal("expected customer id claim to be present")
	}
	if *claims.CustomerID != 0 {
		t.Errorf("expected customer id 0, got %d", *claims.CustomerID)
	}
	if claims.Role != "customer" {
		t.Errorf("unexpected role claim: %s", claims.Role)
	}
}

func TestStrategy_DestroyToken_AlwaysUnsupported(t *testing.T) {
	codec := newTestCodec(t, nil)
	strategy := NewStrategy(codec, newStubUserRepo(), time.Hour)

	for _, token := range []string{"", "anything", "a.b.c"} {
		err := strategy.DestroyToken(token, &domain.User{ID: testUserID})
		if err == nil {
			t.Fatal("expected error from DestroyToken")
		}
		var domainErr *apperrors.DomainError
		if !errors.As(err, &domainErr) || domainErr.Code != "UNSUPPORTED_OPERATION" {
			t.Errorf("expected UNSUPPORTED_OPERATION, got %v", err)
		}
	}
}
