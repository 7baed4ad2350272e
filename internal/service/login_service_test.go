package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/khaldi-abdarhmane/user-management-microservice/internal/auth"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/directory"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/domain"
	apperrors "github.com/khaldi-abdarhmane/user-management-microservice/pkg/util"
)

type stubUserRepo struct {
	byID    map[string]*domain.User
	updates int
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	repo := &stubUserRepo{byID: make(map[string]*domain.User)}
	for _, user := range users {
		repo.byID[user.ID] = user
	}
	return repo
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range r.byID {
		if existing.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	if user.ID == "" {
		user.ID = "11111111-1111-4111-8111-111111111111"
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	r.byID[user.ID] = user
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.byID[user.ID] = user
	r.updates++
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

type stubDirectory struct {
	id         *int64
	err        error
	calls      int
	lastUserID string
	lastAddr   map[string]any
}

func (d *stubDirectory) VerifyUserEssentials(_ context.Context, userID string, address map[string]any) (*int64, error) {
	d.calls++
	d.lastUserID = userID
	d.lastAddr = address
	return d.id, d.err
}

func testRoleSets() domain.RoleSets {
	return domain.RoleSets{
		Available:   []string{"customer", "admin", "api_client"},
		Registrable: []string{"customer"},
		Customer:    []string{"customer"},
		API:         []string{"api_client"},
	}
}

func testCodec(t *testing.T) *auth.TokenCodec {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	codec, err := auth.NewTokenCodec(string(privPEM), "", nil)
	if err != nil {
		t.Fatalf("NewTokenCodec returned error: %v", err)
	}
	return codec
}

const (
	loginPassword = "s3cret-pass"
	loginUserID   = "d5b0c0de-3c3a-4a1e-9f6f-b7f9c1e2a3b4"
)

func testUser(t *testing.T, role string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(loginPassword, 4)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &domain.User{
		ID:           loginUserID,
		Email:        "jean@example.com",
		PasswordHash: hash,
		Role:         role,
		FirstName:    "Jean",
		LastName:     "Dupont",
		Phone:        "+33600000000",
		IsActive:     true,
		IsVerified:   true,
	}
}

func newLoginService(t *testing.T, repo *stubUserRepo, dir directory.Client) (*LoginService, *auth.TokenCodec) {
	t.Helper()
	codec := testCodec(t)
	strategy := auth.NewStrategy(codec, repo, time.Hour)
	svc := NewLoginService(LoginDependencies{
		Users:     repo,
		Strategy:  strategy,
		Transport: auth.NewBearerTransport(),
		Directory: dir,
		Roles:     testRoleSets(),
		Logger:    zap.NewNop(),
	})
	return svc, codec
}

func TestLogin_CustomerRole_ResolvesCustomerID(t *testing.T) {
	user := testUser(t, "customer")
	repo := newStubUserRepo(user)
	customerID := int64(1234)
	dir := &stubDirectory{id: &customerID}
	svc, codec := newLoginService(t, repo, dir)

	payload, err := svc.Login(context.Background(), user.Email, loginPassword)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if dir.calls != 1 {
		t.Fatalf("expected one directory call, got %d", dir.calls)
	}
	if dir.lastUserID != user.ID {
		t.Errorf("directory called with wrong user id: %s", dir.lastUserID)
	}
	if dir.lastAddr == nil {
		t.Error("directory must receive an address mapping, got nil")
	}

	if got, ok := payload["customer_id"].(int64); !ok || got != 1234 {
		t.Errorf("expected customer_id 1234, got %v", payload["customer_id"])
	}

	token, ok := payload["access_token"].(string)
	if !ok || token == "" {
		t.Fatal("payload missing access_token")
	}
	claims := codec.Decode(token)
	if claims == nil {
		t.Fatal("issued token does not decode")
	}
	if claims.CustomerID == nil || *claims.CustomerID != 1234 {
		t.Errorf("token claims missing customer id: %v", claims.CustomerID)
	}
	if claims.Role != "customer" {
		t.Errorf("unexpected role claim: %s", claims.Role)
	}

	if payload["token_type"] != "bearer" {
		t.Errorf("unexpected token_type: %v", payload["token_type"])
	}
	if payload["expires_in"] != int(time.Hour.Seconds()) {
		t.Errorf("unexpected expires_in: %v", payload["expires_in"])
	}
}

func TestLogin_CustomerRole_ZeroIDIsValid(t *testing.T) {
	user := testUser(t, "customer")
	repo := newStubUserRepo(user)
	zero := int64(0)
	svc, _ := newLoginService(t, repo, &stubDirectory{id: &zero})

	payload, err := svc.Login(context.Background(), user.Email, loginPassword)
	if err != nil {
		t.Fatalf("Login returned error for customer id 0: %v", err)
	}
	if got, ok := payload["customer_id"].(int64); !ok || got != 0 {
		t.Errorf("expected customer_id 0, got %v", payload["customer_id"])
	}
}

func TestLogin_CustomerRole_MissingLinkRejected(t *testing.T) {
	user := testUser(t, "customer")

	cases := map[string]*stubDirectory{
		"directory returns null": {id: nil},
		"directory errors":       {err: directory.ErrRemote},
	}
	for name, dir := range cases {
		repo := newStubUserRepo(user)
		svc, _ := newLoginService(t, repo, dir)

		payload, err := svc.Login(context.Background(), user.Email, loginPassword)
		if err == nil {
			t.Fatalf("%s: expected data-integrity rejection, got payload %v", name, payload)
		}
		var domainErr *apperrors.DomainError
		if !errors.As(err, &domainErr) || domainErr.Code != "DATA_INTEGRITY" {
			t.Errorf("%s: expected DATA_INTEGRITY, got %v", name, err)
		}
		if domainErr.Details["email"] != user.Email || domainErr.Details["user_id"] != user.ID {
			t.Errorf("%s: rejection must identify the user, got %v", name, domainErr.Details)
		}
	}
}

func TestLogin_HumanRole_GetsProfileFields(t *testing.T) {
	user := testUser(t, "admin")
	repo := newStubUserRepo(user)
	dir := &stubDirectory{}
	svc, _ := newLoginService(t, repo, dir)

	payload, err := svc.Login(context.Background(), user.Email, loginPassword)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if dir.calls != 0 {
		t.Errorf("non-customer login must not call the directory, got %d calls", dir.calls)
	}

	for _, field := range []string{
		"id", "email", "first_name", "last_name", "civility", "phone",
		"is_active", "is_verified", "role", "address", "company_name",
		"siren", "last_visited_at", "birthdate",
	} {
		if _, ok := payload[field]; !ok {
			t.Errorf("payload missing profile field %q", field)
		}
	}
	if _, ok := payload["customer_id"]; ok {
		t.Error("non-customer payload must not carry customer_id")
	}
}

func TestLogin_APIRole_ProfileSuppressed(t *testing.T) {
	user := testUser(t, "api_client")
	repo := newStubUserRepo(user)
	svc, _ := newLoginService(t, repo, &stubDirectory{})

	payload, err := svc.Login(context.Background(), user.Email, loginPassword)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	for _, field := range []string{"email", "first_name", "last_name", "phone", "address"} {
		if _, ok := payload[field]; ok {
			t.Errorf("api-role payload must not carry profile field %q", field)
		}
	}
	for _, field := range []string{"access_token", "token_type", "expires_in"} {
		if _, ok := payload[field]; !ok {
			t.Errorf("payload missing base field %q", field)
		}
	}
}

func TestLogin_UniformRejections(t *testing.T) {
	verified := testUser(t, "admin")

	unverified := testUser(t, "admin")
	unverified.ID = "e2222222-2222-4222-8222-222222222222"
	unverified.Email = "pending@example.com"
	unverified.IsVerified = false

	inactive := testUser(t, "admin")
	inactive.ID = "e3333333-3333-4333-8333-333333333333"
	inactive.Email = "gone@example.com"
	inactive.IsActive = false

	repo := newStubUserRepo(verified, unverified, inactive)
	svc, _ := newLoginService(t, repo, &stubDirectory{})

	cases := map[string][2]string{
		"unknown email": {"ghost@example.com", loginPassword},
		"bad password":  {verified.Email, "wrong"},
		"unverified":    {unverified.Email, loginPassword},
		"inactive":      {inactive.Email, loginPassword},
	}
	for name, creds := range cases {
		_, err := svc.Login(context.Background(), creds[0], creds[1])
		if err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
		var domainErr *apperrors.DomainError
		if !errors.As(err, &domainErr) || domainErr.Code != "UNAUTHORIZED" {
			t.Errorf("%s: expected uniform UNAUTHORIZED, got %v", name, err)
		}
		if domainErr.Message != "invalid credentials" {
			t.Errorf("%s: rejection message must not leak the cause, got %q", name, domainErr.Message)
		}
	}
}

func TestLogin_StampsLastVisit(t *testing.T) {
	user := testUser(t, "admin")
	previous := time.Now().Add(-24 * time.Hour)
	user.LastVisitedAt = &previous
	repo := newStubUserRepo(user)
	svc, _ := newLoginService(t, repo, &stubDirectory{})

	payload, err := svc.Login(context.Background(), user.Email, loginPassword)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	// The payload reports the previous visit; the store gets the new one.
	if got, ok := payload["last_visited_at"].(*time.Time); !ok || got == nil || !got.Equal(previous) {
		t.Errorf("payload must carry the previous visit time, got %v", payload["last_visited_at"])
	}
	if repo.updates != 1 {
		t.Errorf("expected one update stamping last visit, got %d", repo.updates)
	}
	stored, _ := repo.GetByID(context.Background(), user.ID)
	if stored.LastVisitedAt == nil || !stored.LastVisitedAt.After(previous) {
		t.Error("store must carry the new visit time")
	}
}
