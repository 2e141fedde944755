package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/marketmaster/marketmaster-backend/pkg/auth"
	"github.com/marketmaster/marketmaster-backend/pkg/auth/session"
	"github.com/marketmaster/marketmaster-backend/pkg/config"
	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
	"github.com/marketmaster/marketmaster-backend/pkg/enums"
	pkgerrors "github.com/marketmaster/marketmaster-backend/pkg/errors"
	"github.com/marketmaster/marketmaster-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "marketmaster-test",
		ExpirationMinutes:      5,
		RefreshTokenTTLMinutes: 60,
	}
}

func testPasswordCfg() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

type fakeUserRepo struct {
	byEmail    map[string]*models.User
	byID       map[uuid.UUID]*models.User
	lastLogins map[uuid.UUID]time.Time
	createErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail:    map[string]*models.User{},
		byID:       map[uuid.UUID]*models.User{},
		lastLogins: map[uuid.UUID]time.Time{},
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.byEmail[user.Email]; exists {
		return nil, fmt.Errorf(`duplicate key value violates unique constraint "idx_users_email"`)
	}
	user.ID = uuid.New()
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogins[id] = at
	return nil
}

type fakeSessionManager struct {
	generated map[string]string
	revoked   []string
	rotateErr error
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{generated: map[string]string{}}
}

func (f *fakeSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.generated[accessID] = token
	return token, nil
}

func (f *fakeSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateErr != nil {
		return "", "", f.rotateErr
	}
	stored, ok := f.generated[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.generated, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	f.generated[newID] = token
	return newID, token, nil
}

func (f *fakeSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(f.generated, accessID)
	f.revoked = append(f.revoked, accessID)
	return nil
}

type fakeLimiter struct {
	denyScopes map[string]bool
	calls      []string
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, _ int64, _ time.Duration) (bool, int64, error) {
	f.calls = append(f.calls, scope)
	if f.denyScopes[scope] {
		return false, 0, nil
	}
	return true, 1, nil
}

type fixture struct {
	svc     Service
	repo    *fakeUserRepo
	session *fakeSessionManager
	limiter *fakeLimiter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakeUserRepo()
	sessions := newFakeSessionManager()
	limiter := &fakeLimiter{denyScopes: map[string]bool{}}

	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		RateLimiter:    limiter,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordCfg(),
		RateLimits: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginEmailLimit:    5,
			LoginIPLimit:       20,
			RegisterWindow:     5 * time.Minute,
			RegisterEmailLimit: 3,
			RegisterIPLimit:    20,
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, session: sessions, limiter: limiter}
}

func (f *fixture) seedUser(t *testing.T, email, password string, active bool) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, testPasswordCfg())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Shopper",
		Role:         enums.UserRoleCustomer,
		IsActive:     active,
	}
	f.repo.byEmail[email] = user
	f.repo.byID[user.ID] = user
	return user
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestRegisterCreatesCustomerAndSignsIn(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "  NEW.Shopper@Example.COM ",
		Password: "long-enough-password",
		Name:     "New Shopper",
		ClientIP: "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if resp.User.Email != "new.shopper@example.com" {
		t.Fatalf("email not normalized: %q", resp.User.Email)
	}
	if resp.User.Role != enums.UserRoleCustomer {
		t.Fatalf("new accounts must be customers, got %s", resp.User.Role)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if _, ok := f.session.generated[claims.ID]; !ok {
		t.Fatal("refresh session not stored under the token jti")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, "taken@example.com", "long-enough-password", true)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "taken@example.com",
		Password: "long-enough-password",
		Name:     "Copycat",
	})
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestRegisterValidatesInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "long-enough-password", Name: "X"}},
		{"short password", RegisterRequest{Email: "ok@example.com", Password: "short", Name: "X"}},
		{"blank name", RegisterRequest{Email: "ok@example.com", Password: "long-enough-password", Name: "  "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tc.req)
			expectCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestLoginIssuesTokensAndRecordsLogin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t, "shopper@example.com", "correct-horse", true)

	resp, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "Shopper@Example.com",
		Password: "correct-horse",
		ClientIP: "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}
	if _, ok := f.repo.lastLogins[user.ID]; !ok {
		t.Fatal("last login not recorded")
	}
}

func TestLoginRejectsBadCredentialsAndInactive(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, "shopper@example.com", "correct-horse", true)
	f.seedUser(t, "banned@example.com", "correct-horse", false)

	cases := []struct {
		name string
		req  LoginRequest
	}{
		{"unknown email", LoginRequest{Email: "ghost@example.com", Password: "correct-horse"}},
		{"wrong password", LoginRequest{Email: "shopper@example.com", Password: "wrong-horse"}},
		{"inactive user", LoginRequest{Email: "banned@example.com", Password: "correct-horse"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), tc.req)
			expectCode(t, err, pkgerrors.CodeUnauthorized)
		})
	}
}

func TestLoginHonorsRateLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, "shopper@example.com", "correct-horse", true)
	f.limiter.denyScopes["login:email:shopper@example.com"] = true

	_, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@example.com",
		Password: "correct-horse",
	})
	expectCode(t, err, pkgerrors.CodeRateLimit)
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t, "shopper@example.com", "correct-horse", true)

	login, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := f.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token must rotate")
	}

	oldClaims, err := pkgauth.ParseAccessToken(testJWTConfig(), login.AccessToken)
	if err != nil {
		t.Fatalf("parse old token: %v", err)
	}
	newClaims, err := pkgauth.ParseAccessToken(testJWTConfig(), refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse new token: %v", err)
	}
	if newClaims.ID == oldClaims.ID {
		t.Fatal("jti must rotate with the session")
	}
	if newClaims.UserID != user.ID {
		t.Fatalf("refreshed token carries wrong user: %s", newClaims.UserID)
	}

	// The old pair is dead after rotation.
	_, err = f.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRejectsBadRefreshToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, "shopper@example.com", "correct-horse", true)

	login, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = f.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: "forged-token",
	})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := f.seedUser(t, "shopper@example.com", "correct-horse", true)

	login, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user.IsActive = false

	_, err = f.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedUser(t, "shopper@example.com", "correct-horse", true)

	login, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), login.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if err := f.svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := f.session.generated[claims.ID]; ok {
		t.Fatal("session must be gone after logout")
	}
}
