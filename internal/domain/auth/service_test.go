package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"repairshop/internal/database"
	"repairshop/internal/domain"
	jwtpkg "repairshop/internal/pkg/jwt"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_test_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	if err := database.EnsureDefaults(db, "admin@test.local", "admin123"); err != nil {
		t.Fatalf("failed to seed defaults: %v", err)
	}
	return NewService(db, jwtpkg.New("test-secret", time.Hour)), db
}

func TestRegisterCreatesClientAndUserTogether(t *testing.T) {
	svc, db := setupTestService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:     "Petr@Example.com",
		Password:  "secret1",
		LastName:  "Ivanov",
		FirstName: "Petr",
		Phone:     "+375291112233",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "petr@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if user.ClientID == nil {
		t.Fatal("user not linked to a client record")
	}

	var cl domain.Client
	if err := db.First(&cl, *user.ClientID).Error; err != nil {
		t.Fatalf("client record missing: %v", err)
	}
	if cl.LastName != "Ivanov" || cl.Phone != "+375291112233" {
		t.Fatalf("unexpected client record: %+v", cl)
	}
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	in := RegisterInput{
		Email: "petr@example.com", Password: "secret1",
		LastName: "Ivanov", FirstName: "Petr", Phone: "+375291000020",
	}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	in.Phone = "+375291000021"
	if _, err := svc.Register(ctx, in); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterRejectsIncompleteInput(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	cases := []RegisterInput{
		{Password: "secret1", LastName: "Ivanov", FirstName: "Petr"},
		{Email: "a@b.c", LastName: "Ivanov", FirstName: "Petr"},
		{Email: "a@b.c", Password: "secret1", FirstName: "Petr"},
	}
	for i, in := range cases {
		if _, err := svc.Register(ctx, in); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestLoginReturnsTokenWithClientID(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email: "petr@example.com", Password: "secret1",
		LastName: "Ivanov", FirstName: "Petr",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	res, err := svc.Login(ctx, "PETR@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatal("expected an access token")
	}
	if res.User.RoleName() != domain.RoleClient {
		t.Fatalf("expected client role, got %s", res.User.RoleName())
	}

	claims, err := jwtpkg.New("test-secret", time.Hour).ValidateToken(res.AccessToken)
	if err != nil {
		t.Fatalf("token failed validation: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token user id %d, expected %d", claims.UserID, user.ID)
	}
	if claims.ClientID == nil || *claims.ClientID != *user.ClientID {
		t.Fatal("token missing client id claim")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		Email: "petr@example.com", Password: "secret1",
		LastName: "Ivanov", FirstName: "Petr",
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if _, err := svc.Login(ctx, "petr@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestBootstrapAdminCanLogin(t *testing.T) {
	svc, _ := setupTestService(t)

	res, err := svc.Login(context.Background(), "admin@test.local", "admin123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.User.RoleName() != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", res.User.RoleName())
	}
	if res.User.ClientID != nil {
		t.Fatal("admin must not carry a client id")
	}
}

func TestChangePasswordRequiresOldPassword(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email: "petr@example.com", Password: "secret1",
		LastName: "Ivanov", FirstName: "Petr",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	caller := domain.Caller{UserID: user.ID, Role: domain.RoleClient, ClientID: user.ClientID}

	if err := svc.ChangePassword(ctx, caller, "wrong", "newsecret"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := svc.ChangePassword(ctx, caller, "secret1", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := svc.ChangePassword(ctx, caller, "secret1", "newsecret"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	if _, err := svc.Login(ctx, "petr@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password still accepted")
	}
	if _, err := svc.Login(ctx, "petr@example.com", "newsecret"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}
