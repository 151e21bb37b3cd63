package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"repairshop/internal/database"
	"repairshop/internal/domain"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:client_test_%s?mode=memory&cache=shared", t.Name())
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
	return NewService(db), db
}

func TestSaveCreatesClientWithoutAccount(t *testing.T) {
	svc, db := setupTestService(t)

	cl, err := svc.Save(context.Background(), SaveClientInput{
		LastName:  "Ivanov",
		FirstName: "Petr",
		Phone:     "+375291112233",
	})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if cl.ID == 0 {
		t.Fatal("expected client id to be set")
	}

	var users int64
	db.Model(&domain.User{}).Where("client_id = ?", cl.ID).Count(&users)
	if users != 0 {
		t.Fatalf("expected no linked user, found %d", users)
	}
}

func TestSaveWithEmailCreatesPlaceholderAccount(t *testing.T) {
	svc, db := setupTestService(t)

	cl, err := svc.Save(context.Background(), SaveClientInput{
		LastName:  "Ivanov",
		FirstName: "Petr",
		Email:     "Petr@Example.com",
	})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	var user domain.User
	if err := db.Where("client_id = ?", cl.ID).First(&user).Error; err != nil {
		t.Fatalf("linked user not created: %v", err)
	}
	if user.Email != "petr@example.com" {
		t.Fatalf("email not lowercased: %s", user.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(placeholderPassword)); err != nil {
		t.Fatal("account password is not the placeholder")
	}
}

func TestSaveAttachesExistingUnlinkedUser(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	var clientRole domain.Role
	if err := db.Where("name = ?", domain.RoleClient).First(&clientRole).Error; err != nil {
		t.Fatalf("client role missing: %v", err)
	}
	orphan := domain.User{Email: "orphan@example.com", PasswordHash: "x", RoleID: clientRole.ID}
	if err := db.Create(&orphan).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	cl, err := svc.Save(ctx, SaveClientInput{
		LastName:  "Ivanov",
		FirstName: "Petr",
		Email:     "orphan@example.com",
	})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	var after domain.User
	if err := db.First(&after, orphan.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if after.ClientID == nil || *after.ClientID != cl.ID {
		t.Fatal("existing user not attached to client")
	}
}

func TestSaveRejectsEmailLinkedElsewhere(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, SaveClientInput{
		LastName: "Ivanov", FirstName: "Petr", Phone: "+375291000001", Email: "shared@example.com",
	}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	_, err := svc.Save(ctx, SaveClientInput{
		LastName: "Sidorov", FirstName: "Oleg", Phone: "+375291000002", Email: "shared@example.com",
	})
	if !errors.Is(err, ErrEmailAlreadyLinked) {
		t.Fatalf("expected ErrEmailAlreadyLinked, got %v", err)
	}
}

func TestSaveUpdatesLinkedUserEmail(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cl, err := svc.Save(ctx, SaveClientInput{
		LastName: "Ivanov", FirstName: "Petr", Email: "old@example.com",
	})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if _, err := svc.Save(ctx, SaveClientInput{
		ID: cl.ID, LastName: "Ivanov", FirstName: "Petr", Email: "new@example.com",
	}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	var user domain.User
	if err := db.Where("client_id = ?", cl.ID).First(&user).Error; err != nil {
		t.Fatalf("linked user missing: %v", err)
	}
	if user.Email != "new@example.com" {
		t.Fatalf("email not updated, got %s", user.Email)
	}

	var count int64
	db.Model(&domain.User{}).Where("client_id = ?", cl.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single linked account, got %d", count)
	}
}

func TestSaveRejectsMissingName(t *testing.T) {
	svc, _ := setupTestService(t)

	if _, err := svc.Save(context.Background(), SaveClientInput{FirstName: "Petr"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteBlockedByActiveOrders(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cl, err := svc.Save(ctx, SaveClientInput{LastName: "Ivanov", FirstName: "Petr"})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	order := domain.WorkOrder{
		ClientID:     cl.ID,
		PhoneModel:   "iPhone 13",
		ReceivedDate: time.Now(),
		Status:       domain.StatusInRepair,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}

	if err := svc.Delete(ctx, cl.ID); !errors.Is(err, ErrHasActiveOrders) {
		t.Fatalf("expected ErrHasActiveOrders, got %v", err)
	}
}

func TestDeleteCascadesUserAndCanceledOrders(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	cl, err := svc.Save(ctx, SaveClientInput{
		LastName: "Ivanov", FirstName: "Petr", Email: "petr@example.com",
	})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	canceled := domain.WorkOrder{
		ClientID:     cl.ID,
		PhoneModel:   "iPhone 13",
		ReceivedDate: time.Now(),
		Status:       domain.StatusCanceled,
	}
	if err := db.Create(&canceled).Error; err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}

	if err := svc.Delete(ctx, cl.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	var count int64
	db.Model(&domain.Client{}).Where("id = ?", cl.ID).Count(&count)
	if count != 0 {
		t.Fatal("client still exists")
	}
	db.Model(&domain.User{}).Where("client_id = ?", cl.ID).Count(&count)
	if count != 0 {
		t.Fatal("linked user still exists")
	}
	db.Model(&domain.WorkOrder{}).Where("client_id = ?", cl.ID).Count(&count)
	if count != 0 {
		t.Fatal("canceled order still exists")
	}
}

func TestUpdateProfileEditsOwnRecordOnly(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	cl, err := svc.Save(ctx, SaveClientInput{LastName: "Ivanov", FirstName: "Petr"})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	caller := domain.Caller{UserID: 10, Role: domain.RoleClient, ClientID: &cl.ID}
	updated, err := svc.UpdateProfile(ctx, caller, ProfileInput{
		LastName:  "Ivanov",
		FirstName: "Pyotr",
		Phone:     "+375291112233",
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if updated.FirstName != "Pyotr" || updated.Phone != "+375291112233" {
		t.Fatalf("profile not updated: %+v", updated)
	}

	noClient := domain.Caller{UserID: 11, Role: domain.RoleClient}
	if _, err := svc.UpdateProfile(ctx, noClient, ProfileInput{LastName: "X", FirstName: "Y"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListUsersSearchesEmailAndLastName(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, SaveClientInput{
		LastName: "Ivanov", FirstName: "Petr", Phone: "+375291000003", Email: "petr@example.com",
	}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, err := svc.Save(ctx, SaveClientInput{
		LastName: "Sidorov", FirstName: "Oleg", Phone: "+375291000004", Email: "oleg@example.com",
	}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	users, err := svc.ListUsers(ctx, "ivanov")
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(users) != 1 || users[0].Email != "petr@example.com" {
		t.Fatalf("expected single match for ivanov, got %d", len(users))
	}
}
