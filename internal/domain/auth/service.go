package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"repairshop/internal/domain"
)

type jwtService interface {
	GenerateToken(userID int64, role string, clientID *int64) (string, error)
}

type Service struct {
	db  *gorm.DB
	jwt jwtService
}

func NewService(db *gorm.DB, jwt jwtService) *Service {
	return &Service{db: db, jwt: jwt}
}

type RegisterInput struct {
	Email      string
	Password   string
	LastName   string
	FirstName  string
	MiddleName string
	Phone      string
}

type LoginResult struct {
	User        *domain.User
	AccessToken string
}

// Register creates the client record and its user account together; a
// failure on either side leaves nothing behind.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" || in.LastName == "" || in.FirstName == "" {
		return nil, ErrValidation
	}

	var cnt int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&cnt).Error; err != nil {
		return nil, err
	}
	if cnt > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var user domain.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cl := domain.Client{
			LastName:   strings.TrimSpace(in.LastName),
			FirstName:  strings.TrimSpace(in.FirstName),
			MiddleName: strings.TrimSpace(in.MiddleName),
			Phone:      strings.TrimSpace(in.Phone),
		}
		if err := tx.Create(&cl).Error; err != nil {
			return err
		}

		var clientRole domain.Role
		if err := tx.Where("name = ?", domain.RoleClient).First(&clientRole).Error; err != nil {
			return err
		}

		user = domain.User{
			Email:        email,
			PasswordHash: string(hash),
			RoleID:       clientRole.ID,
			ClientID:     &cl.ID,
		}
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var user domain.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Preload("Client").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.RoleName(), user.ClientID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: &user, AccessToken: token}, nil
}

func (s *Service) Me(ctx context.Context, caller domain.Caller) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Preload("Client").
		First(&user, caller.UserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) ChangePassword(ctx context.Context, caller domain.Caller, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrValidation
	}

	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, caller.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", user.ID).
		Update("password_hash", string(hash)).Error
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
