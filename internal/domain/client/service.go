package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"repairshop/internal/domain"
)

// placeholderPassword is hashed into accounts the admin creates by
// attaching an email to a client that has none yet. Carried over from the
// legacy system; a forced first-login change was never specified.
const placeholderPassword = "password123"

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type SaveClientInput struct {
	ID         int64
	LastName   string
	FirstName  string
	MiddleName string
	Phone      string

	// Email, when set, links or creates the client's user account.
	Email  string
	RoleID int64
}

type ProfileInput struct {
	LastName   string
	FirstName  string
	MiddleName string
	Phone      string
}

type ListFilters struct {
	Search       string
	RegisteredOn *time.Time
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Client, error) {
	var cl domain.Client
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("User.Role").
		First(&cl, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cl, nil
}

func (s *Service) List(ctx context.Context, f ListFilters) ([]domain.Client, error) {
	q := s.db.WithContext(ctx).
		Model(&domain.Client{}).
		Preload("User").
		Order("clients.id DESC")

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("last_name LIKE ? OR first_name LIKE ?", like, like)
	}
	if f.RegisteredOn != nil {
		dayStart := *f.RegisteredOn
		dayEnd := dayStart.AddDate(0, 0, 1)
		q = q.Joins("LEFT JOIN user_accounts ON user_accounts.client_id = clients.id").
			Where("user_accounts.created_at >= ? AND user_accounts.created_at < ?", dayStart, dayEnd)
	}

	var clients []domain.Client
	if err := q.Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// Save creates or updates a client. A submitted email either attaches an
// existing unlinked user, updates the currently linked user, or creates a
// fresh account with the placeholder password. A conflicting email fails
// the whole operation; nothing is written.
func (s *Service) Save(ctx context.Context, in SaveClientInput) (*domain.Client, error) {
	if in.LastName == "" || in.FirstName == "" {
		return nil, ErrValidation
	}

	var cl domain.Client
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ID != 0 {
			if err := tx.First(&cl, in.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
		}

		cl.LastName = strings.TrimSpace(in.LastName)
		cl.FirstName = strings.TrimSpace(in.FirstName)
		cl.MiddleName = strings.TrimSpace(in.MiddleName)
		cl.Phone = strings.TrimSpace(in.Phone)

		if err := tx.Save(&cl).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrPhoneTaken
			}
			return err
		}

		email := strings.ToLower(strings.TrimSpace(in.Email))
		if email == "" {
			return nil
		}

		roleID := in.RoleID
		if roleID == 0 {
			var clientRole domain.Role
			if err := tx.Where("name = ?", domain.RoleClient).First(&clientRole).Error; err != nil {
				return err
			}
			roleID = clientRole.ID
		}

		var existing *domain.User
		var found domain.User
		err := tx.Where("email = ?", email).First(&found).Error
		switch {
		case err == nil:
			existing = &found
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		var linked domain.User
		err = tx.Where("client_id = ?", cl.ID).First(&linked).Error
		hasLinked := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if hasLinked {
			if existing != nil && existing.ID != linked.ID {
				return ErrEmailAlreadyLinked
			}
			linked.Email = email
			linked.RoleID = roleID
			return tx.Save(&linked).Error
		}

		if existing != nil {
			if existing.ClientID != nil && *existing.ClientID != cl.ID {
				return ErrEmailAlreadyLinked
			}
			existing.ClientID = &cl.ID
			existing.RoleID = roleID
			return tx.Save(existing).Error
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(placeholderPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		newUser := domain.User{
			Email:        email,
			PasswordHash: string(hash),
			RoleID:       roleID,
			ClientID:     &cl.ID,
		}
		return tx.Create(&newUser).Error
	})
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

// Delete removes a client, its linked user and its canceled orders in one
// transaction. Any order in another status blocks the whole delete.
func (s *Service) Delete(ctx context.Context, clientID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cl domain.Client
		if err := tx.First(&cl, clientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var active int64
		if err := tx.Model(&domain.WorkOrder{}).
			Where("client_id = ? AND status <> ?", clientID, domain.StatusCanceled).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrHasActiveOrders
		}

		if err := tx.Where("client_id = ?", clientID).Delete(&domain.User{}).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", clientID).Delete(&domain.WorkOrder{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Client{}, clientID).Error
	})
}

// UpdateProfile is the client self-service edit of its own record.
func (s *Service) UpdateProfile(ctx context.Context, caller domain.Caller, in ProfileInput) (*domain.Client, error) {
	if caller.ClientID == nil {
		return nil, ErrForbidden
	}
	if in.LastName == "" || in.FirstName == "" {
		return nil, ErrValidation
	}

	var cl domain.Client
	if err := s.db.WithContext(ctx).First(&cl, *caller.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cl.LastName = strings.TrimSpace(in.LastName)
	cl.FirstName = strings.TrimSpace(in.FirstName)
	cl.MiddleName = strings.TrimSpace(in.MiddleName)
	cl.Phone = strings.TrimSpace(in.Phone)

	if err := s.db.WithContext(ctx).Save(&cl).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrPhoneTaken
		}
		return nil, err
	}
	return &cl, nil
}

// ListUsers backs the admin user directory, newest accounts first.
func (s *Service) ListUsers(ctx context.Context, search string) ([]domain.User, error) {
	q := s.db.WithContext(ctx).
		Model(&domain.User{}).
		Preload("Role").
		Preload("Client").
		Order("user_accounts.created_at DESC")

	if search != "" {
		like := "%" + search + "%"
		q = q.Joins("LEFT JOIN clients ON clients.id = user_accounts.client_id").
			Where("user_accounts.email LIKE ? OR clients.last_name LIKE ?", like, like)
	}

	var users []domain.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
