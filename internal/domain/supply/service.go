package supply

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"repairshop/internal/domain"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// PartLine is one row of the supply form: a part received in the batch.
type PartLine struct {
	Name  string
	Price decimal.Decimal
}

type SaveSupplyInput struct {
	ID         int64
	SupplierID int64
	SupplyDate time.Time
}

type SaveSupplierInput struct {
	ID       int64
	Name     string
	Contacts string
}

type SavePartInput struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	SupplyID int64
}

type SupplyFilters struct {
	Search string
	Date   *time.Time
}

// SaveSupply creates or updates a supply batch. Editing is a destructive
// snapshot replacement: every part previously tied to the supply is
// deleted, and the submitted lines are inserted fresh as warehouse stock.
// This deliberately differs from order reallocation, which releases parts
// instead of deleting them.
func (s *Service) SaveSupply(ctx context.Context, in SaveSupplyInput, lines []PartLine) (*domain.Supply, error) {
	if in.SupplierID == 0 || in.SupplyDate.IsZero() {
		return nil, ErrValidation
	}
	for _, line := range lines {
		if line.Name != "" && line.Price.IsNegative() {
			return nil, ErrValidation
		}
	}

	var sp domain.Supply
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		editing := in.ID != 0
		if editing {
			if err := tx.First(&sp, in.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
		}

		var supplierCount int64
		if err := tx.Model(&domain.Supplier{}).Where("id = ?", in.SupplierID).Count(&supplierCount).Error; err != nil {
			return err
		}
		if supplierCount == 0 {
			return ErrValidation
		}

		sp.SupplierID = in.SupplierID
		sp.SupplyDate = in.SupplyDate
		if err := tx.Save(&sp).Error; err != nil {
			return err
		}

		if editing {
			if err := tx.Where("supply_id = ?", sp.ID).Delete(&domain.Part{}).Error; err != nil {
				return err
			}
		}

		for _, line := range lines {
			name := strings.TrimSpace(line.Name)
			if name == "" {
				continue
			}
			part := domain.Part{
				Name:     name,
				Price:    line.Price,
				SupplyID: sp.ID,
			}
			if err := tx.Create(&part).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// DeleteSupply refuses while parts from the batch still exist; the engine
// never deletes through the referential constraint.
func (s *Service) DeleteSupply(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sp domain.Supply
		if err := tx.First(&sp, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var cnt int64
		if err := tx.Model(&domain.Part{}).Where("supply_id = ?", id).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrHasParts
		}

		return tx.Delete(&domain.Supply{}, id).Error
	})
}

func (s *Service) GetSupply(ctx context.Context, id int64) (*domain.Supply, error) {
	var sp domain.Supply
	err := s.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Parts").
		First(&sp, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sp, nil
}

func (s *Service) ListSupplies(ctx context.Context, f SupplyFilters) ([]domain.Supply, error) {
	q := s.db.WithContext(ctx).
		Model(&domain.Supply{}).
		Preload("Supplier").
		Preload("Parts").
		Order("supply_date DESC, supplies.id DESC")

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Joins("JOIN suppliers ON suppliers.id = supplies.supplier_id").
			Joins("LEFT JOIN parts ON parts.supply_id = supplies.id").
			Where("suppliers.name LIKE ? OR parts.name LIKE ?", like, like).
			Distinct("supplies.*")
	}
	if f.Date != nil {
		q = q.Where("supplies.supply_date = ?", *f.Date)
	}

	var supplies []domain.Supply
	if err := q.Find(&supplies).Error; err != nil {
		return nil, err
	}
	return supplies, nil
}

func (s *Service) SaveSupplier(ctx context.Context, in SaveSupplierInput) (*domain.Supplier, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrValidation
	}

	var sup domain.Supplier
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ID != 0 {
			if err := tx.First(&sup, in.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
		}

		sup.Name = name
		sup.Contacts = strings.TrimSpace(in.Contacts)
		if err := tx.Save(&sup).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrNameTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sup domain.Supplier
		if err := tx.First(&sup, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var cnt int64
		if err := tx.Model(&domain.Supply{}).Where("supplier_id = ?", id).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrHasSupplies
		}

		return tx.Delete(&domain.Supplier{}, id).Error
	})
}

func (s *Service) ListSuppliers(ctx context.Context, search string) ([]domain.Supplier, error) {
	q := s.db.WithContext(ctx).Model(&domain.Supplier{}).Order("name")
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	var suppliers []domain.Supplier
	if err := q.Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// SavePart is the standalone part edit screen; allocation to orders goes
// through the order service instead.
func (s *Service) SavePart(ctx context.Context, in SavePartInput) (*domain.Part, error) {
	if strings.TrimSpace(in.Name) == "" || in.SupplyID == 0 || in.Price.IsNegative() {
		return nil, ErrValidation
	}

	var p domain.Part
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ID != 0 {
			if err := tx.First(&p, in.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
		}

		var supplyCount int64
		if err := tx.Model(&domain.Supply{}).Where("id = ?", in.SupplyID).Count(&supplyCount).Error; err != nil {
			return err
		}
		if supplyCount == 0 {
			return ErrValidation
		}

		p.Name = strings.TrimSpace(in.Name)
		p.Price = in.Price
		p.SupplyID = in.SupplyID
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) DeletePart(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&domain.Part{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListParts(ctx context.Context, search string) ([]domain.Part, error) {
	q := s.db.WithContext(ctx).Model(&domain.Part{}).Order("id DESC")
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	var parts []domain.Part
	if err := q.Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
