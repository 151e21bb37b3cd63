package order

import (
	"context"
	"errors"
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

// PartSelection is one line of the order form's part picker. Price is the
// negotiated price for this allocation and overwrites the part's price.
type PartSelection struct {
	PartID int64
	Price  decimal.Decimal
}

type SaveOrderInput struct {
	ID                 int64
	ClientID           int64
	PhoneModel         string
	ProblemDescription string
	ReceivedDate       time.Time
	CompletionDate     *time.Time
	Status             domain.OrderStatus
	WorkCost           decimal.Decimal
}

type ClientOrderInput struct {
	PhoneModel         string
	ProblemDescription string
}

type Totals struct {
	WorkCost   decimal.Decimal `json:"work_cost"`
	PartsTotal decimal.Decimal `json:"parts_total"`
	Total      decimal.Decimal `json:"total"`
}

type ListFilters struct {
	Search       string
	Status       domain.OrderStatus
	ReceivedDate *time.Time
}

func (s *Service) Get(ctx context.Context, caller domain.Caller, id int64) (*domain.WorkOrder, error) {
	var o domain.WorkOrder
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Parts").
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.IsAdmin() && !caller.OwnsClient(o.ClientID) {
		return nil, ErrForbidden
	}
	return &o, nil
}

// List returns orders visible to the caller: admins see everything with
// optional filters, clients see only their own orders.
func (s *Service) List(ctx context.Context, caller domain.Caller, f ListFilters) ([]domain.WorkOrder, error) {
	q := s.db.WithContext(ctx).
		Model(&domain.WorkOrder{}).
		Preload("Client").
		Order("received_date DESC, id DESC")

	if !caller.IsAdmin() {
		if caller.ClientID == nil {
			return []domain.WorkOrder{}, nil
		}
		q = q.Where("client_id = ?", *caller.ClientID)
	} else {
		if f.Search != "" {
			like := "%" + f.Search + "%"
			q = q.Joins("JOIN clients ON clients.id = work_orders.client_id").
				Where("clients.last_name LIKE ? OR clients.first_name LIKE ? OR work_orders.phone_model LIKE ?",
					like, like, like)
		}
		if f.Status != "" {
			q = q.Where("work_orders.status = ?", f.Status)
		}
		if f.ReceivedDate != nil {
			q = q.Where("work_orders.received_date = ?", *f.ReceivedDate)
		}
	}

	var orders []domain.WorkOrder
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Advance moves an order one step along the forward status chain.
// Returns ErrInvalidTransition when the order is already issued or canceled.
func (s *Service) Advance(ctx context.Context, caller domain.Caller, orderID int64) (domain.OrderStatus, error) {
	if !caller.IsAdmin() {
		return "", ErrForbidden
	}

	var next domain.OrderStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o domain.WorkOrder
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		n, ok := domain.NextStatus(o.Status)
		if !ok {
			return ErrInvalidTransition
		}
		next = n
		return tx.Model(&domain.WorkOrder{}).Where("id = ?", orderID).
			Update("status", next).Error
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

// Cancel is the only transition a non-admin may perform: the owning client
// cancels an order that is still exactly in Received.
func (s *Service) Cancel(ctx context.Context, caller domain.Caller, orderID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o domain.WorkOrder
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !caller.OwnsClient(o.ClientID) {
			return ErrNotOwner
		}
		if !o.CanBeCanceled() {
			return ErrWrongStatus
		}

		return tx.Model(&domain.WorkOrder{}).Where("id = ?", orderID).
			Update("status", domain.StatusCanceled).Error
	})
}

// Save creates or updates an order and reallocates its parts in one
// transaction: every part currently assigned is first released back to
// stock, then each selected part is assigned with its submitted price.
// Selections referencing unknown part ids are skipped. Concurrent saves of
// the same part resolve as last writer wins; that is accepted behavior.
//
// Status is written as submitted without transition-graph validation: this
// is the admin override path, distinct from Advance/Cancel.
func (s *Service) Save(ctx context.Context, caller domain.Caller, in SaveOrderInput, selections []PartSelection) (*domain.WorkOrder, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if in.PhoneModel == "" || in.ClientID == 0 || in.ReceivedDate.IsZero() {
		return nil, ErrValidation
	}
	if in.Status == "" {
		in.Status = domain.StatusReceived
	}
	if !domain.ValidOrderStatus(in.Status) {
		return nil, ErrValidation
	}
	if in.WorkCost.IsNegative() {
		return nil, ErrValidation
	}
	for _, sel := range selections {
		if sel.Price.IsNegative() {
			return nil, ErrValidation
		}
	}

	var o domain.WorkOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		editing := in.ID != 0
		if editing {
			if err := tx.First(&o, in.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
		}

		var clientCount int64
		if err := tx.Model(&domain.Client{}).Where("id = ?", in.ClientID).Count(&clientCount).Error; err != nil {
			return err
		}
		if clientCount == 0 {
			return ErrValidation
		}

		o.ClientID = in.ClientID
		o.PhoneModel = in.PhoneModel
		o.ProblemDescription = in.ProblemDescription
		o.ReceivedDate = in.ReceivedDate
		o.CompletionDate = in.CompletionDate
		o.Status = in.Status
		o.WorkCost = in.WorkCost

		if err := tx.Save(&o).Error; err != nil {
			return err
		}

		// Release everything first, even for an empty selection: saving an
		// edit with no parts clears all assignments.
		if editing {
			if err := tx.Model(&domain.Part{}).
				Where("work_order_id = ?", o.ID).
				Update("work_order_id", nil).Error; err != nil {
				return err
			}
		}

		for _, sel := range selections {
			res := tx.Model(&domain.Part{}).
				Where("id = ?", sel.PartID).
				Updates(map[string]any{
					"work_order_id": o.ID,
					"price":         sel.Price,
				})
			if res.Error != nil {
				return res.Error
			}
			// Unknown part ids are skipped, not an error.
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateForClient is the self-service path: the order is forced onto the
// caller's own client record, starts in Received, dated today.
func (s *Service) CreateForClient(ctx context.Context, caller domain.Caller, in ClientOrderInput) (*domain.WorkOrder, error) {
	if caller.ClientID == nil {
		return nil, ErrForbidden
	}
	if in.PhoneModel == "" {
		return nil, ErrValidation
	}

	o := domain.WorkOrder{
		ClientID:           *caller.ClientID,
		PhoneModel:         in.PhoneModel,
		ProblemDescription: in.ProblemDescription,
		ReceivedDate:       today(),
		Status:             domain.StatusReceived,
		WorkCost:           decimal.Zero,
	}
	if err := s.db.WithContext(ctx).Create(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// Delete refuses to remove an order that still has parts assigned; the
// parts must be unassigned first.
func (s *Service) Delete(ctx context.Context, caller domain.Caller, orderID int64) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o domain.WorkOrder
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var cnt int64
		if err := tx.Model(&domain.Part{}).Where("work_order_id = ?", orderID).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrHasDependentParts
		}

		return tx.Delete(&domain.WorkOrder{}, orderID).Error
	})
}

// Totals computes cost aggregates on demand so they always reflect the
// current allocation state. Arithmetic is exact decimal, never float.
func (s *Service) Totals(ctx context.Context, caller domain.Caller, orderID int64) (*Totals, error) {
	var o domain.WorkOrder
	if err := s.db.WithContext(ctx).First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.IsAdmin() && !caller.OwnsClient(o.ClientID) {
		return nil, ErrForbidden
	}

	var parts []domain.Part
	if err := s.db.WithContext(ctx).Where("work_order_id = ?", orderID).Find(&parts).Error; err != nil {
		return nil, err
	}

	partsTotal := decimal.Zero
	for _, p := range parts {
		partsTotal = partsTotal.Add(p.Price)
	}

	return &Totals{
		WorkCost:   o.WorkCost,
		PartsTotal: partsTotal,
		Total:      o.WorkCost.Add(partsTotal),
	}, nil
}

// AvailableParts lists parts selectable on the order form: warehouse stock
// plus, when editing, the order's own currently assigned parts.
func (s *Service) AvailableParts(ctx context.Context, caller domain.Caller, orderID int64) ([]domain.Part, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	q := s.db.WithContext(ctx).Model(&domain.Part{}).Order("id")
	if orderID != 0 {
		q = q.Where("work_order_id IS NULL OR work_order_id = ?", orderID)
	} else {
		q = q.Where("work_order_id IS NULL")
	}

	var parts []domain.Part
	if err := q.Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

type Stats struct {
	TotalClients    int64              `json:"total_clients"`
	ActiveOrders    int64              `json:"active_orders"`
	CompletedOrders int64              `json:"completed_orders"`
	Revenue         decimal.Decimal    `json:"revenue"`
	RecentOrders    []domain.WorkOrder `json:"recent_orders"`
	PopularParts    []PartCount        `json:"popular_parts"`
}

type PartCount struct {
	Name  string `json:"name" gorm:"column:name"`
	Count int64  `json:"count" gorm:"column:count"`
}

// Stats backs the admin dashboard. Revenue counts only issued orders:
// their work cost plus the price of parts allocated to them.
func (s *Service) Stats(ctx context.Context, caller domain.Caller) (*Stats, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	out := &Stats{Revenue: decimal.Zero}
	db := s.db.WithContext(ctx)

	if err := db.Model(&domain.Client{}).Count(&out.TotalClients).Error; err != nil {
		return nil, err
	}

	active := []domain.OrderStatus{domain.StatusReceived, domain.StatusInRepair, domain.StatusAwaitingParts}
	if err := db.Model(&domain.WorkOrder{}).Where("status IN ?", active).Count(&out.ActiveOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.WorkOrder{}).Where("status = ?", domain.StatusIssued).Count(&out.CompletedOrders).Error; err != nil {
		return nil, err
	}

	var issued []domain.WorkOrder
	if err := db.Where("status = ?", domain.StatusIssued).Find(&issued).Error; err != nil {
		return nil, err
	}
	for _, o := range issued {
		out.Revenue = out.Revenue.Add(o.WorkCost)
	}

	var issuedParts []domain.Part
	if err := db.Joins("JOIN work_orders ON work_orders.id = parts.work_order_id").
		Where("work_orders.status = ?", domain.StatusIssued).
		Find(&issuedParts).Error; err != nil {
		return nil, err
	}
	for _, p := range issuedParts {
		out.Revenue = out.Revenue.Add(p.Price)
	}

	if err := db.Preload("Client").Order("id DESC").Limit(5).Find(&out.RecentOrders).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&domain.Part{}).
		Select("name, COUNT(id) AS count").
		Group("name").
		Order("count DESC").
		Limit(5).
		Scan(&out.PopularParts).Error; err != nil {
		return nil, err
	}

	return out, nil
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
