package domain

import "github.com/shopspring/decimal"

// Part is a single inventory item. WorkOrderID is its custody marker:
// nil means warehouse stock, non-nil means allocated to that order.
type Part struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:100;not null" validate:"required"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	SupplyID    int64           `json:"supply_id" gorm:"not null;index" validate:"required"`
	WorkOrderID *int64          `json:"work_order_id,omitempty" gorm:"index"`

	Supply *Supply `json:"supply,omitempty" gorm:"foreignKey:SupplyID"`
}

func (Part) TableName() string { return "parts" }

func (p *Part) InStock() bool { return p.WorkOrderID == nil }
