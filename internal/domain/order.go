package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusReceived       OrderStatus = "received"
	StatusInRepair       OrderStatus = "in_repair"
	StatusAwaitingParts  OrderStatus = "awaiting_parts"
	StatusReadyForPickup OrderStatus = "ready_for_pickup"
	StatusIssued         OrderStatus = "issued"
	StatusCanceled       OrderStatus = "canceled"
)

// statusChain is the forward progression. Canceled sits outside of it and
// is reachable only from StatusReceived.
var statusChain = []OrderStatus{
	StatusReceived,
	StatusInRepair,
	StatusAwaitingParts,
	StatusReadyForPickup,
	StatusIssued,
}

// OrderStatuses lists every valid status, including Canceled.
func OrderStatuses() []OrderStatus {
	return append(append([]OrderStatus{}, statusChain...), StatusCanceled)
}

func ValidOrderStatus(s OrderStatus) bool {
	for _, v := range OrderStatuses() {
		if v == s {
			return true
		}
	}
	return false
}

// NextStatus returns the successor in the forward chain and false when the
// status is terminal (Issued), canceled, or unknown.
func NextStatus(s OrderStatus) (OrderStatus, bool) {
	for i, v := range statusChain {
		if v == s {
			if i == len(statusChain)-1 {
				return s, false
			}
			return statusChain[i+1], true
		}
	}
	return s, false
}

type WorkOrder struct {
	ID                 int64           `json:"id" gorm:"primaryKey"`
	ClientID           int64           `json:"client_id" gorm:"not null;index" validate:"required"`
	PhoneModel         string          `json:"phone_model" gorm:"size:100;not null" validate:"required"`
	ProblemDescription string          `json:"problem_description,omitempty" gorm:"type:text"`
	ReceivedDate       time.Time       `json:"received_date" gorm:"not null"`
	CompletionDate     *time.Time      `json:"completion_date,omitempty"`
	Status             OrderStatus     `json:"status" gorm:"size:50;not null;default:received;index"`
	WorkCost           decimal.Decimal `json:"work_cost" gorm:"type:decimal(10,2);not null;default:0"`

	Client *Client `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Parts  []Part  `json:"parts,omitempty" gorm:"foreignKey:WorkOrderID"`
}

func (WorkOrder) TableName() string { return "work_orders" }

// CanBeCanceled reports whether the owning client may still cancel.
func (o *WorkOrder) CanBeCanceled() bool {
	return o.Status == StatusReceived
}
