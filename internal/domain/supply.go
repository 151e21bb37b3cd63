package domain

import "time"

// Supply is one batch of parts received from a supplier on a date.
type Supply struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	SupplyDate time.Time `json:"supply_date" gorm:"not null" validate:"required"`
	SupplierID int64     `json:"supplier_id" gorm:"not null;index" validate:"required"`

	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Parts    []Part    `json:"parts,omitempty" gorm:"foreignKey:SupplyID"`
}

func (Supply) TableName() string { return "supplies" }

type Supplier struct {
	ID       int64  `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"size:100;not null;uniqueIndex" validate:"required"`
	Contacts string `json:"contacts,omitempty" gorm:"type:text"`

	Supplies []Supply `json:"supplies,omitempty" gorm:"foreignKey:SupplierID"`
}

func (Supplier) TableName() string { return "suppliers" }
