package domain

import "strings"

type Client struct {
	ID         int64  `json:"id" gorm:"primaryKey"`
	LastName   string `json:"last_name" gorm:"size:50;not null" validate:"required"`
	FirstName  string `json:"first_name" gorm:"size:50;not null" validate:"required"`
	MiddleName string `json:"middle_name,omitempty" gorm:"size:50"`
	Phone      string `json:"phone,omitempty" gorm:"size:20;uniqueIndex"`

	Orders []WorkOrder `json:"orders,omitempty" gorm:"foreignKey:ClientID"`
	User   *User       `json:"user,omitempty" gorm:"foreignKey:ClientID"`
}

func (Client) TableName() string { return "clients" }

func (c *Client) FullName() string {
	return strings.TrimSpace(c.LastName + " " + c.FirstName + " " + c.MiddleName)
}
