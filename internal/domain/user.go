package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Role is a reference table, seeded once with "admin" and "client".
type Role struct {
	ID   int64  `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:20;not null;uniqueIndex"`
}

func (Role) TableName() string { return "roles" }

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"size:120;not null;uniqueIndex" validate:"required,email"`
	PasswordHash string    `json:"-" gorm:"size:256;not null"`
	RoleID       int64     `json:"role_id" gorm:"not null;index"`
	ClientID     *int64    `json:"client_id,omitempty" gorm:"uniqueIndex"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`

	Role   *Role   `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	Client *Client `json:"client,omitempty" gorm:"foreignKey:ClientID"`
}

func (User) TableName() string { return "user_accounts" }

// RoleName returns the role string, tolerating a missing preload.
func (u *User) RoleName() string {
	if u.Role != nil {
		return u.Role.Name
	}
	return ""
}

func (u *User) DisplayName() string {
	if u.Client != nil {
		return u.Client.FullName()
	}
	return u.Email
}
