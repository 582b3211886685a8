package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCreator  UserRole = "creator"
	RoleBusiness UserRole = "business"
)

func (r UserRole) Valid() bool {
	return r == RoleCreator || r == RoleBusiness
}

// UserProfile is the local record for a Clerk user.
// ID is the Clerk user id, populated by the Clerk webhook or lazily on first request.
type UserProfile struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email         string    `gorm:"index" json:"email"`
	Username      string    `gorm:"index" json:"username"`
	Role          *UserRole `gorm:"type:varchar(16)" json:"role,omitempty"` // nil until onboarding
	TotalEarnings float64   `gorm:"not null;default:0" json:"total_earnings"`
	WalletBalance float64   `gorm:"not null;default:0" json:"wallet_balance"`
	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *UserProfile) HasRole(role UserRole) bool {
	return u.Role != nil && *u.Role == role
}
