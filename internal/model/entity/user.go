package entity

import (
	"time"
)

// User roles
const (
	RoleAdmin  = "admin"
	RoleSeller = "seller"
)

// UserStatus values
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User is a backoffice operator profile.
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	FullName     string     `json:"full_name" gorm:"size:128;not null"`
	Email        string     `json:"email" gorm:"size:100;not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"size:128;not null"`
	Role         string     `json:"role" gorm:"size:20;not null;default:seller"`
	Status       string     `json:"status" gorm:"size:20;not null;default:active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`
}

func (User) TableName() string {
	return "user_profiles"
}
