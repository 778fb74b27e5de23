package entity

import (
	"time"
)

// CustomerStatus values
const (
	CustomerStatusActive   = "active"
	CustomerStatusInactive = "inactive"
)

// Customer is a buyer the backoffice issues quotes to.
type Customer struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	Name      string     `json:"name" gorm:"size:200;not null"`
	Email     string     `json:"email" gorm:"size:100;index"`
	Phone     string     `json:"phone" gorm:"size:20"`
	Address   string     `json:"address" gorm:"size:500"`
	City      string     `json:"city" gorm:"size:100"`
	State     string     `json:"state" gorm:"size:100"`
	Status    string     `json:"status" gorm:"size:20;not null;default:active"`
	Notes     string     `json:"notes" gorm:"type:text"`
	CreatedBy string     `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`

	Quotes []Quote `json:"quotes,omitempty" gorm:"foreignKey:CustomerID"`
}

func (Customer) TableName() string {
	return "customers"
}
