package entity

import (
	"time"
)

// Product is a catalog entry. Price is the provider cost; Utility is the
// margin percent applied on top of it when quoting. PackageUnit is the
// minimum purchasable multiple (1 for products sold loose).
type Product struct {
	ID              string     `json:"id" gorm:"primaryKey;size:32"`
	SKU             string     `json:"sku" gorm:"size:64;not null;uniqueIndex"`
	Description     string     `json:"description" gorm:"size:256;not null"`
	Category        string     `json:"category" gorm:"size:64;index"`
	Provider        string     `json:"provider" gorm:"size:128"`
	MeasurementUnit string     `json:"measurement_unit" gorm:"size:16"`
	PackageUnit     float64    `json:"package_unit" gorm:"not null;default:1"`
	Price           float64    `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	Utility         float64    `json:"utility" gorm:"type:decimal(5,2);not null;default:0"`
	Spec            JSONB      `json:"spec" gorm:"type:jsonb"`
	PhotoURL        string     `json:"photo_url" gorm:"size:512"`
	CreatedBy       string     `json:"created_by" gorm:"size:32"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at" gorm:"index"`
}

func (Product) TableName() string {
	return "products"
}
