package entity

import (
	"time"
)

// QuoteStatus values. The status is a flat enum set by callers; there is no
// transition machine enforcing ordering.
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusOpen     = "open"
	QuoteStatusSent     = "sent"
	QuoteStatusAccepted = "accepted"
	QuoteStatusRejected = "rejected"
	QuoteStatusExpired  = "expired"
	QuoteStatusArchived = "archived"
)

// DiscountType values for quote items.
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Quote is a price quotation for a customer. AccessToken holds the signed
// token last issued for public access; overwriting it revokes previously
// shared links. ExpirationDate mirrors the token's expiry claim.
type Quote struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	CustomerID     string     `json:"customer_id" gorm:"size:32;not null;index"`
	Status         string     `json:"status" gorm:"size:16;not null;default:open"`
	Total          float64    `json:"total" gorm:"type:decimal(12,2);not null;default:0"`
	AccessToken    string     `json:"access_token" gorm:"size:512"`
	ExpirationDate *time.Time `json:"expiration_date"`
	Notes          string     `json:"notes" gorm:"type:text"`
	CreatedBy      string     `json:"created_by" gorm:"size:32"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at" gorm:"index"`

	Customer *Customer   `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items    []QuoteItem `json:"items,omitempty" gorm:"foreignKey:QuoteID"`
}

func (Quote) TableName() string {
	return "quotes"
}

// QuoteItem is a derived line item. All monetary and quantity fields are
// recomputed in full from the referenced product whenever the line changes;
// only the stored subtotals survive as history once the product moves.
type QuoteItem struct {
	ID               string  `json:"id" gorm:"primaryKey;size:32"`
	QuoteID          string  `json:"quote_id" gorm:"size:32;not null;index"`
	ProductID        string  `json:"product_id" gorm:"size:32;not null;index"`
	RequiredQuantity float64 `json:"required_quantity" gorm:"not null"`
	TotalQuantity    float64 `json:"total_quantity" gorm:"not null"`
	PackagesRequired float64 `json:"packages_required" gorm:"not null"`
	PricePerPackage  float64 `json:"price_per_package" gorm:"type:decimal(12,2);not null"`
	OriginalSubtotal float64 `json:"original_subtotal" gorm:"type:decimal(12,2);not null"`
	Subtotal         float64 `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	Discount         float64 `json:"discount" gorm:"type:decimal(12,2);not null;default:0"`
	DiscountType     string  `json:"discount_type" gorm:"size:16"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (QuoteItem) TableName() string {
	return "quote_items"
}
