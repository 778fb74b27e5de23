package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a row does not exist or is soft-deleted.
var ErrNotFound = errors.New("record not found")

// Repositories bundles all persistence access for injection.
type Repositories struct {
	User     *UserRepository
	Customer *CustomerRepository
	Product  *ProductRepository
	Quote    *QuoteRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Customer: NewCustomerRepository(db),
		Product:  NewProductRepository(db),
		Quote:    NewQuoteRepository(db),
	}
}
