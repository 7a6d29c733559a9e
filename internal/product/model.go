package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a row in one store's products table. Price is fixed-precision;
// description may be NULL. The store assigns the id and both timestamps at
// insert.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Description *string         `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}
