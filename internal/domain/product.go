package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// The client reads money as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultMinStockQty is the low-stock threshold applied when none is given
const DefaultMinStockQty = 5

// Column limits of the products and orders tables
const (
	MaxNameLength  = 255
	MaxPhoneLength = 64
	MaxQuantity    = math.MaxInt32
)

var (
	// MaxPrice is the largest NUMERIC(10,2) value
	MaxPrice = decimal.RequireFromString("99999999.99")
	// MaxOrderTotal is the largest NUMERIC(12,2) value
	MaxOrderTotal = decimal.RequireFromString("9999999999.99")
)

// Category is the fixed set of product groups a bakery sells
type Category string

const (
	CategoryBread   Category = "Bread"
	CategoryPastry  Category = "Pastry"
	CategoryCake    Category = "Cake"
	CategoryCookies Category = "Cookies"
	CategoryDrinks  Category = "Drinks"
	CategoryOther   Category = "Other"
)

// Categories lists every valid category in display order
var Categories = []Category{
	CategoryBread,
	CategoryPastry,
	CategoryCake,
	CategoryCookies,
	CategoryDrinks,
	CategoryOther,
}

// Valid reports whether c is one of the enumerated categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents an item on the bakery shelf
type Product struct {
	ID          uuid.UUID       `json:"_id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Category    Category        `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	StockQty    int             `json:"stockQty" db:"stock_qty"`
	MinStockQty int             `json:"minStockQty" db:"min_stock_qty"`
	IsActive    bool            `json:"isActive" db:"is_active"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// LowStock reports whether the product has reached its minimum stock threshold
func (p *Product) LowStock() bool {
	return p.StockQty <= p.MinStockQty
}
