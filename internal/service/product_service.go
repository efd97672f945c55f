package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bakery-ops/internal/domain"
	"bakery-ops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductInput carries a new catalogue entry. A nil MinStockQty
// selects the default threshold.
type CreateProductInput struct {
	Name        string
	Category    string
	Price       decimal.Decimal
	StockQty    int
	MinStockQty *int
}

// UpdateProductInput is a partial edit; nil fields are left alone
type UpdateProductInput struct {
	Name        *string
	Category    *string
	Price       *decimal.Decimal
	StockQty    *int
	MinStockQty *int
	IsActive    *bool
}

// ProductService defines the interface for catalogue business logic
type ProductService interface {
	List(ctx context.Context) ([]*domain.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
}

type productService struct {
	store repository.Store
	now   func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(store repository.Store) ProductService {
	return &productService{
		store: store,
		now:   time.Now,
	}
}

// List returns the active products, newest first
func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.store.Products().List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Create validates and stores a new product
func (s *productService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	minStock := domain.DefaultMinStockQty
	if input.MinStockQty != nil {
		minStock = *input.MinStockQty
	}

	now := s.now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Category:    domain.Category(input.Category),
		Price:       input.Price,
		StockQty:    input.StockQty,
		MinStockQty: minStock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Update applies a partial edit. Orders already placed keep their snapshots.
// The row is locked for the read-modify-write so a concurrent order's stock
// decrement is never written over.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	var updated *domain.Product

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		updated = nil

		locked, err := tx.Products().LockByIDs(ctx, []uuid.UUID{id})
		if err != nil {
			return fmt.Errorf("failed to lock product: %w", err)
		}
		product, ok := locked[id]
		if !ok {
			return &NotFoundError{Resource: "product", ID: id}
		}

		if input.Name != nil {
			product.Name = strings.TrimSpace(*input.Name)
		}
		if input.Category != nil {
			product.Category = domain.Category(*input.Category)
		}
		if input.Price != nil {
			product.Price = *input.Price
		}
		if input.StockQty != nil {
			product.StockQty = *input.StockQty
		}
		if input.MinStockQty != nil {
			product.MinStockQty = *input.MinStockQty
		}
		if input.IsActive != nil {
			product.IsActive = *input.IsActive
		}

		if err := validateProduct(product); err != nil {
			return err
		}

		product.UpdatedAt = s.now().UTC()
		if err := tx.Products().Update(ctx, product); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return &NotFoundError{Resource: "product", ID: id}
			}
			return fmt.Errorf("failed to update product: %w", err)
		}

		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func validateProduct(p *domain.Product) error {
	if p.Name == "" {
		return newValidationError("name", "Product name is required")
	}
	if utf8.RuneCountInString(p.Name) > domain.MaxNameLength {
		return newValidationError("name", "Product name must be at most %d characters", domain.MaxNameLength)
	}
	if !p.Category.Valid() {
		return newValidationError("category", "Invalid category: %s", p.Category)
	}
	if p.Price.IsNegative() {
		return newValidationError("price", "Price must be >= 0")
	}
	if p.Price.GreaterThan(domain.MaxPrice) {
		return newValidationError("price", "Price must be <= %s", domain.MaxPrice.StringFixed(2))
	}
	if !p.Price.Equal(p.Price.Round(2)) {
		return newValidationError("price", "Price must have at most 2 decimal places")
	}
	if p.StockQty < 0 {
		return newValidationError("stockQty", "Stock quantity must be >= 0")
	}
	if p.StockQty > domain.MaxQuantity {
		return newValidationError("stockQty", "Stock quantity must be <= %d", domain.MaxQuantity)
	}
	if p.MinStockQty < 0 {
		return newValidationError("minStockQty", "Minimum stock quantity must be >= 0")
	}
	if p.MinStockQty > domain.MaxQuantity {
		return newValidationError("minStockQty", "Minimum stock quantity must be <= %d", domain.MaxQuantity)
	}
	return nil
}
