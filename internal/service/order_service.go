package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bakery-ops/internal/domain"
	"bakery-ops/internal/events"
	"bakery-ops/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("bakery-ops/internal/service")

// OrderLineInput is one requested product and quantity
type OrderLineInput struct {
	ProductID uuid.UUID
	Qty       int
}

// PlaceOrderInput is a customer cart
type PlaceOrderInput struct {
	CustomerName string
	Phone        string
	Items        []OrderLineInput
}

// OrderService defines the interface for order business logic
type OrderService interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error)
}

type orderService struct {
	store     repository.Store
	publisher events.Publisher
	workflow  *domain.StatusWorkflow
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	store repository.Store,
	publisher events.Publisher,
	workflow *domain.StatusWorkflow,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		store:     store,
		publisher: publisher,
		workflow:  workflow,
		logger:    logger,
		now:       time.Now,
	}
}

// PlaceOrder checks stock, snapshots prices, decrements inventory and
// records the order as one all-or-nothing unit
func (s *orderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.PlaceOrder",
		trace.WithAttributes(attribute.Int("order.lines", len(input.Items))))
	defer span.End()

	customerName := strings.TrimSpace(input.CustomerName)
	phone := strings.TrimSpace(input.Phone)
	if err := validateCart(customerName, phone, input.Items); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var (
		order    *domain.Order
		lowStock []*domain.Product
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		// The closure may be re-run after a transient conflict.
		order, lowStock = nil, nil

		ids := make([]uuid.UUID, 0, len(input.Items))
		for _, line := range input.Items {
			ids = append(ids, line.ProductID)
		}

		locked, err := tx.Products().LockByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to lock products: %w", err)
		}

		now := s.now().UTC()
		items := make([]domain.OrderItem, 0, len(input.Items))

		for _, line := range input.Items {
			product, ok := locked[line.ProductID]
			if !ok {
				return &NotFoundError{Resource: "product", ID: line.ProductID}
			}

			if product.StockQty < line.Qty {
				return insufficientStock(product, line.Qty)
			}

			item := domain.OrderItem{
				ProductID:     product.ID,
				NameSnapshot:  product.Name,
				PriceSnapshot: product.Price,
				Qty:           line.Qty,
			}

			if err := tx.Products().DecrementStock(ctx, product.ID, line.Qty, now); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return insufficientStock(product, line.Qty)
				}
				return fmt.Errorf("failed to decrement stock: %w", err)
			}

			product.StockQty -= line.Qty
			product.UpdatedAt = now
			if product.IsActive && product.LowStock() {
				lowStock = append(lowStock, product)
			}

			items = append(items, item)
		}

		total := domain.ComputeTotal(items)
		if total.GreaterThan(domain.MaxOrderTotal) {
			return newValidationError("items", "Order total must be <= %s", domain.MaxOrderTotal.StringFixed(2))
		}

		placed := &domain.Order{
			ID:           uuid.New(),
			CustomerName: customerName,
			Phone:        phone,
			Items:        items,
			Total:        total,
			Status:       domain.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := tx.Orders().Create(ctx, placed); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		order = placed
		return nil
	})
	if err != nil {
		// Rejected carts are not recorded as span errors.
		if !IsValidation(err) && !IsNotFound(err) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("order.total", order.Total.StringFixed(2)),
	)

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.Int("lines", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)),
	)

	if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.Warn("Failed to publish order placed event", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
	for _, product := range lowStock {
		if err := s.publisher.PublishLowStock(ctx, product); err != nil {
			s.logger.Warn("Failed to publish low stock event", zap.String("product_id", product.ID.String()), zap.Error(err))
		}
	}

	return order, nil
}

// GetOrder retrieves a single order with its items
func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, &NotFoundError{Resource: "order", ID: id}
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return order, nil
}

// ListOrders returns every order, newest first
func (s *orderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.store.Orders().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order to a new status. Re-applying the current
// status succeeds and leaves the order as it was.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error) {
	next := domain.OrderStatus(status)
	if !next.Valid() {
		return nil, newValidationError("status", "Invalid status: %q", status)
	}

	var (
		order    *domain.Order
		previous domain.OrderStatus
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Orders().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return &NotFoundError{Resource: "order", ID: id}
			}
			return fmt.Errorf("failed to find order: %w", err)
		}

		if !s.workflow.CanTransition(current.Status, next) {
			return newValidationError("status", "Cannot move order from %s to %s", current.Status, next)
		}

		now := s.now().UTC()
		if err := tx.Orders().UpdateStatus(ctx, id, next, now); err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return &NotFoundError{Resource: "order", ID: id}
			}
			return fmt.Errorf("failed to update order status: %w", err)
		}

		previous = current.Status
		current.Status = next
		current.UpdatedAt = now
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != next {
		if err := s.publisher.PublishOrderStatusChanged(ctx, order, previous); err != nil {
			s.logger.Warn("Failed to publish status change event", zap.String("order_id", id.String()), zap.Error(err))
		}
	}

	return order, nil
}

func validateCart(customerName, phone string, items []OrderLineInput) error {
	if customerName == "" {
		return newValidationError("customerName", "Customer name is required")
	}
	if utf8.RuneCountInString(customerName) > domain.MaxNameLength {
		return newValidationError("customerName", "Customer name must be at most %d characters", domain.MaxNameLength)
	}
	if utf8.RuneCountInString(phone) > domain.MaxPhoneLength {
		return newValidationError("phone", "Phone must be at most %d characters", domain.MaxPhoneLength)
	}
	if len(items) == 0 {
		return newValidationError("items", "Order must contain at least one item")
	}

	seen := make(map[uuid.UUID]bool, len(items))
	for i, line := range items {
		if line.Qty <= 0 {
			return newValidationError(fmt.Sprintf("items[%d].qty", i), "Quantity must be at least 1")
		}
		if line.Qty > domain.MaxQuantity {
			return newValidationError(fmt.Sprintf("items[%d].qty", i), "Quantity must be <= %d", domain.MaxQuantity)
		}
		if seen[line.ProductID] {
			return newValidationError(fmt.Sprintf("items[%d].productId", i), "Product %s appears more than once", line.ProductID)
		}
		seen[line.ProductID] = true
	}
	return nil
}

func insufficientStock(product *domain.Product, requested int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Available:   product.StockQty,
		Requested:   requested,
	}
}
