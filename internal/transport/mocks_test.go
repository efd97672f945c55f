package transport

import (
	"context"
	"io"

	"bakery-ops/internal/domain"
	"bakery-ops/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) List(ctx context.Context) ([]*domain.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]*domain.Product)
	return products, args.Error(1)
}

func (m *mockProductService) Create(ctx context.Context, input service.CreateProductInput) (*domain.Product, error) {
	args := m.Called(ctx, input)
	product, _ := args.Get(0).(*domain.Product)
	return product, args.Error(1)
}

func (m *mockProductService) Update(ctx context.Context, id uuid.UUID, input service.UpdateProductInput) (*domain.Product, error) {
	args := m.Called(ctx, id, input)
	product, _ := args.Get(0).(*domain.Product)
	return product, args.Error(1)
}

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, input service.PlaceOrderInput) (*domain.Order, error) {
	args := m.Called(ctx, input)
	order, _ := args.Get(0).(*domain.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*domain.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	args := m.Called(ctx)
	orders, _ := args.Get(0).([]*domain.Order)
	return orders, args.Error(1)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error) {
	args := m.Called(ctx, id, status)
	order, _ := args.Get(0).(*domain.Order)
	return order, args.Error(1)
}

type mockReportService struct {
	mock.Mock
}

func (m *mockReportService) Summary(ctx context.Context, recent int) (*service.Summary, error) {
	args := m.Called(ctx, recent)
	summary, _ := args.Get(0).(*service.Summary)
	return summary, args.Error(1)
}

func (m *mockReportService) LowStock(ctx context.Context) ([]*domain.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]*domain.Product)
	return products, args.Error(1)
}

func (m *mockReportService) ExportOrdersCSV(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	if csv := args.String(0); csv != "" {
		io.WriteString(w, csv)
	}
	return args.Error(1)
}
