package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"bakery-ops/internal/domain"
	"bakery-ops/internal/events"
	"bakery-ops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// mockStore keeps products and orders in memory. Transactions are
// serialised and restore a snapshot when fn fails.
type mockStore struct {
	mu   *sync.Mutex
	txMu *sync.Mutex
	data *mockData
	inTx bool

	// failOrderCreate makes Orders().Create fail with this error
	failOrderCreate error
	// onLock runs at the start of every LockByIDs call
	onLock func()
}

type mockData struct {
	products map[uuid.UUID]*domain.Product
	orders   map[uuid.UUID]*domain.Order
}

func newMockStore() *mockStore {
	return &mockStore{
		mu:   &sync.Mutex{},
		txMu: &sync.Mutex{},
		data: &mockData{
			products: make(map[uuid.UUID]*domain.Product),
			orders:   make(map[uuid.UUID]*domain.Order),
		},
	}
}

func (d *mockData) clone() *mockData {
	c := &mockData{
		products: make(map[uuid.UUID]*domain.Product, len(d.products)),
		orders:   make(map[uuid.UUID]*domain.Order, len(d.orders)),
	}
	for id, p := range d.products {
		c.products[id] = copyProduct(p)
	}
	for id, o := range d.orders {
		c.orders[id] = copyOrder(o)
	}
	return c
}

func copyProduct(p *domain.Product) *domain.Product {
	c := *p
	return &c
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return &c
}

func (s *mockStore) Products() repository.ProductRepository {
	return &mockProductRepository{store: s}
}

func (s *mockStore) Orders() repository.OrderRepository {
	return &mockOrderRepository{store: s}
}

func (s *mockStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	tx := *s
	tx.inTx = true
	if err := fn(&tx); err != nil {
		s.mu.Lock()
		*s.data = *snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// seed stores a product directly and returns a copy of it
func (s *mockStore) seed(name, price string, stock, minStock int) *domain.Product {
	now := time.Now().UTC()
	p := &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Category:    domain.CategoryPastry,
		Price:       decimal.RequireFromString(price),
		StockQty:    stock,
		MinStockQty: minStock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.data.products[p.ID] = copyProduct(p)
	s.mu.Unlock()
	return p
}

func (s *mockStore) stockOf(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.products[id].StockQty
}

func (s *mockStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

type mockProductRepository struct {
	store *mockStore
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.data.products[product.ID] = copyProduct(product)
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.data.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.store.data.products[product.ID] = copyProduct(product)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.data.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return copyProduct(p), nil
}

func (m *mockProductRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Product, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	products := make([]*domain.Product, 0, len(m.store.data.products))
	for _, p := range m.store.data.products {
		if activeOnly && !p.IsActive {
			continue
		}
		products = append(products, copyProduct(p))
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (m *mockProductRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	if m.store.onLock != nil {
		m.store.onLock()
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	locked := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.store.data.products[id]; ok {
			locked[id] = copyProduct(p)
		}
	}
	return locked, nil
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int, at time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.data.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.StockQty < qty {
		return repository.ErrInsufficientStock
	}
	p.StockQty -= qty
	p.UpdatedAt = at
	return nil
}

type mockOrderRepository struct {
	store *mockStore
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.store.failOrderCreate != nil {
		return m.store.failOrderCreate
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.data.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	o, ok := m.store.data.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (m *mockOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	orders := make([]*domain.Order, 0, len(m.store.data.orders))
	for _, o := range m.store.data.orders {
		orders = append(orders, copyOrder(o))
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, at time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	o, ok := m.store.data.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	return nil
}

// recordingPublisher captures events instead of sending them
type recordingPublisher struct {
	mu            sync.Mutex
	placed        []uuid.UUID
	statusChanges []events.StatusChange
	lowStock      []uuid.UUID
}

func (p *recordingPublisher) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, order.ID)
	return nil
}

func (p *recordingPublisher) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, previous domain.OrderStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusChanges = append(p.statusChanges, events.StatusChange{OrderID: order.ID, Previous: previous, Current: order.Status})
	return nil
}

func (p *recordingPublisher) PublishLowStock(ctx context.Context, product *domain.Product) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lowStock = append(p.lowStock, product.ID)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// tickingClock returns a strictly increasing time on every call
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}
