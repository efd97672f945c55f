package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"bakery-ops/internal/domain"
	"bakery-ops/internal/repository"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultRecentOrders is how many orders the dashboard summary lists
const DefaultRecentOrders = 6

// Summary is the dashboard view over products and orders
type Summary struct {
	LowStockCount int                        `json:"lowStockCount"`
	TodayOrders   int                        `json:"todayOrders"`
	TodayRevenue  decimal.Decimal            `json:"todayRevenue"`
	PendingOrders int                        `json:"pendingOrders"`
	StatusCounts  map[domain.OrderStatus]int `json:"statusCounts"`
	TotalRevenue  decimal.Decimal            `json:"totalRevenue"`
	RecentOrders  []*domain.Order            `json:"recentOrders"`
	GeneratedAt   time.Time                  `json:"generatedAt"`
}

// orderLineRow is one CSV row of the orders export
type orderLineRow struct {
	OrderID      string `csv:"order_id"`
	CreatedAt    string `csv:"created_at"`
	CustomerName string `csv:"customer_name"`
	Phone        string `csv:"phone"`
	Status       string `csv:"status"`
	ProductID    string `csv:"product_id"`
	ProductName  string `csv:"product_name"`
	UnitPrice    string `csv:"unit_price"`
	Qty          int    `csv:"qty"`
	LineTotal    string `csv:"line_total"`
	OrderTotal   string `csv:"order_total"`
}

// ReportService defines the read-only reporting operations
type ReportService interface {
	Summary(ctx context.Context, recent int) (*Summary, error)
	LowStock(ctx context.Context) ([]*domain.Product, error)
	ExportOrdersCSV(ctx context.Context, w io.Writer) error
}

type reportService struct {
	store    repository.Store
	location *time.Location
	now      func() time.Time
}

// NewReportService creates a ReportService. "Today" is the calendar day in
// location.
func NewReportService(store repository.Store, location *time.Location) ReportService {
	if location == nil {
		location = time.UTC
	}
	return &reportService{
		store:    store,
		location: location,
		now:      time.Now,
	}
}

// Summary recomputes the dashboard figures from the current state
func (s *reportService) Summary(ctx context.Context, recent int) (*Summary, error) {
	if recent <= 0 {
		recent = DefaultRecentOrders
	}

	products, orders, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.location)
	summary := &Summary{
		TodayRevenue: decimal.Zero,
		TotalRevenue: decimal.Zero,
		StatusCounts: make(map[domain.OrderStatus]int, len(domain.Statuses)),
		GeneratedAt:  now,
	}
	for _, status := range domain.Statuses {
		summary.StatusCounts[status] = 0
	}

	for _, p := range products {
		if p.LowStock() {
			summary.LowStockCount++
		}
	}

	for _, o := range orders {
		summary.StatusCounts[o.Status]++
		summary.TotalRevenue = summary.TotalRevenue.Add(o.Total)
		if o.Status == domain.StatusPending {
			summary.PendingOrders++
		}
		if sameDay(o.CreatedAt.In(s.location), now) {
			summary.TodayOrders++
			summary.TodayRevenue = summary.TodayRevenue.Add(o.Total)
		}
	}

	if len(orders) < recent {
		recent = len(orders)
	}
	summary.RecentOrders = orders[:recent]

	return summary, nil
}

// LowStock lists active products at or below their threshold, least
// headroom first
func (s *reportService) LowStock(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.store.Products().List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	low := make([]*domain.Product, 0)
	for _, p := range products {
		if p.LowStock() {
			low = append(low, p)
		}
	}

	sort.SliceStable(low, func(i, j int) bool {
		hi := low[i].StockQty - low[i].MinStockQty
		hj := low[j].StockQty - low[j].MinStockQty
		if hi != hj {
			return hi < hj
		}
		return low[i].Name < low[j].Name
	})

	return low, nil
}

// ExportOrdersCSV writes one row per order line, newest order first
func (s *reportService) ExportOrdersCSV(ctx context.Context, w io.Writer) error {
	orders, err := s.store.Orders().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	rows := make([]*orderLineRow, 0, len(orders))
	for _, o := range orders {
		for _, item := range o.Items {
			rows = append(rows, &orderLineRow{
				OrderID:      o.ID.String(),
				CreatedAt:    o.CreatedAt.In(s.location).Format(time.RFC3339),
				CustomerName: o.CustomerName,
				Phone:        o.Phone,
				Status:       string(o.Status),
				ProductID:    item.ProductID.String(),
				ProductName:  item.NameSnapshot,
				UnitPrice:    item.PriceSnapshot.StringFixed(2),
				Qty:          item.Qty,
				LineTotal:    item.LineTotal().StringFixed(2),
				OrderTotal:   o.Total.StringFixed(2),
			})
		}
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write orders csv: %w", err)
	}
	return nil
}

func (s *reportService) load(ctx context.Context) ([]*domain.Product, []*domain.Order, error) {
	var (
		products []*domain.Product
		orders   []*domain.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.store.Products().List(gctx, true)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		orders, err = s.store.Orders().List(gctx)
		if err != nil {
			return fmt.Errorf("failed to list orders: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return products, orders, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
