package jobs

import (
	"context"
	"time"

	"bakery-ops/internal/domain"
	"bakery-ops/internal/events"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// LowStockSource lists the active products at or below their threshold
type LowStockSource interface {
	LowStock(ctx context.Context) ([]*domain.Product, error)
}

// LowStockMonitor periodically scans inventory and announces products that
// have dropped to their threshold. Announcements go through the same gate as
// order placement, so a product is announced once per dip: it must recover
// above its minimum before it is announced again.
type LowStockMonitor struct {
	source  LowStockSource
	gate    *events.LowStockGate
	logger  *zap.Logger
	timeout time.Duration

	sched *cron.Cron
}

// NewLowStockMonitor creates a monitor running on the given location's clock
func NewLowStockMonitor(source LowStockSource, gate *events.LowStockGate, location *time.Location, logger *zap.Logger) *LowStockMonitor {
	if location == nil {
		location = time.UTC
	}
	return &LowStockMonitor{
		source:  source,
		gate:    gate,
		logger:  logger,
		timeout: 30 * time.Second,
		sched:   cron.New(cron.WithLocation(location), cron.WithParser(cronParser)),
	}
}

// Start schedules the scan, e.g. "@every 15m" or "0 */10 * * * *"
func (m *LowStockMonitor) Start(schedule string) error {
	_, err := m.sched.AddFunc(schedule, func() {
		defer func() {
			if err := recover(); err != nil {
				m.logger.Error("Low stock scan panicked", zap.Any("error", err))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		if _, err := m.RunOnce(ctx); err != nil {
			m.logger.Error("Low stock scan failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	m.sched.Start()
	m.logger.Info("Low stock monitor started", zap.String("schedule", schedule))
	return nil
}

// Stop halts scheduling and returns a context done once a running scan ends
func (m *LowStockMonitor) Stop() context.Context {
	return m.sched.Stop()
}

// RunOnce performs a single scan and returns the products newly announced
func (m *LowStockMonitor) RunOnce(ctx context.Context) ([]*domain.Product, error) {
	low, err := m.source.LowStock(ctx)
	if err != nil {
		return nil, err
	}

	// Forget products that have been restocked.
	m.gate.Settle(low)

	var announced []*domain.Product
	for _, p := range low {
		sent, err := m.gate.Announce(ctx, p)
		if err != nil {
			// Still eligible, so the next scan retries it.
			m.logger.Warn("Failed to publish low stock event", zap.String("product_id", p.ID.String()), zap.Error(err))
			continue
		}
		if !sent {
			continue
		}
		announced = append(announced, p)

		m.logger.Warn("Product low on stock",
			zap.String("product_id", p.ID.String()),
			zap.String("name", p.Name),
			zap.Int("stock_qty", p.StockQty),
			zap.Int("min_stock_qty", p.MinStockQty),
		)
	}

	return announced, nil
}
