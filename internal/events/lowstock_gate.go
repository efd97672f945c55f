package events

import (
	"context"
	"sync"

	"bakery-ops/internal/domain"

	"github.com/google/uuid"
)

// LowStockGate wraps a Publisher so product.low_stock goes out once per dip,
// whether order placement or the periodic scan notices it first. A product
// is eligible again once a scan no longer lists it as low.
type LowStockGate struct {
	Publisher

	mu       sync.Mutex
	reported map[uuid.UUID]bool
}

// NewLowStockGate wraps next
func NewLowStockGate(next Publisher) *LowStockGate {
	return &LowStockGate{
		Publisher: next,
		reported:  make(map[uuid.UUID]bool),
	}
}

// PublishLowStock forwards the event unless the current dip was already announced
func (g *LowStockGate) PublishLowStock(ctx context.Context, product *domain.Product) error {
	_, err := g.Announce(ctx, product)
	return err
}

// Announce is PublishLowStock that also reports whether the event was sent.
// A failed publish leaves the product eligible.
func (g *LowStockGate) Announce(ctx context.Context, product *domain.Product) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.reported[product.ID] {
		return false, nil
	}
	if err := g.Publisher.PublishLowStock(ctx, product); err != nil {
		return false, err
	}
	g.reported[product.ID] = true
	return true, nil
}

// Settle forgets every announced product missing from low, the complete
// current low-stock list
func (g *LowStockGate) Settle(low []*domain.Product) {
	current := make(map[uuid.UUID]bool, len(low))
	for _, p := range low {
		current[p.ID] = true
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for id := range g.reported {
		if !current[id] {
			delete(g.reported, id)
		}
	}
}
