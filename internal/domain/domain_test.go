package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// Feature: bakery-orders, Property 3: Order total equals the sum of snapshot line totals
func TestProperty_ComputeTotalSumsLineTotals(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total is the sum of priceSnapshot * qty", prop.ForAll(
		func(cents []int64, qty int) bool {
			items := make([]OrderItem, 0, len(cents))
			var expectedCents int64
			for _, c := range cents {
				items = append(items, OrderItem{
					ProductID:     uuid.New(),
					PriceSnapshot: decimal.New(c, -2),
					Qty:           qty,
				})
				expectedCents += c * int64(qty)
			}

			total := ComputeTotal(items)
			if !total.Equal(decimal.New(expectedCents, -2)) {
				t.Logf("FAIL: expected %d cents, got %s", expectedCents, total)
				return false
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(0, 100000)),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestComputeTotal_CroissantExample(t *testing.T) {
	items := []OrderItem{{NameSnapshot: "Croissant", PriceSnapshot: decimal.RequireFromString("3.50"), Qty: 3}}

	total := ComputeTotal(items)
	if !total.Equal(decimal.RequireFromString("10.50")) {
		t.Errorf("expected total 10.50, got %s", total)
	}
}

func TestProductLowStock(t *testing.T) {
	cases := []struct {
		stock, min int
		low        bool
	}{
		{stock: 10, min: 5, low: false},
		{stock: 5, min: 5, low: true},
		{stock: 0, min: 0, low: true},
		{stock: 1, min: 0, low: false},
	}

	for _, c := range cases {
		p := &Product{StockQty: c.stock, MinStockQty: c.min}
		if p.LowStock() != c.low {
			t.Errorf("stock=%d min=%d: expected low=%v", c.stock, c.min, c.low)
		}
	}
}

func TestCategoryAndStatusValidation(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("category %s should be valid", c)
		}
	}
	if Category("Pizza").Valid() {
		t.Error("Pizza should not be a valid category")
	}

	for _, s := range Statuses {
		if !s.Valid() {
			t.Errorf("status %s should be valid", s)
		}
	}
	if OrderStatus("Cancelled").Valid() || OrderStatus("pending").Valid() {
		t.Error("unknown or differently cased statuses must be rejected")
	}
}

func TestPermissiveWorkflowAllowsEveryMove(t *testing.T) {
	w := PermissiveWorkflow()
	for _, from := range Statuses {
		for _, to := range Statuses {
			if !w.CanTransition(from, to) {
				t.Errorf("expected %s -> %s to be allowed", from, to)
			}
		}
	}
	if w.CanTransition("Lost", StatusPending) {
		t.Error("unknown source status must not transition")
	}
}

func TestStrictWorkflowOnlyMovesForward(t *testing.T) {
	w := StrictWorkflow()

	allowed := [][2]OrderStatus{
		{StatusPending, StatusBaking},
		{StatusBaking, StatusReady},
		{StatusReady, StatusDelivered},
		{StatusReady, StatusReady},
	}
	for _, pair := range allowed {
		if !w.CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	rejected := [][2]OrderStatus{
		{StatusPending, StatusReady},
		{StatusDelivered, StatusPending},
		{StatusBaking, StatusPending},
	}
	for _, pair := range rejected {
		if w.CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
}

func TestMoneyEncodesAsJSONNumber(t *testing.T) {
	p := Product{Name: "Croissant", Price: decimal.RequireFromString("3.50")}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if price, ok := raw["price"].(float64); !ok || price != 3.5 {
		t.Errorf("expected numeric price 3.5, got %#v", raw["price"])
	}
}
