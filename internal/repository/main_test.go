package repository

import (
	"context"
	"database/sql"
	"log"
	"testing"
	"time"

	"bakery-ops/internal/database"
	"bakery-ops/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := dbContainer.ConnectionString(context.Background(), "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}

	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	if err := database.RunMigrations(testDB, zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

// seedProduct stores an active product with the given price and stock
func seedProduct(t *testing.T, name, price string, stock int) *domain.Product {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Category:    domain.CategoryPastry,
		Price:       decimal.RequireFromString(price),
		StockQty:    stock,
		MinStockQty: domain.DefaultMinStockQty,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := NewProductRepository(testDB).Create(context.Background(), product); err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}

	return product
}

func stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()

	product, err := NewProductRepository(testDB).FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to reload product: %v", err)
	}
	return product.StockQty
}
