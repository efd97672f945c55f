package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bakery-ops/internal/config"
	"bakery-ops/internal/database"
	"bakery-ops/internal/domain"
	"bakery-ops/internal/events"
	"bakery-ops/internal/jobs"
	custommiddleware "bakery-ops/internal/middleware"
	"bakery-ops/internal/repository"
	"bakery-ops/internal/service"
	"bakery-ops/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const banner = "Bakery API running 🍞"

// HealthChecker reports the state of a backing store
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// RouteRegistrar mounts a group of routes onto the router
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// Dependencies are the external resources the server takes ownership of
type Dependencies struct {
	DB        database.Service
	Redis     *redis.Client // nil disables rate limiting
	Publisher events.Publisher
}

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	deps    Dependencies
	monitor *jobs.LowStockMonitor
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) (*Server, error) {
	location, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Server.Timezone, err)
	}

	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	// Placement and the scheduled scan share one once-per-dip gate.
	publisher := events.NewLowStockGate(deps.Publisher)

	workflow := domain.PermissiveWorkflow()
	if cfg.Orders.StrictWorkflow {
		workflow = domain.StrictWorkflow()
	}

	// Initialize repositories
	store := repository.NewStore(deps.DB.DB())

	// Initialize services
	productService := service.NewProductService(store)
	orderService := service.NewOrderService(store, publisher, workflow, logger)
	reportService := service.NewReportService(store, location)

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	reportHandler := transport.NewReportHandler(reportService, cfg.Orders.RecentLimit, logger)

	var limiter redis.Cmdable
	if cfg.RateLimit.Enabled && deps.Redis != nil {
		limiter = deps.Redis
	}

	router := NewRouter(cfg, logger, deps.DB, limiter, productHandler, orderHandler, reportHandler)

	var monitor *jobs.LowStockMonitor
	if cfg.Jobs.LowStockSchedule != "" {
		monitor = jobs.NewLowStockMonitor(reportService, publisher, location, logger)
		if err := monitor.Start(cfg.Jobs.LowStockSchedule); err != nil {
			return nil, fmt.Errorf("failed to start low stock monitor: %w", err)
		}
	}

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      otelhttp.NewHandler(router, "bakery-api"),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		deps:    deps,
		monitor: monitor,
	}

	return server, nil
}

// NewRouter assembles the middleware chain and mounts the API routes.
// A nil limiter leaves the API unthrottled.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	health HealthChecker,
	limiter redis.Cmdable,
	registrars ...RouteRegistrar,
) http.Handler {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(banner))
	})

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := health.Health(r.Context())
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, stats)
	})

	router.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(custommiddleware.RateLimitMiddleware(limiter, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
				Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
				KeyPrefix:         "ratelimit:api",
			}, logger))
		}
		for _, registrar := range registrars {
			registrar.RegisterRoutes(r)
		}
	})

	return router
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.monitor != nil {
		ctx := s.monitor.Stop()
		select {
		case <-ctx.Done():
		case <-time.After(10 * time.Second):
			s.logger.Warn("Low stock scan still running at shutdown")
		}
	}

	if err := s.deps.Publisher.Close(); err != nil {
		s.logger.Error("Failed to close event publisher", zap.Error(err))
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
