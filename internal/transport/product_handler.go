package transport

import (
	"net/http"

	"bakery-ops/internal/middleware"
	"bakery-ops/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,notblank,max=255"`
	Category    string           `json:"category" validate:"required,oneof=Bread Pastry Cake Cookies Drinks Other"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	StockQty    *int             `json:"stockQty" validate:"required,gte=0,lte=2147483647"`
	MinStockQty *int             `json:"minStockQty" validate:"omitempty,gte=0,lte=2147483647"`
}

// UpdateProductRequest represents a partial product edit; absent fields are kept
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,notblank,max=255"`
	Category    *string          `json:"category" validate:"omitempty,oneof=Bread Pastry Cake Cookies Drinks Other"`
	Price       *decimal.Decimal `json:"price"`
	StockQty    *int             `json:"stockQty" validate:"omitempty,gte=0,lte=2147483647"`
	MinStockQty *int             `json:"minStockQty" validate:"omitempty,gte=0,lte=2147483647"`
	IsActive    *bool            `json:"isActive"`
}

// ProductHandler handles HTTP requests for the product catalogue
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
	})
}

// List returns the active products, newest first
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Create adds a product to the catalogue
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.Create(r.Context(), service.CreateProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Price:       *req.Price,
		StockQty:    *req.StockQty,
		MinStockQty: req.MinStockQty,
	})
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("name", product.Name))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update applies a partial edit to a product
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.Update(r.Context(), id, service.UpdateProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		StockQty:    req.StockQty,
		MinStockQty: req.MinStockQty,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}
