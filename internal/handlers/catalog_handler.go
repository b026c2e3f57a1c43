package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/httperr"
	"github.com/BruksfildServices01/barber-manager/internal/httpresp"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CatalogHandler manages the services offered on the agenda and the retail
// products sold over the counter.
type CatalogHandler struct {
	db    *gorm.DB
	audit audit.Recorder
}

func NewCatalogHandler(db *gorm.DB, a audit.Recorder) *CatalogHandler {
	return &CatalogHandler{db: db, audit: a}
}

// --------- Requests ---------

type CreateServiceRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	DurationMin int             `json:"duration_min" binding:"required,min=1"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
}

type UpdateServiceRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	DurationMin *int             `json:"duration_min,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Active      *bool            `json:"active,omitempty"`
}

type CreateProductRequest struct {
	Name           string          `json:"name" binding:"required"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

type UpdateProductRequest struct {
	Name           *string          `json:"name,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
	Active         *bool            `json:"active,omitempty"`
}

type AdjustStockRequest struct {
	// Positive for a delivery, negative for losses.
	Delta int    `json:"delta" binding:"required"`
	Notes string `json:"notes"`
}

func (h *CatalogHandler) record(c *gin.Context, action, entity string, id uint, meta any) {
	actor := middleware.Actor(c)
	h.audit.Dispatch(audit.Event{
		BarbershopID: actor.BarbershopID,
		UserID:       &actor.UserID,
		Action:       action,
		Entity:       entity,
		EntityID:     &id,
		Metadata:     meta,
	})
}

// ======================================================
// SERVICES
// ======================================================

func (h *CatalogHandler) ListServices(c *gin.Context) {
	barbershopID := middleware.Actor(c).BarbershopID

	category := strings.ToLower(strings.TrimSpace(c.Query("category")))
	activeStr := strings.TrimSpace(c.Query("active"))
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.WithContext(c.Request.Context()).Where("barbershop_id = ?", barbershopID)

	if category != "" {
		q = q.Where("LOWER(category) = ?", category)
	}
	switch activeStr {
	case "true":
		q = q.Where("active = ?", true)
	case "false":
		q = q.Where("active = ?", false)
	}
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var services []models.Service
	if err := q.Order("id ASC").Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "Erro ao listar serviços.")
		return
	}

	httpresp.List(c, services)
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	if req.Price.IsNegative() {
		httperr.BadRequest(c, "invalid_price", "Preço inválido.")
		return
	}

	service := models.Service{
		BarbershopID: middleware.Actor(c).BarbershopID,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		DurationMin:  req.DurationMin,
		Price:        req.Price,
		Active:       true,
		Category:     strings.ToLower(strings.TrimSpace(req.Category)),
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&service).Error; err != nil {
		httperr.Internal(c, "failed_to_create_service", "Erro ao criar serviço.")
		return
	}

	h.record(c, "service_created", "service", service.ID, nil)
	httpresp.Created(c, service)
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var service models.Service
	if !h.find(c, &service, id, "service_not_found", "Serviço não encontrado.") {
		return
	}

	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	if req.Name != nil {
		service.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		service.Description = *req.Description
	}
	if req.DurationMin != nil {
		if *req.DurationMin < 1 {
			httperr.BadRequest(c, "invalid_duration", "Duração inválida.")
			return
		}
		service.DurationMin = *req.DurationMin
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			httperr.BadRequest(c, "invalid_price", "Preço inválido.")
			return
		}
		service.Price = *req.Price
	}
	if req.Category != nil {
		service.Category = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.Active != nil {
		service.Active = *req.Active
	}

	if err := h.db.WithContext(c.Request.Context()).Save(&service).Error; err != nil {
		httperr.Internal(c, "failed_to_update_service", "Erro ao atualizar serviço.")
		return
	}

	h.record(c, "service_updated", "service", service.ID, nil)
	httpresp.OK(c, service)
}

// ======================================================
// PRODUCTS
// ======================================================

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).
		Where("barbershop_id = ?", middleware.Actor(c).BarbershopID)

	if c.Query("low_stock") == "true" {
		q = q.Where("stock <= ?", 3)
	}
	if query := strings.ToLower(strings.TrimSpace(c.Query("query"))); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+query+"%")
	}

	var products []models.Product
	if err := q.Order("name ASC").Find(&products).Error; err != nil {
		httperr.Internal(c, "failed_to_list_products", "Erro ao listar produtos.")
		return
	}

	httpresp.List(c, products)
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	if req.Price.IsNegative() {
		httperr.BadRequest(c, "invalid_price", "Preço inválido.")
		return
	}
	if req.Stock < 0 {
		httperr.BadRequest(c, "invalid_stock", "Estoque inválido.")
		return
	}
	if req.CommissionRate.IsNegative() || req.CommissionRate.GreaterThan(hundred) {
		httperr.BadRequest(c, "invalid_commission_rate", "Comissão inválida.")
		return
	}

	product := models.Product{
		BarbershopID:   middleware.Actor(c).BarbershopID,
		Name:           strings.TrimSpace(req.Name),
		Price:          req.Price,
		Stock:          req.Stock,
		CommissionRate: req.CommissionRate,
		Active:         true,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		httperr.Internal(c, "failed_to_create_product", "Erro ao criar produto.")
		return
	}

	h.record(c, "product_created", "product", product.ID, nil)
	httpresp.Created(c, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var product models.Product
	if !h.find(c, &product, id, "product_not_found", "Produto não encontrado.") {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			httperr.BadRequest(c, "invalid_price", "Preço inválido.")
			return
		}
		product.Price = *req.Price
	}
	if req.CommissionRate != nil {
		if req.CommissionRate.IsNegative() || req.CommissionRate.GreaterThan(hundred) {
			httperr.BadRequest(c, "invalid_commission_rate", "Comissão inválida.")
			return
		}
		product.CommissionRate = *req.CommissionRate
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := h.db.WithContext(c.Request.Context()).Save(&product).Error; err != nil {
		httperr.Internal(c, "failed_to_update_product", "Erro ao atualizar produto.")
		return
	}

	h.record(c, "product_updated", "product", product.ID, nil)
	httpresp.OK(c, product)
}

// AdjustStock applies a delta atomically. Stock never goes below zero.
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	barbershopID := middleware.Actor(c).BarbershopID
	db := h.db.WithContext(c.Request.Context())

	res := db.Model(&models.Product{}).
		Where("id = ? AND barbershop_id = ? AND stock + ? >= 0", id, barbershopID, req.Delta).
		UpdateColumn("stock", gorm.Expr("stock + ?", req.Delta))
	if res.Error != nil {
		httperr.Internal(c, "failed_to_update_stock", "Erro ao atualizar estoque.")
		return
	}

	var product models.Product
	if err := db.Where("id = ? AND barbershop_id = ?", id, barbershopID).First(&product).Error; err != nil {
		httperr.NotFound(c, "product_not_found", "Produto não encontrado.")
		return
	}
	if res.RowsAffected == 0 {
		httperr.BadRequest(c, "insufficient_stock", "Estoque insuficiente.")
		return
	}

	h.record(c, "product_stock_adjusted", "product", product.ID, map[string]any{
		"delta": req.Delta,
		"stock": product.Stock,
		"notes": req.Notes,
	})
	httpresp.OK(c, product)
}

// find loads a row of the actor's barbershop by id, answering 404 or 500.
func (h *CatalogHandler) find(c *gin.Context, dest any, id uint, code, message string) bool {
	err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND barbershop_id = ?", id, middleware.Actor(c).BarbershopID).
		First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, code, message)
		return false
	}
	if err != nil {
		httperr.Internal(c, "failed_to_load", "Erro ao carregar dados.")
		return false
	}
	return true
}
