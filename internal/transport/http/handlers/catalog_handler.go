package handlers

import (
	"net/http"

	"warehouse-service/internal/service"
	"warehouse-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogHandler: товары, поставщики и склады.
type CatalogHandler struct {
	catalog service.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(catalog service.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

func listResponse[M, R any](p *service.Page[M], conv func(*M) R) dto.ListResponse[R] {
	out := dto.ListResponse[R]{
		Items:    make([]R, 0, len(p.Items)),
		PageMeta: dto.NewPageMeta(p.Page, p.PageSize, p.Total),
	}
	for i := range p.Items {
		out.Items = append(out.Items, conv(&p.Items[i]))
	}
	return out
}

func optionalUUID(ve *service.ValidationError, field string, s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		ve.Fields[field] = "must be a UUID"
		return nil
	}
	return &id
}

func productInput(req dto.ProductRequest) (service.ProductInput, error) {
	ve := &service.ValidationError{Fields: map[string]string{}}
	in := service.ProductInput{
		Name:              req.Name,
		Category:          req.Category,
		Description:       req.Description,
		QuantityInStock:   req.QuantityInStock,
		Price:             *req.Price,
		PurchasePrice:     req.PurchasePrice,
		LowStockThreshold: req.LowStockThreshold,
		SupplierID:        optionalUUID(ve, "supplier_id", req.SupplierID),
		WarehouseID:       optionalUUID(ve, "warehouse_id", req.WarehouseID),
	}
	exp, err := dto.ParseDate(req.ExpiryDate)
	if err != nil {
		ve.Fields["expiry_date"] = "must be YYYY-MM-DD"
	}
	in.ExpiryDate = exp
	if len(ve.Fields) > 0 {
		return in, ve
	}
	return in, nil
}

// ---------- products ----------

// ListProducts godoc
// @Summary Список товаров
// @Tags products
// @Produce json
// @Param page query int false "Страница"
// @Param q query string false "Поиск по названию"
// @Param category query string false "Категория"
// @Success 200 {object} dto.ListResponse[dto.ProductResponse]
// @Router /products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	p, err := h.catalog.ListProducts(c.Request.Context(), service.ProductQuery{
		Page:     queryPage(c),
		Query:    c.Query("q"),
		Category: c.Query("category"),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(p, dto.NewProductResponse))
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProductResponse(p))
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	in, err := productInput(req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewProductResponse(p))
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	in, err := productInput(req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProductResponse(p))
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- suppliers ----------

func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	p, err := h.catalog.ListSuppliers(c.Request.Context(), queryPage(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(p, dto.NewSupplierResponse))
}

func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var req dto.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	s, err := h.catalog.CreateSupplier(c.Request.Context(), service.SupplierInput{
		Name: req.Name, Contact: req.Contact, Address: req.Address,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSupplierResponse(s))
}

func (h *CatalogHandler) UpdateSupplier(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	s, err := h.catalog.UpdateSupplier(c.Request.Context(), id, service.SupplierInput{
		Name: req.Name, Contact: req.Contact, Address: req.Address,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSupplierResponse(s))
}

func (h *CatalogHandler) DeleteSupplier(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteSupplier(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- warehouses ----------

func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	p, err := h.catalog.ListWarehouses(c.Request.Context(), queryPage(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(p, dto.NewWarehouseResponse))
}

func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	var req dto.WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	w, err := h.catalog.CreateWarehouse(c.Request.Context(), service.WarehouseInput{
		Name: req.Name, Address: req.Address, Capacity: req.Capacity,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewWarehouseResponse(w))
}

func (h *CatalogHandler) UpdateWarehouse(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, err)
		return
	}
	w, err := h.catalog.UpdateWarehouse(c.Request.Context(), id, service.WarehouseInput{
		Name: req.Name, Address: req.Address, Capacity: req.Capacity,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewWarehouseResponse(w))
}

func (h *CatalogHandler) DeleteWarehouse(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteWarehouse(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
