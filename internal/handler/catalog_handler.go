package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	lotService     service.LotService
}

func NewCatalogHandler(catalogService service.CatalogService, lotService service.LotService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, lotService: lotService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	manufacturer := middleware.RequireRole(model.RoleSuperAdmin, model.RoleManufacturerAdmin)
	anyRole := middleware.RequireRole(model.RoleSuperAdmin, model.RoleManufacturerAdmin, model.RoleClientAdmin, model.RoleClientSalesRep)

	catalog := router.Group("/api/catalog-items")
	{
		catalog.POST("", manufacturer, h.CreateItem)
		catalog.GET("", anyRole, h.ListItems)
		catalog.GET("/:id", anyRole, h.GetItem)
		catalog.PUT("/:id", manufacturer, h.UpdateItem)
	}

	lots := router.Group("/api/inventory-lots")
	{
		lots.POST("", manufacturer, h.CreateLot)
		lots.GET("", manufacturer, h.ListLots)
	}
}

// CreateItem adds a catalog item
// @Summary      Create catalog item
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CatalogItemRequest  true  "Catalog Item Payload"
// @Success      201      {object}  response.Response{data=model.CatalogItem}
// @Failure      400      {object}  response.Response
// @Router       /api/catalog-items [post]
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req service.CatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.catalogService.CreateItem(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// ListItems returns a paginated catalog listing
// @Summary      List catalog items
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Match against name or item number"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/catalog-items [get]
func (h *CatalogHandler) ListItems(c *gin.Context) {
	p := pagination.Parse(c)

	items, total, err := h.catalogService.ListItems(c.Request.Context(), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, items, p, total))
}

// GetItem returns one catalog item
// @Summary      Get catalog item
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Catalog Item ID"
// @Success      200  {object}  response.Response{data=model.CatalogItem}
// @Failure      404  {object}  response.Response
// @Router       /api/catalog-items/{id} [get]
func (h *CatalogHandler) GetItem(c *gin.Context) {
	item, err := h.catalogService.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// UpdateItem updates a catalog item; existing consignment lines keep their
// snapshotted prices
// @Summary      Update catalog item
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Catalog Item ID"
// @Param        payload  body      service.CatalogItemRequest  true  "Catalog Item Payload"
// @Success      200      {object}  response.Response{data=model.CatalogItem}
// @Failure      400      {object}  response.Response
// @Router       /api/catalog-items/{id} [put]
func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	var req service.CatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.catalogService.UpdateItem(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// CreateLot records a received inventory lot
// @Summary      Create inventory lot
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateLotRequest  true  "Inventory Lot Payload"
// @Success      201      {object}  response.Response{data=model.InventoryLot}
// @Failure      400      {object}  response.Response
// @Router       /api/inventory-lots [post]
func (h *CatalogHandler) CreateLot(c *gin.Context) {
	var req service.CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	lot, err := h.lotService.CreateLot(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, lot))
}

// ListLots returns received inventory lots, newest first
// @Summary      List inventory lots
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/inventory-lots [get]
func (h *CatalogHandler) ListLots(c *gin.Context) {
	p := pagination.Parse(c)

	lots, total, err := h.lotService.ListLots(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, lots, p, total))
}
