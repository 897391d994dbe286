package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	saleService service.SaleService
}

func NewSaleHandler(saleService service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	dealer := middleware.RequireRole(model.RoleSuperAdmin, model.RoleClientAdmin, model.RoleClientSalesRep)
	anyRole := middleware.RequireRole(model.RoleSuperAdmin, model.RoleManufacturerAdmin, model.RoleClientAdmin, model.RoleClientSalesRep)

	sales := router.Group("/api/sales")
	{
		sales.POST("", dealer, h.RecordSale)
		sales.GET("", anyRole, h.ListSales)
		sales.GET("/:id", anyRole, h.GetSale)
		sales.PUT("/:id/pending-invoice", dealer, h.MarkPendingInvoice)
		sales.PUT("/:id/damaged", dealer, h.MarkDamaged)
		sales.PUT("/:id/returned", dealer, h.MarkReturned)
		sales.PUT("/:id/cancel", dealer, h.CancelSale)
	}
}

// RecordSale records a dealer sale against a consignment line
// @Summary      Record sale
// @Description  Atomically consumes pieces from the consignment line and creates a pending sale
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RecordSaleRequest  true  "Record Sale Payload"
// @Success      201      {object}  response.Response{data=model.Sale}
// @Failure      409      {object}  response.Response
// @Router       /api/sales [post]
func (h *SaleHandler) RecordSale(c *gin.Context) {
	var req service.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sale, err := h.saleService.RecordSale(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

// ListSales returns a paginated list of sales
// @Summary      List sales
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        status         query     string  false  "Filter by sale status"
// @Param        dealer_org_id  query     string  false  "Filter by dealer organization"
// @Param        page           query     int     false  "Page number (default 1)"
// @Param        limit          query     int     false  "Items per page (default 20)"
// @Success      200            {object}  response.Response{data=object}
// @Failure      500            {object}  response.Response
// @Router       /api/sales [get]
func (h *SaleHandler) ListSales(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.SaleListFilter{
		Status:      c.Query("status"),
		DealerOrgID: c.Query("dealer_org_id"),
		Page:        p.Page,
		Limit:       p.Limit,
	}

	sales, total, err := h.saleService.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, sales, p, total))
}

// GetSale returns one sale with its consignment line
// @Summary      Get sale
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.Sale}
// @Failure      404  {object}  response.Response
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	sale, err := h.saleService.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// MarkPendingInvoice moves a pending sale into the billing queue
// @Summary      Mark sale pending-invoice
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.Sale}
// @Failure      409  {object}  response.Response
// @Router       /api/sales/{id}/pending-invoice [put]
func (h *SaleHandler) MarkPendingInvoice(c *gin.Context) {
	sale, err := h.saleService.MarkPendingInvoice(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// MarkDamaged flags a sale as damaged stock
// @Summary      Mark sale damaged
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.Sale}
// @Failure      409  {object}  response.Response
// @Router       /api/sales/{id}/damaged [put]
func (h *SaleHandler) MarkDamaged(c *gin.Context) {
	sale, err := h.saleService.MarkDamaged(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// MarkReturned flags a sale as returned stock
// @Summary      Mark sale returned
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.Sale}
// @Failure      409  {object}  response.Response
// @Router       /api/sales/{id}/returned [put]
func (h *SaleHandler) MarkReturned(c *gin.Context) {
	sale, err := h.saleService.MarkReturned(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// CancelSale voids a pending sale and restores the consumed pieces
// @Summary      Cancel sale
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.Sale}
// @Failure      409  {object}  response.Response
// @Router       /api/sales/{id}/cancel [put]
func (h *SaleHandler) CancelSale(c *gin.Context) {
	sale, err := h.saleService.CancelSale(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}
