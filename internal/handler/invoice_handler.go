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

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	manufacturer := middleware.RequireRole(model.RoleSuperAdmin, model.RoleManufacturerAdmin)
	anyRole := middleware.RequireRole(model.RoleSuperAdmin, model.RoleManufacturerAdmin, model.RoleClientAdmin, model.RoleClientSalesRep)

	invoices := router.Group("/api/invoices")
	{
		invoices.POST("/compile", manufacturer, h.CompileInvoice)
		invoices.GET("", anyRole, h.ListInvoices)
		invoices.GET("/:id", anyRole, h.GetInvoice)
		invoices.PUT("/:id/status", manufacturer, h.TransitionInvoice)
	}
}

// CompileInvoice compiles pending-invoice sales into a draft invoice
// @Summary      Compile invoice
// @Description  Rolls a batch of one dealer's pending_invoice sales into a draft invoice; all-or-nothing
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CompileInvoiceRequest  true  "Compile Invoice Payload"
// @Success      201      {object}  response.Response{data=model.Invoice}
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/compile [post]
func (h *InvoiceHandler) CompileInvoice(c *gin.Context) {
	var req service.CompileInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.CompileInvoice(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// ListInvoices returns a paginated list of invoices
// @Summary      List invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        status         query     string  false  "Filter by invoice status"
// @Param        dealer_org_id  query     string  false  "Filter by dealer organization"
// @Param        page           query     int     false  "Page number (default 1)"
// @Param        limit          query     int     false  "Items per page (default 20)"
// @Success      200            {object}  response.Response{data=object}
// @Failure      500            {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.InvoiceListFilter{
		Status:      c.Query("status"),
		DealerOrgID: c.Query("dealer_org_id"),
		Page:        p.Page,
		Limit:       p.Limit,
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, invoices, p, total))
}

// GetInvoice returns one invoice with its lines
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// TransitionInvoice moves an invoice along its lifecycle
// @Summary      Transition invoice status
// @Description  draft to pending to sent to paid; cancel is allowed from any non-paid state
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Invoice ID"
// @Param        payload  body      service.TransitionInvoiceRequest  true  "Target Status"
// @Success      200      {object}  response.Response{data=model.Invoice}
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/{id}/status [put]
func (h *InvoiceHandler) TransitionInvoice(c *gin.Context) {
	var req service.TransitionInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.TransitionInvoice(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}
