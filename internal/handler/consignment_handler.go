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

type ConsignmentHandler struct {
	consignmentService service.ConsignmentService
}

func NewConsignmentHandler(consignmentService service.ConsignmentService) *ConsignmentHandler {
	return &ConsignmentHandler{consignmentService: consignmentService}
}

func (h *ConsignmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	manufacturer := middleware.RequireRole(model.RoleSuperAdmin, model.RoleManufacturerAdmin)
	anyRole := middleware.RequireRole(model.RoleSuperAdmin, model.RoleManufacturerAdmin, model.RoleClientAdmin, model.RoleClientSalesRep)

	consignments := router.Group("/api/consignments")
	{
		consignments.POST("", manufacturer, h.CreateConsignment)
		consignments.GET("", anyRole, h.ListConsignments)
		consignments.GET("/:id", anyRole, h.GetConsignment)
		consignments.PUT("/:id/close", manufacturer, h.CloseConsignment)
		consignments.PUT("/:id/cancel", manufacturer, h.CancelConsignment)
	}
}

// CreateConsignment opens a consignment of catalog items to a dealer
// @Summary      Create consignment
// @Description  Assigns catalog items to a dealer organization with snapshotted dealer prices
// @Tags         consignments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateConsignmentRequest  true  "Create Consignment Payload"
// @Success      201      {object}  response.Response{data=model.Consignment}
// @Failure      400      {object}  response.Response
// @Router       /api/consignments [post]
func (h *ConsignmentHandler) CreateConsignment(c *gin.Context) {
	var req service.CreateConsignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	consignment, err := h.consignmentService.CreateConsignment(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, consignment))
}

// ListConsignments returns a paginated list of consignments
// @Summary      List consignments
// @Tags         consignments
// @Security     BearerAuth
// @Produce      json
// @Param        dealer_org_id  query     string  false  "Filter by dealer organization"
// @Param        status         query     string  false  "Filter by status (active, completed, cancelled)"
// @Param        page           query     int     false  "Page number (default 1)"
// @Param        limit          query     int     false  "Items per page (default 20)"
// @Success      200            {object}  response.Response{data=object}
// @Failure      500            {object}  response.Response
// @Router       /api/consignments [get]
func (h *ConsignmentHandler) ListConsignments(c *gin.Context) {
	p := pagination.Parse(c)

	consignments, total, err := h.consignmentService.ListConsignments(
		c.Request.Context(), c.Query("dealer_org_id"), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, consignments, p, total))
}

// GetConsignment returns one consignment with its lines
// @Summary      Get consignment
// @Tags         consignments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Consignment ID"
// @Success      200  {object}  response.Response{data=model.Consignment}
// @Failure      404  {object}  response.Response
// @Router       /api/consignments/{id} [get]
func (h *ConsignmentHandler) GetConsignment(c *gin.Context) {
	consignment, err := h.consignmentService.GetConsignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, consignment))
}

// CloseConsignment completes a fully-settled consignment
// @Summary      Close consignment
// @Description  Marks an active consignment completed; rejected while any pieces remain outstanding
// @Tags         consignments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true   "Consignment ID"
// @Param        payload  body      service.CloseConsignmentRequest   false  "Close Payload"
// @Success      200      {object}  response.Response{data=model.Consignment}
// @Failure      409      {object}  response.Response
// @Router       /api/consignments/{id}/close [put]
func (h *ConsignmentHandler) CloseConsignment(c *gin.Context) {
	var req service.CloseConsignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	consignment, err := h.consignmentService.CloseConsignment(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, consignment))
}

// CancelConsignment writes off an active consignment
// @Summary      Cancel consignment
// @Tags         consignments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Consignment ID"
// @Success      200  {object}  response.Response{data=model.Consignment}
// @Failure      409  {object}  response.Response
// @Router       /api/consignments/{id}/cancel [put]
func (h *ConsignmentHandler) CancelConsignment(c *gin.Context) {
	consignment, err := h.consignmentService.CancelConsignment(c.Request.Context(), middleware.GetActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, consignment))
}
