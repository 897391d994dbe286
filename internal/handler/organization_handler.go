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

type OrganizationHandler struct {
	orgService service.OrganizationService
}

func NewOrganizationHandler(orgService service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

func (h *OrganizationHandler) RegisterRoutes(router *gin.RouterGroup) {
	manufacturer := middleware.RequireRole(model.RoleSuperAdmin, model.RoleManufacturerAdmin)
	anyRole := middleware.RequireRole(model.RoleSuperAdmin, model.RoleManufacturerAdmin, model.RoleClientAdmin, model.RoleClientSalesRep)

	orgs := router.Group("/api/organizations")
	{
		orgs.POST("", manufacturer, h.CreateOrganization)
		orgs.GET("", anyRole, h.ListOrganizations)
		orgs.GET("/:id", anyRole, h.GetOrganization)
		orgs.PUT("/:id", manufacturer, h.RenameOrganization)
		orgs.DELETE("/:id", manufacturer, h.DeleteOrganization)
	}
}

// CreateOrganization creates a manufacturer or dealer organization
// @Summary      Create organization
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrganizationRequest  true  "Organization Payload"
// @Success      201      {object}  response.Response{data=model.Organization}
// @Failure      400      {object}  response.Response
// @Router       /api/organizations [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req service.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	org, err := h.orgService.CreateOrganization(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, org))
}

// ListOrganizations returns organizations, optionally filtered by kind
// @Summary      List organizations
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Param        kind   query     string  false  "Filter by kind (manufacturer, dealer)"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/organizations [get]
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	p := pagination.Parse(c)

	orgs, total, err := h.orgService.ListOrganizations(c.Request.Context(), c.Query("kind"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, orgs, p, total))
}

// GetOrganization returns one organization
// @Summary      Get organization
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Organization ID"
// @Success      200  {object}  response.Response{data=model.Organization}
// @Failure      404  {object}  response.Response
// @Router       /api/organizations/{id} [get]
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	org, err := h.orgService.GetOrganization(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, org))
}

// RenameOrganization renames an organization; kind never changes
// @Summary      Rename organization
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Organization ID"
// @Param        payload  body      service.RenameOrganizationRequest  true  "Rename Payload"
// @Success      200      {object}  response.Response{data=model.Organization}
// @Failure      404      {object}  response.Response
// @Router       /api/organizations/{id} [put]
func (h *OrganizationHandler) RenameOrganization(c *gin.Context) {
	var req service.RenameOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	org, err := h.orgService.RenameOrganization(c.Request.Context(), middleware.GetActor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, org))
}

// DeleteOrganization removes an organization with no active consignments
// @Summary      Delete organization
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Organization ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/organizations/{id} [delete]
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	if err := h.orgService.DeleteOrganization(c.Request.Context(), middleware.GetActor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
