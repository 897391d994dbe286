package handler

import (
	"fmt"
	"net/http"
	"time"

	"backend/internal/export"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	manufacturer := middleware.RequireRole(model.RoleSuperAdmin, model.RoleManufacturerAdmin)

	reports := router.Group("/api/reports")
	{
		reports.GET("/dashboard", manufacturer, h.Dashboard)
		reports.GET("/leaderboard", manufacturer, h.Leaderboard)
		reports.GET("/aged-inventory", manufacturer, h.AgedInventory)
		reports.GET("/sell-through", manufacturer, h.SellThrough)
		reports.GET("/damage-returns", manufacturer, h.DamageReturns)
	}
}

// reportRange reads from/to/dealer_org_id query params. The range defaults
// to the trailing 90 days.
func reportRange(c *gin.Context) (model.ReportRange, error) {
	now := time.Now()
	rng := model.ReportRange{
		From:        now.AddDate(0, 0, -90),
		To:          now,
		DealerOrgID: c.Query("dealer_org_id"),
	}

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return rng, fmt.Errorf("invalid from date %q, expected YYYY-MM-DD", raw)
		}
		rng.From = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return rng, fmt.Errorf("invalid to date %q, expected YYYY-MM-DD", raw)
		}
		rng.To = parsed
	}
	if rng.To.Before(rng.From) {
		return rng, fmt.Errorf("to date precedes from date")
	}
	return rng, nil
}

// serveReport writes the report as JSON, CSV or XLSX depending on ?format.
func serveReport(c *gin.Context, report export.Report, jsonPayload interface{}) {
	switch c.DefaultQuery("format", "json") {
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="report.csv"`)
		if err := export.WriteCSV(c.Writer, report); err != nil {
			respondError(c, err)
		}
	case "xlsx":
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", `attachment; filename="report.xlsx"`)
		if err := export.WriteXLSX(c.Writer, report); err != nil {
			respondError(c, err)
		}
	default:
		c.JSON(http.StatusOK, response.Success(http.StatusOK, jsonPayload))
	}
}

// Dashboard returns the manufacturer overview totals
// @Summary      Dashboard summary
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.DashboardSummary}
// @Failure      500  {object}  response.Response
// @Router       /api/reports/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	summary, err := h.analyticsService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// Leaderboard ranks dealers by invoiced total
// @Summary      Dealer leaderboard
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from           query     string  false  "Range start (YYYY-MM-DD, default 90 days ago)"
// @Param        to             query     string  false  "Range end (YYYY-MM-DD, default today)"
// @Param        dealer_org_id  query     string  false  "Restrict to one dealer"
// @Param        format         query     string  false  "json, csv or xlsx (default json)"
// @Success      200            {object}  response.Response{data=[]model.LeaderboardEntry}
// @Failure      400            {object}  response.Response
// @Router       /api/reports/leaderboard [get]
func (h *AnalyticsHandler) Leaderboard(c *gin.Context) {
	rng, err := reportRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	entries, err := h.analyticsService.Leaderboard(c.Request.Context(), rng)
	if err != nil {
		respondError(c, err)
		return
	}
	serveReport(c, export.LeaderboardReport(entries), entries)
}

// AgedInventory buckets unsold consigned pieces by consignment age
// @Summary      Aged inventory report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        dealer_org_id  query     string  false  "Restrict to one dealer"
// @Param        format         query     string  false  "json, csv or xlsx (default json)"
// @Success      200            {object}  response.Response{data=[]model.AgedInventoryBucket}
// @Failure      500            {object}  response.Response
// @Router       /api/reports/aged-inventory [get]
func (h *AnalyticsHandler) AgedInventory(c *gin.Context) {
	buckets, err := h.analyticsService.AgedInventory(c.Request.Context(), c.Query("dealer_org_id"), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	serveReport(c, export.AgedInventoryReport(buckets), buckets)
}

// SellThrough reports sold-versus-assigned rates per dealer
// @Summary      Sell-through report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        dealer_org_id  query     string  false  "Restrict to one dealer"
// @Param        format         query     string  false  "json, csv or xlsx (default json)"
// @Success      200            {object}  response.Response{data=[]model.SellThroughEntry}
// @Failure      500            {object}  response.Response
// @Router       /api/reports/sell-through [get]
func (h *AnalyticsHandler) SellThrough(c *gin.Context) {
	entries, err := h.analyticsService.SellThrough(c.Request.Context(), c.Query("dealer_org_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	serveReport(c, export.SellThroughReport(entries), entries)
}

// DamageReturns lists damaged and returned sales in the range
// @Summary      Damage and return report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from           query     string  false  "Range start (YYYY-MM-DD, default 90 days ago)"
// @Param        to             query     string  false  "Range end (YYYY-MM-DD, default today)"
// @Param        dealer_org_id  query     string  false  "Restrict to one dealer"
// @Param        format         query     string  false  "json, csv or xlsx (default json)"
// @Success      200            {object}  response.Response{data=[]model.DamageReturnEntry}
// @Failure      400            {object}  response.Response
// @Router       /api/reports/damage-returns [get]
func (h *AnalyticsHandler) DamageReturns(c *gin.Context) {
	rng, err := reportRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	entries, err := h.analyticsService.DamageReturns(c.Request.Context(), rng)
	if err != nil {
		respondError(c, err)
		return
	}
	serveReport(c, export.DamageReturnReport(entries), entries)
}
