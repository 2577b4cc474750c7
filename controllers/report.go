// controllers/report.go
package controllers

import (
	"net/http"

	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
)

// ReportAnalytics is the tenant report for one period.
type ReportAnalytics struct {
	Overview           *services.Overview   `json:"overview"`
	RevenueByMethod    []services.Breakdown `json:"revenueByMethod"`
	RevenueByStaff     []services.Breakdown `json:"revenueByStaff"`
	ExpensesByCategory []services.Breakdown `json:"expensesByCategory"`
}

// GetReportAnalytics reports ?from=&to= (defaults to the current month).
func (h *Handler) GetReportAnalytics(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	tenantID := utils.CurrentTenantID(c)

	var (
		report ReportAnalytics
		err    error
	)
	if report.Overview, err = h.Reports.Overview(ctx, tenantID, from, to); err != nil {
		h.respondError(c, err, "Failed to get overview")
		return
	}
	if report.RevenueByMethod, err = h.Reports.RevenueByMethod(ctx, tenantID, from, to); err != nil {
		h.respondError(c, err, "Failed to get revenue by method")
		return
	}
	if report.RevenueByStaff, err = h.Reports.RevenueByStaff(ctx, tenantID, from, to); err != nil {
		h.respondError(c, err, "Failed to get revenue by staff")
		return
	}
	if report.ExpensesByCategory, err = h.Reports.ExpensesByCategory(ctx, tenantID, from, to); err != nil {
		h.respondError(c, err, "Failed to get expenses by category")
		return
	}

	c.JSON(http.StatusOK, report)
}
