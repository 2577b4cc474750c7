package controllers

import (
	"net/http"

	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview returns today's counters, month revenue and the drawer.
func (h *Handler) GetDashboardOverview(c *gin.Context) {
	d, err := h.Reports.Dashboard(c.Request.Context(), utils.CurrentTenantID(c))
	if err != nil {
		h.respondError(c, err, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, d)
}
