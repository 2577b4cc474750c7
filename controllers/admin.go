// controllers/admin.go
package controllers

import (
	"net/http"

	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
)

type CreateTenantInput struct {
	Name          string `json:"name" binding:"required"`
	Slug          string `json:"slug" binding:"required"`
	AdminName     string `json:"adminName"`
	AdminEmail    string `json:"adminEmail" binding:"required,email"`
	AdminPassword string `json:"adminPassword" binding:"required,min=8"`
}

// CreateTenant registers a shop with its first administrator.
func (h *Handler) CreateTenant(c *gin.Context) {
	var input CreateTenantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	tenant, admin, err := h.Tenants.Create(c.Request.Context(), services.CreateTenantInput{
		Name:          input.Name,
		Slug:          input.Slug,
		AdminName:     input.AdminName,
		AdminEmail:    input.AdminEmail,
		AdminPassword: input.AdminPassword,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create tenant")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tenant": tenant, "admin": userResponse(admin)})
}

func (h *Handler) ListTenants(c *gin.Context) {
	tenants, err := h.Tenants.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to retrieve tenants")
		return
	}
	c.JSON(http.StatusOK, tenants)
}

func (h *Handler) GetTenantOverview(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	overview, err := h.Reports.TenantOverview(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to load tenant overview")
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *Handler) ActivateTenant(c *gin.Context) { h.setTenantActive(c, true) }
func (h *Handler) DeactivateTenant(c *gin.Context) { h.setTenantActive(c, false) }

func (h *Handler) setTenantActive(c *gin.Context, active bool) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	tenant, err := h.Tenants.SetActive(c.Request.Context(), id, active)
	if err != nil {
		h.respondError(c, err, "Failed to update tenant")
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// DeleteTenant removes a shop and all of its data.
func (h *Handler) DeleteTenant(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Tenants.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete tenant")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tenant deleted successfully"})
}

func (h *Handler) GetPlatformKPIs(c *gin.Context) {
	kpis, err := h.Reports.PlatformKPIs(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to load platform KPIs")
		return
	}
	c.JSON(http.StatusOK, kpis)
}

func (h *Handler) GetTopTenants(c *gin.Context) {
	top, err := h.Reports.TopTenantsByRevenue(c.Request.Context(), queryInt(c, "limit", 10, 100))
	if err != nil {
		h.respondError(c, err, "Failed to load top tenants")
		return
	}
	c.JSON(http.StatusOK, top)
}
