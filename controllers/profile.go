package controllers

import (
	"net/http"

	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
)

type UpdateProfileInput struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	WhatsApp     *string `json:"whatsApp"`
	Address      *string `json:"address"`
	OpeningHours *string `json:"openingHours"`
}

// GetProfile returns the shop profile of the caller's tenant.
func (h *Handler) GetProfile(c *gin.Context) {
	tenant, err := h.Tenants.Get(c.Request.Context(), utils.CurrentTenantID(c))
	if err != nil {
		h.respondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	tenant, err := h.Tenants.UpdateProfile(c.Request.Context(), utils.CurrentTenantID(c), services.TenantProfileInput{
		Name:         input.Name,
		Description:  input.Description,
		WhatsApp:     input.WhatsApp,
		Address:      input.Address,
		OpeningHours: input.OpeningHours,
	})
	if err != nil {
		h.respondError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "profile": tenant})
}
