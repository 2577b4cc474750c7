// controllers/service.go
package controllers

import (
	"net/http"

	"barberpro-backend/models"
	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceInput defines the expected JSON structure for creating or updating a service
type ServiceInput struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Duration    int              `json:"duration" binding:"required,min=1"` // in minutes
	StaffID     *uuid.UUID       `json:"staffId"`
	State       models.Lifecycle `json:"state"`
}

func (in ServiceInput) toService() services.ServiceInput {
	return services.ServiceInput{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		DurationMin: in.Duration,
		StaffID:     in.StaffID,
	}
}

// CreateService adds a service to the shop's catalog
func (h *Handler) CreateService(c *gin.Context) {
	var input ServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	svc, err := h.Catalog.Create(c.Request.Context(), utils.CurrentTenantID(c), input.toService())
	if err != nil {
		h.respondError(c, err, "Failed to create service")
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// GetServices lists the catalog; ?active=true hides inactive services
func (h *Handler) GetServices(c *gin.Context) {
	list, err := h.Catalog.List(c.Request.Context(), utils.CurrentTenantID(c), c.Query("active") == "true")
	if err != nil {
		h.respondError(c, err, "Failed to retrieve services")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetService(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	svc, err := h.Catalog.Get(c.Request.Context(), utils.CurrentTenantID(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve service")
		return
	}
	c.JSON(http.StatusOK, svc)
}

// UpdateService replaces a service's fields
func (h *Handler) UpdateService(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input ServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	svc, err := h.Catalog.Update(c.Request.Context(), utils.CurrentTenantID(c), id, input.toService(), input.State)
	if err != nil {
		h.respondError(c, err, "Failed to update service")
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *Handler) DeleteService(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.Delete(c.Request.Context(), utils.CurrentTenantID(c), id); err != nil {
		h.respondError(c, err, "Failed to delete service")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service deleted successfully"})
}
