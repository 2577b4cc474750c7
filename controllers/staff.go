// controllers/staff.go
package controllers

import (
	"net/http"

	"barberpro-backend/models"
	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
)

type CreateStaffInput struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Phone    string      `json:"phone"`
	Role     models.Role `json:"role"`
}

// UpdateStaffInput only touches the fields that are present.
type UpdateStaffInput struct {
	Name     *string           `json:"name"`
	Phone    *string           `json:"phone"`
	Password *string           `json:"password"`
	State    *models.Lifecycle `json:"state"`
}

func (h *Handler) CreateStaff(c *gin.Context) {
	var input CreateStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	user, err := h.Staff.Create(c.Request.Context(), utils.CurrentTenantID(c), services.StaffInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Phone:    input.Phone,
		Role:     input.Role,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create staff member")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) ListStaff(c *gin.Context) {
	users, err := h.Staff.List(c.Request.Context(), utils.CurrentTenantID(c), models.Role(c.Query("role")))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve staff")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetStaff(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.Staff.Get(c.Request.Context(), utils.CurrentTenantID(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve staff member")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateStaff(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input UpdateStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	user, err := h.Staff.Update(c.Request.Context(), utils.CurrentTenantID(c), id, services.StaffUpdate{
		Name:     input.Name,
		Phone:    input.Phone,
		Password: input.Password,
		State:    input.State,
	})
	if err != nil {
		h.respondError(c, err, "Failed to update staff member")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteStaff(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if id == utils.CurrentUserID(c) {
		utils.RespondWithError(c, http.StatusBadRequest, "You cannot delete your own account")
		return
	}
	if err := h.Staff.Delete(c.Request.Context(), utils.CurrentTenantID(c), id); err != nil {
		h.respondError(c, err, "Failed to delete staff member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff member deleted successfully"})
}
