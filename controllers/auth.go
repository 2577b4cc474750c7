package controllers

import (
	"net/http"

	"barberpro-backend/models"
	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
)

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	user, err := h.Tenants.Authenticate(c.Request.Context(), input.Email, input.Password)
	switch {
	case services.IsNotFound(err):
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	case services.IsState(err):
		utils.RespondWithError(c, http.StatusForbidden, err.Error())
		return
	case err != nil:
		h.respondError(c, err, "Failed to log in")
		return
	}

	token, err := h.Tokens.Generate(user)
	if err != nil {
		h.Logger.Error("token generation failed", "user_id", user.ID, "err", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.SetCookie(
		"token",
		token,
		int(h.Tokens.TTL().Seconds()),
		"/",
		"",
		h.SecureCookies,
		true,
	)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", h.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.Tenants.GetUser(c.Request.Context(), utils.CurrentUserID(c))
	if err != nil {
		if services.IsNotFound(err) {
			utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
			return
		}
		h.respondError(c, err, "Failed to load user")
		return
	}

	resp := gin.H{"user": userResponse(user)}
	if user.TenantID != nil {
		tenant, err := h.Tenants.Get(c.Request.Context(), *user.TenantID)
		if err != nil {
			h.respondError(c, err, "Failed to load shop")
			return
		}
		resp["tenant"] = gin.H{"id": tenant.ID, "name": tenant.Name, "slug": tenant.Slug}
	}
	c.JSON(http.StatusOK, resp)
}

func userResponse(u *models.User) gin.H {
	return gin.H{
		"id":       u.ID,
		"email":    u.Email,
		"name":     u.Name,
		"role":     u.Role,
		"tenantId": u.TenantID,
	}
}
