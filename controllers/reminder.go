// controllers/reminder.go
package controllers

import (
	"net/http"

	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
)

// ReminderTemplateInput defines the expected JSON structure
type ReminderTemplateInput struct {
	Message  string `json:"message" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

func (h *Handler) GetReminderTemplate(c *gin.Context) {
	tpl, err := h.Reminders.GetTemplate(c.Request.Context(), utils.CurrentTenantID(c))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve reminder template")
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// SaveReminderTemplate creates or replaces the shop's template
func (h *Handler) SaveReminderTemplate(c *gin.Context) {
	var input ReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	tpl, err := h.Reminders.SaveTemplate(c.Request.Context(), utils.CurrentTenantID(c), input.Message, active)
	if err != nil {
		h.respondError(c, err, "Failed to save reminder template")
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *Handler) GetReminderLogs(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	logs, err := h.Reminders.ListLogs(c.Request.Context(), utils.CurrentTenantID(c), from, to)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve reminder logs")
		return
	}
	c.JSON(http.StatusOK, logs)
}

// RunReminders triggers the daily reminder job immediately.
func (h *Handler) RunReminders(c *gin.Context) {
	stats, err := h.Reminders.SendDailyReminders(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to send reminders")
		return
	}
	c.JSON(http.StatusOK, stats)
}
