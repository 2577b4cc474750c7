// controllers/slot.go
package controllers

import (
	"net/http"
	"time"

	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GenerateSlotsInput struct {
	StaffID  uuid.UUID `json:"staffId" binding:"required"`
	Weekdays []int     `json:"weekdays" binding:"required,min=1,dive,min=0,max=6"` // 0 = Sunday
	Start    string    `json:"start" binding:"required"`                           // HH:MM
	End      string    `json:"end" binding:"required"`
	Interval int       `json:"interval" binding:"required,min=5"`
	From     string    `json:"from" binding:"required"` // YYYY-MM-DD
	To       string    `json:"to" binding:"required"`
}

func (h *Handler) GenerateSlots(c *gin.Context) {
	var input GenerateSlotsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	from, err := utils.ParseDate(input.From)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	to, err := utils.ParseDate(input.To)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	weekdays := make([]time.Weekday, 0, len(input.Weekdays))
	for _, d := range input.Weekdays {
		weekdays = append(weekdays, time.Weekday(d))
	}

	created, err := h.Slots.Generate(c.Request.Context(), services.GenerateSlotsInput{
		TenantID:        utils.CurrentTenantID(c),
		StaffID:         input.StaffID,
		Weekdays:        weekdays,
		Start:           input.Start,
		End:             input.End,
		IntervalMinutes: input.Interval,
		From:            from,
		To:              to,
	})
	if err != nil {
		h.respondError(c, err, "Failed to generate slots")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": created})
}

// ListSlots supports ?staffId=&from=&to=&available=true
func (h *Handler) ListSlots(c *gin.Context) {
	staffID, ok := queryUUID(c, "staffId")
	if !ok {
		return
	}
	// without a range, the next two weeks
	from := utils.BeginningOfDay(h.now())
	last := from.AddDate(0, 0, 13)
	if c.Query("from") != "" || c.Query("to") != "" {
		start, end, ok := h.dateRange(c)
		if !ok {
			return
		}
		from, last = start, end.AddDate(0, 0, -1)
	}

	slots, err := h.Slots.List(c.Request.Context(), utils.CurrentTenantID(c), services.SlotFilter{
		StaffID:       staffID,
		From:          &from,
		To:            &last,
		AvailableOnly: c.Query("available") == "true",
	})
	if err != nil {
		h.respondError(c, err, "Failed to retrieve slots")
		return
	}
	c.JSON(http.StatusOK, slots)
}

// ToggleSlot blocks a free slot or frees a blocked one.
func (h *Handler) ToggleSlot(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	slot, err := h.Slots.Toggle(c.Request.Context(), utils.CurrentTenantID(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to toggle slot")
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Slots.Delete(c.Request.Context(), utils.CurrentTenantID(c), id); err != nil {
		h.respondError(c, err, "Failed to delete slot")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Slot deleted successfully"})
}
