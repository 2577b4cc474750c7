// controllers/public.go
package controllers

import (
	"net/http"
	"time"

	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetShop returns the public booking page of a tenant: profile, bookable
// barbers and active services.
func (h *Handler) GetShop(c *gin.Context) {
	ctx := c.Request.Context()
	tenant, err := h.Tenants.GetActiveBySlug(ctx, c.Param("slug"))
	if err != nil {
		h.respondError(c, err, "Failed to load shop")
		return
	}
	barbers, err := h.Staff.ListBookable(ctx, tenant.ID)
	if err != nil {
		h.respondError(c, err, "Failed to load barbers")
		return
	}
	catalog, err := h.Catalog.List(ctx, tenant.ID, true)
	if err != nil {
		h.respondError(c, err, "Failed to load services")
		return
	}

	staff := make([]gin.H, 0, len(barbers))
	for _, b := range barbers {
		staff = append(staff, gin.H{"id": b.ID, "name": b.Name})
	}
	c.JSON(http.StatusOK, gin.H{
		"shop": gin.H{
			"name":         tenant.Name,
			"slug":         tenant.Slug,
			"description":  tenant.Description,
			"whatsApp":     tenant.WhatsApp,
			"address":      tenant.Address,
			"openingHours": tenant.OpeningHours,
		},
		"barbers":  staff,
		"services": catalog,
	})
}

// GetAvailability lists open slots of one barber. Defaults to the next 7 days.
func (h *Handler) GetAvailability(c *gin.Context) {
	staffID, err := uuid.Parse(c.Query("staffId"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "staffId is required")
		return
	}

	from := utils.BeginningOfDay(h.now())
	to := from.AddDate(0, 0, 6)
	if v := c.Query("from"); v != "" {
		if from, err = utils.ParseDate(v); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		to = from.AddDate(0, 0, 6)
	}
	if v := c.Query("to"); v != "" {
		if to, err = utils.ParseDate(v); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	if to.Before(from) || utils.DaysBetween(from, to) > 31 {
		utils.RespondWithError(c, http.StatusBadRequest, "Date range must be between 0 and 31 days")
		return
	}

	ctx := c.Request.Context()
	tenant, err := h.Tenants.GetActiveBySlug(ctx, c.Param("slug"))
	if err != nil {
		h.respondError(c, err, "Failed to load shop")
		return
	}
	slots, err := h.Slots.ListAvailable(ctx, tenant.ID, staffID, from, to)
	if err != nil {
		h.respondError(c, err, "Failed to load availability")
		return
	}

	// past slots of today are not bookable
	now := h.now()
	open := make([]gin.H, 0, len(slots))
	for _, s := range slots {
		at, err := s.StartsAt()
		if err != nil || at.Before(now) {
			continue
		}
		open = append(open, gin.H{
			"id":   s.ID,
			"date": s.Date.Format(utils.DateLayout),
			"time": s.Time,
		})
	}
	c.JSON(http.StatusOK, gin.H{"slots": open})
}

type BookingInput struct {
	StaffID       uuid.UUID `json:"staffId" binding:"required"`
	ServiceID     uuid.UUID `json:"serviceId" binding:"required"`
	SlotID        uuid.UUID `json:"slotId" binding:"required"`
	ClientName    string    `json:"clientName" binding:"required"`
	ClientContact string    `json:"clientContact" binding:"required"`
	Notes         string    `json:"notes"`
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var input BookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	appt, err := h.Bookings.Book(c.Request.Context(), services.BookInput{
		TenantSlug:    c.Param("slug"),
		StaffID:       input.StaffID,
		ServiceID:     input.ServiceID,
		SlotID:        input.SlotID,
		ClientName:    input.ClientName,
		ClientContact: input.ClientContact,
		Notes:         input.Notes,
	})
	if err != nil {
		h.respondError(c, err, "Failed to book appointment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Appointment booked",
		"id":          appt.ID,
		"scheduledAt": appt.ScheduledAt.Format(time.RFC3339),
	})
}
