// controllers/appointment.go
package controllers

import (
	"net/http"

	"barberpro-backend/models"
	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetAppointments lists the shop's appointments with ?from=&to=&staffId=&status=
func (h *Handler) GetAppointments(c *gin.Context) {
	staffID, ok := queryUUID(c, "staffId")
	if !ok {
		return
	}
	h.listAppointments(c, staffID)
}

// GetMyAppointments is the barber's own agenda.
func (h *Handler) GetMyAppointments(c *gin.Context) {
	me := utils.CurrentUserID(c)
	h.listAppointments(c, &me)
}

func (h *Handler) listAppointments(c *gin.Context, staffID *uuid.UUID) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	status := models.AppointmentStatus(c.Query("status"))
	switch status {
	case "", models.AppointmentScheduled, models.AppointmentCompleted, models.AppointmentCancelled:
	default:
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid status")
		return
	}

	list, err := h.Bookings.List(c.Request.Context(), utils.CurrentTenantID(c), services.AppointmentFilter{
		StaffID: staffID,
		Status:  status,
		From:    &from,
		To:      &to,
	})
	if err != nil {
		h.respondError(c, err, "Failed to retrieve appointments")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	appt, ok := h.loadAppointment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, appt)
}

// CompleteAppointment marks the appointment done and books the service price
// into the open cash session. Completing twice is a no-op.
func (h *Handler) CompleteAppointment(c *gin.Context) {
	appt, ok := h.loadAppointment(c)
	if !ok {
		return
	}
	changed, err := h.Bookings.Complete(c.Request.Context(), utils.CurrentTenantID(c), appt.ID, utils.CurrentUserID(c))
	if err != nil {
		h.respondError(c, err, "Failed to complete appointment")
		return
	}
	msg := "Appointment completed"
	if !changed {
		msg = "Appointment was already completed"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "changed": changed})
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	appt, ok := h.loadAppointment(c)
	if !ok {
		return
	}
	if err := h.Bookings.Cancel(c.Request.Context(), utils.CurrentTenantID(c), appt.ID); err != nil {
		h.respondError(c, err, "Failed to cancel appointment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled"})
}

// loadAppointment resolves :id within the tenant. Barbers only see their own.
func (h *Handler) loadAppointment(c *gin.Context) (*models.Appointment, bool) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil, false
	}
	appt, err := h.Bookings.Get(c.Request.Context(), utils.CurrentTenantID(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve appointment")
		return nil, false
	}
	if utils.CurrentRole(c) == models.RoleBarber && appt.StaffID != utils.CurrentUserID(c) {
		utils.RespondWithError(c, http.StatusNotFound, "appointment "+id.String()+" not found")
		return nil, false
	}
	return appt, true
}
