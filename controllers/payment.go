// controllers/payment.go
package controllers

import (
	"net/http"
	"time"

	"barberpro-backend/models"
	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreatePaymentInput struct {
	AppointmentID *uuid.UUID           `json:"appointmentId"`
	StaffID       *uuid.UUID           `json:"staffId"`
	Amount        decimal.Decimal      `json:"amount"`
	Method        models.PaymentMethod `json:"method" binding:"required"`
	Date          string               `json:"date"` // YYYY-MM-DD, defaults to now
	Notes         string               `json:"notes"`
}

// CreatePayment records money received outside the cash drawer flow (card,
// pix) or cash to be synced later.
func (h *Handler) CreatePayment(c *gin.Context) {
	var input CreatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	var date time.Time
	if input.Date != "" {
		d, err := utils.ParseDate(input.Date)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		date = d
	}

	payment, err := h.Payments.Create(c.Request.Context(), utils.CurrentTenantID(c), services.PaymentInput{
		AppointmentID: input.AppointmentID,
		StaffID:       input.StaffID,
		Amount:        input.Amount,
		Method:        input.Method,
		Date:          date,
		Notes:         input.Notes,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create payment")
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) GetPayments(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	payments, err := h.Payments.List(c.Request.Context(), utils.CurrentTenantID(c), from, to)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *Handler) RefundPayment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	payment, err := h.Payments.Refund(c.Request.Context(), utils.CurrentTenantID(c), id, utils.CurrentUserID(c))
	if err != nil {
		h.respondError(c, err, "Failed to refund payment")
		return
	}
	c.JSON(http.StatusOK, payment)
}
