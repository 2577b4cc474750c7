// controllers/handler.go
package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler serves every HTTP endpoint. Routes are registered in package routes.
type Handler struct {
	Tenants   *services.TenantService
	Staff     *services.StaffService
	Catalog   *services.CatalogService
	Slots     *services.SlotService
	Bookings  *services.BookingService
	Cash      *services.CashService
	Payments  *services.PaymentService
	Expenses  *services.ExpenseService
	Reports   *services.ReportService
	Reminders *services.ReminderService

	Tokens *utils.TokenIssuer
	Logger *slog.Logger
	Now    func() time.Time
	// SecureCookies marks the auth cookie Secure. Disabled in tests.
	SecureCookies bool
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// respondError maps service error kinds onto HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	var (
		validation *services.ValidationError
		conflict   *services.ConflictError
		notFound   *services.NotFoundError
		state      *services.StateError
	)
	switch {
	case errors.As(err, &validation):
		utils.RespondWithError(c, http.StatusBadRequest, validation.Error())
	case errors.As(err, &conflict):
		utils.RespondWithError(c, http.StatusConflict, conflict.Error())
	case errors.As(err, &notFound):
		utils.RespondWithError(c, http.StatusNotFound, notFound.Error())
	case errors.As(err, &state):
		utils.RespondWithError(c, http.StatusUnprocessableEntity, state.Error())
	default:
		h.Logger.Error(fallback, "path", c.FullPath(), "err", err)
		utils.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}

// paramUUID parses a path parameter, responding 400 when it is malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return nil, false
	}
	return &id, true
}

// dateRange reads ?from=YYYY-MM-DD&to=YYYY-MM-DD. The returned end is exclusive.
func (h *Handler) dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, to, err := utils.ParseDateRange(c.Query("from"), c.Query("to"), h.now())
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func queryInt(c *gin.Context, name string, def, max int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
