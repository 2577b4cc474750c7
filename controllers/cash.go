// controllers/cash.go
package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"barberpro-backend/models"
	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OpenSessionInput struct {
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Notes          string          `json:"notes"`
}

type CloseSessionInput struct {
	// Counted cash in the drawer. Omit to close at the computed balance.
	ClosingBalance *decimal.Decimal `json:"closingBalance"`
	Notes          string           `json:"notes"`
}

type MovementInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Method      string          `json:"method"`
}

type AdjustmentInput struct {
	// Signed: positive adds to the drawer, negative removes.
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"required"`
}

func (h *Handler) OpenCashSession(c *gin.Context) {
	var input OpenSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	session, err := h.Cash.Open(c.Request.Context(), utils.CurrentTenantID(c), utils.CurrentUserID(c), input.OpeningBalance, input.Notes)
	if err != nil {
		h.respondError(c, err, "Failed to open cash session")
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) CloseCashSession(c *gin.Context) {
	var input CloseSessionInput
	// an empty body closes with the computed balance
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	session, err := h.Cash.Close(c.Request.Context(), utils.CurrentTenantID(c), utils.CurrentUserID(c), input.ClosingBalance, input.Notes)
	if err != nil {
		h.respondError(c, err, "Failed to close cash session")
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetCurrentCashSession returns the open session with its live balance, or
// a null session when the drawer is closed.
func (h *Handler) GetCurrentCashSession(c *gin.Context) {
	session, err := h.Cash.Current(c.Request.Context(), utils.CurrentTenantID(c))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve cash session")
		return
	}
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "balance": session.ComputedBalance()})
}

func (h *Handler) GetCashHistory(c *gin.Context) {
	sessions, err := h.Cash.History(c.Request.Context(), utils.CurrentTenantID(c), queryInt(c, "limit", 30, 200))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve cash history")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) GetCashSession(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Cash.Detail(c.Request.Context(), utils.CurrentTenantID(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve cash session")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ReconcileCashSession compares cached totals with the movement log.
func (h *Handler) ReconcileCashSession(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	rec, err := h.Cash.Reconcile(c.Request.Context(), utils.CurrentTenantID(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to reconcile cash session")
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) RegisterCashEntry(c *gin.Context) {
	h.registerMovement(c, h.Cash.RegisterEntry)
}

func (h *Handler) RegisterCashExit(c *gin.Context) {
	h.registerMovement(c, h.Cash.RegisterExit)
}

type registerFunc func(context.Context, services.MovementInput) (*models.CashMovement, error)

// registerMovement appends a manual movement to the open session given by :id.
func (h *Handler) registerMovement(c *gin.Context, register registerFunc) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input MovementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	mv, err := register(c.Request.Context(), services.MovementInput{
		TenantID:    utils.CurrentTenantID(c),
		SessionID:   id,
		UserID:      utils.CurrentUserID(c),
		Amount:      input.Amount,
		Category:    input.Category,
		Description: input.Description,
		Method:      input.Method,
	})
	if err != nil {
		h.respondError(c, err, "Failed to register cash movement")
		return
	}
	c.JSON(http.StatusCreated, mv)
}

func (h *Handler) RegisterCashAdjustment(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var input AdjustmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	mv, err := h.Cash.RegisterAdjustment(c.Request.Context(), utils.CurrentTenantID(c), id, utils.CurrentUserID(c), input.Amount, input.Description)
	if err != nil {
		h.respondError(c, err, "Failed to register adjustment")
		return
	}
	c.JSON(http.StatusCreated, mv)
}

// SyncCashPayments pulls unsynced PAID payments into the open session.
func (h *Handler) SyncCashPayments(c *gin.Context) {
	res, err := h.Cash.SyncPayments(c.Request.Context(), utils.CurrentTenantID(c), utils.CurrentUserID(c))
	if err != nil {
		h.respondError(c, err, "Failed to sync payments")
		return
	}
	c.JSON(http.StatusOK, res)
}
