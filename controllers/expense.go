// controllers/expense.go
package controllers

import (
	"net/http"
	"time"

	"barberpro-backend/models"
	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CreateExpenseInput struct {
	Category    string               `json:"category" binding:"required"`
	Description string               `json:"description"`
	Amount      decimal.Decimal      `json:"amount"`
	Method      models.PaymentMethod `json:"method"`
	Date        string               `json:"date"`
	PayFromCash bool                 `json:"payFromCash"`
}

func (h *Handler) CreateExpense(c *gin.Context) {
	var input CreateExpenseInput
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

	expense, err := h.Expenses.Create(c.Request.Context(), utils.CurrentTenantID(c), utils.CurrentUserID(c), services.ExpenseInput{
		Category:    input.Category,
		Description: input.Description,
		Amount:      input.Amount,
		Method:      input.Method,
		Date:        date,
		PayFromCash: input.PayFromCash,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create expense")
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (h *Handler) GetExpenses(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	expenses, err := h.Expenses.List(c.Request.Context(), utils.CurrentTenantID(c), from, to)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve expenses")
		return
	}
	c.JSON(http.StatusOK, expenses)
}
