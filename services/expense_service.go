package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"barberpro-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseService struct {
	Deps
}

func NewExpenseService(d Deps) *ExpenseService {
	return &ExpenseService{Deps: d.withDefaults()}
}

type ExpenseInput struct {
	Category    string
	Description string
	Amount      decimal.Decimal
	Method      models.PaymentMethod
	Date        time.Time
	// PayFromCash takes the amount out of the open cash session.
	PayFromCash bool
}

func (s *ExpenseService) Create(ctx context.Context, tenantID, userID uuid.UUID, in ExpenseInput) (*models.Expense, error) {
	in.Amount = in.Amount.Round(2)
	in.Category = strings.ToUpper(strings.TrimSpace(in.Category))
	if in.Method == "" {
		in.Method = models.MethodCash
	}
	switch {
	case in.Category == "":
		return nil, invalid("category", "is required")
	case !in.Amount.IsPositive():
		return nil, invalid("amount", "must be greater than zero")
	case !in.Method.Valid():
		return nil, invalid("method", "must be CASH, CARD, PIX or OTHER")
	case in.PayFromCash && in.Method != models.MethodCash:
		return nil, invalid("method", "only cash expenses can be paid from the drawer")
	}
	if in.Date.IsZero() {
		in.Date = s.Now()
	}

	expense := &models.Expense{
		TenantID:    tenantID,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Method:      in.Method,
		Date:        in.Date.UTC(),
		CreatedBy:   userID,
	}
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.Create(expense).Error; err != nil {
			return translate(err, "expense", "", "create expense")
		}
		if !in.PayFromCash {
			return nil
		}
		session, err := findOpenSession(tx, tenantID)
		if err != nil {
			return err
		}
		if session == nil {
			return &StateError{Message: "open a cash session to pay expenses from the drawer"}
		}
		_, err = appendMovement(tx, session, &models.CashMovement{
			UserID:      userID,
			Type:        models.MovementExit,
			Direction:   models.DirectionOut,
			Category:    models.CategoryExpense,
			Description: fmt.Sprintf("%s: %s", expense.Category, expense.Description),
			Amount:      expense.Amount,
			Method:      string(expense.Method),
			ExpenseID:   &expense.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *ExpenseService) List(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Expense, error) {
	var expenses []models.Expense
	err := s.DB.WithContext(ctx).
		Where("tenant_id = ? AND date >= ? AND date < ?", tenantID, from.UTC(), to.UTC()).
		Order("date DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}
