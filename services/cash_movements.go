package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barberpro-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const categoryManual = "MANUAL"

type MovementInput struct {
	TenantID      uuid.UUID
	SessionID     uuid.UUID
	UserID        uuid.UUID
	Amount        decimal.Decimal
	Category      string
	Description   string
	Method        string
	AppointmentID *uuid.UUID
	PaymentID     *uuid.UUID
	ExpenseID     *uuid.UUID
}

// RegisterEntry appends an ENTRY to an open session of the tenant.
func (s *CashService) RegisterEntry(ctx context.Context, in MovementInput) (*models.CashMovement, error) {
	return s.register(ctx, in, models.MovementEntry, models.DirectionIn)
}

// RegisterExit appends an EXIT to an open session of the tenant.
func (s *CashService) RegisterExit(ctx context.Context, in MovementInput) (*models.CashMovement, error) {
	return s.register(ctx, in, models.MovementExit, models.DirectionOut)
}

// RegisterAdjustment corrects the drawer by a signed amount. The sign picks
// the direction; the stored amount is always positive.
func (s *CashService) RegisterAdjustment(ctx context.Context, tenantID, sessionID, userID uuid.UUID, signed decimal.Decimal, description string) (*models.CashMovement, error) {
	signed = signed.Round(2)
	if signed.IsZero() {
		return nil, invalid("amount", "adjustment cannot be zero")
	}
	if strings.TrimSpace(description) == "" {
		return nil, invalid("description", "is required for adjustments")
	}
	dir := models.DirectionIn
	if signed.IsNegative() {
		dir = models.DirectionOut
	}
	return s.register(ctx, MovementInput{
		TenantID:    tenantID,
		SessionID:   sessionID,
		UserID:      userID,
		Amount:      signed.Abs(),
		Category:    models.CategoryAdjustment,
		Description: description,
	}, models.MovementAdjustment, dir)
}

func (s *CashService) register(ctx context.Context, in MovementInput, typ models.MovementType, dir models.Direction) (*models.CashMovement, error) {
	in.Amount = in.Amount.Round(2)
	if !in.Amount.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	category := strings.ToUpper(strings.TrimSpace(in.Category))
	if category == "" {
		category = categoryManual
	}
	// adjustments are the only system category reachable from here
	if models.SystemCategory(category) && !(typ == models.MovementAdjustment && category == models.CategoryAdjustment) {
		return nil, invalid("category", "reserved category")
	}

	var movement *models.CashMovement
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		session, err := lockSession(tx, in.TenantID, in.SessionID)
		if err != nil {
			return err
		}
		movement, err = appendMovement(tx, session, &models.CashMovement{
			UserID:        in.UserID,
			Type:          typ,
			Direction:     dir,
			Category:      category,
			Description:   strings.TrimSpace(in.Description),
			Amount:        in.Amount,
			Method:        in.Method,
			AppointmentID: in.AppointmentID,
			PaymentID:     in.PaymentID,
			ExpenseID:     in.ExpenseID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("cash movement registered",
		"tenant_id", in.TenantID,
		"session_id", in.SessionID,
		"type", typ,
		"direction", dir,
		"amount", movement.Amount.StringFixed(2))
	return movement, nil
}

// lockSession loads a session for update. Sessions of other tenants and
// closed sessions both reject movements.
func lockSession(tx *gorm.DB, tenantID, sessionID uuid.UUID) (*models.CashSession, error) {
	var session models.CashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tenant_id = ?", sessionID, tenantID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &StateError{Message: "cash session not found for this shop"}
	}
	if err != nil {
		return nil, fmt.Errorf("lock cash session: %w", err)
	}
	if !session.IsOpen() {
		return nil, &StateError{Message: "cash session is closed"}
	}
	return &session, nil
}

type SyncResult struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// SyncPayments copies every PAID, not yet synced payment of the tenant into
// the open session as an ENTRY. Running it again finds nothing to sync.
func (s *CashService) SyncPayments(ctx context.Context, tenantID, userID uuid.UUID) (*SyncResult, error) {
	result := &SyncResult{Total: decimal.Zero}
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		session, err := findOpenSession(tx, tenantID)
		if err != nil {
			return err
		}
		if session == nil {
			return &StateError{Message: "open a cash session before syncing payments"}
		}

		var payments []models.Payment
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND status = ? AND synced = ?", tenantID, models.PaymentPaid, false).
			Order("date ASC").
			Find(&payments).Error
		if err != nil {
			return fmt.Errorf("load unsynced payments: %w", err)
		}

		for i := range payments {
			p := &payments[i]
			res := tx.Model(&models.Payment{}).
				Where("id = ? AND synced = ?", p.ID, false).
				Update("synced", true)
			if res.Error != nil {
				return fmt.Errorf("mark payment synced: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}
			if !p.Amount.IsPositive() {
				continue
			}
			_, err := appendMovement(tx, session, &models.CashMovement{
				UserID:      userID,
				Type:        models.MovementEntry,
				Direction:   models.DirectionIn,
				Category:    models.CategoryPayment,
				Description: fmt.Sprintf("Payment %s", p.Method),
				Amount:      p.Amount,
				Method:      string(p.Method),
				PaymentID:   &p.ID,
			})
			if err != nil {
				return err
			}
			result.Count++
			result.Total = result.Total.Add(p.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Total = result.Total.Round(2)
	if result.Count > 0 {
		s.Logger.Info("payments synced", "tenant_id", tenantID, "count", result.Count, "total", result.Total.StringFixed(2))
	}
	return result, nil
}
