package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barberpro-backend/events"
	"barberpro-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CashService manages cash sessions and their append-only movement log.
type CashService struct {
	Deps
}

func NewCashService(d Deps) *CashService {
	return &CashService{Deps: d.withDefaults()}
}

// Open starts a session. Only one session per tenant may be open.
func (s *CashService) Open(ctx context.Context, tenantID, userID uuid.UUID, opening decimal.Decimal, notes string) (*models.CashSession, error) {
	opening = opening.Round(2)
	if opening.IsNegative() {
		return nil, invalid("openingBalance", "cannot be negative")
	}

	var session *models.CashSession
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		current, err := findOpenSession(tx, tenantID)
		if err != nil {
			return err
		}
		if current != nil {
			return &ConflictError{Message: "a cash session is already open"}
		}
		session, err = createSession(tx, tenantID, userID, opening, notes, s.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("cash session opened", "tenant_id", tenantID, "session_id", session.ID, "opening", opening.StringFixed(2))
	return session, nil
}

func (s *CashService) GetOrCreateOpen(ctx context.Context, tenantID, userID uuid.UUID) (*models.CashSession, error) {
	var session *models.CashSession
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		var err error
		session, err = getOrCreateOpenSession(tx, tenantID, userID, s.Now())
		return err
	})
	return session, err
}

// Close closes the open session. A nil closing balance means the drawer
// matched the computed balance.
func (s *CashService) Close(ctx context.Context, tenantID, userID uuid.UUID, closing *decimal.Decimal, notes string) (*models.CashSession, error) {
	var session *models.CashSession
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		var err error
		session, err = findOpenSession(tx, tenantID)
		if err != nil {
			return err
		}
		if session == nil {
			return &NotFoundError{Resource: "open cash session"}
		}

		computed := session.ComputedBalance()
		counted := computed
		if closing != nil {
			counted = closing.Round(2)
			if counted.IsNegative() {
				return invalid("closingBalance", "cannot be negative")
			}
		}
		discrepancy := counted.Sub(computed)
		now := s.Now()

		updates := map[string]interface{}{
			"status":          models.SessionClosed,
			"closed_by":       userID,
			"closed_at":       now,
			"closing_balance": counted,
			"discrepancy":     discrepancy,
		}
		if notes = strings.TrimSpace(notes); notes != "" {
			if session.Notes != "" {
				notes = session.Notes + "\n" + notes
			}
			updates["notes"] = notes
			session.Notes = notes
		}
		if err := tx.Model(session).Updates(updates).Error; err != nil {
			return fmt.Errorf("close cash session: %w", err)
		}
		session.Status = models.SessionClosed
		session.ClosedBy = &userID
		session.ClosedAt = &now
		session.ClosingBalance = &counted
		session.Discrepancy = &discrepancy
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("cash session closed",
		"tenant_id", tenantID,
		"session_id", session.ID,
		"closing", session.ClosingBalance.StringFixed(2),
		"discrepancy", session.Discrepancy.StringFixed(2))
	s.publish(ctx, events.New(events.CashSessionClosed, tenantID, map[string]any{
		"session_id":  session.ID,
		"closing":     session.ClosingBalance.StringFixed(2),
		"discrepancy": session.Discrepancy.StringFixed(2),
	}))
	return session, nil
}

// Current returns the open session, or nil when the drawer is closed.
func (s *CashService) Current(ctx context.Context, tenantID uuid.UUID) (*models.CashSession, error) {
	return loadOpenSession(s.DB.WithContext(ctx), tenantID)
}

func (s *CashService) History(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.CashSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var sessions []models.CashSession
	err := s.DB.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("opened_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list cash sessions: %w", err)
	}
	return sessions, nil
}

type SessionDetail struct {
	Session   models.CashSession    `json:"session"`
	Movements []models.CashMovement `json:"movements"`
	Balance   decimal.Decimal       `json:"balance"`
}

func (s *CashService) Detail(ctx context.Context, tenantID, sessionID uuid.UUID) (*SessionDetail, error) {
	db := s.DB.WithContext(ctx)
	var d SessionDetail
	if err := db.Where("id = ? AND tenant_id = ?", sessionID, tenantID).First(&d.Session).Error; err != nil {
		return nil, translate(err, "cash session", sessionID.String(), "get cash session")
	}
	err := db.Where("session_id = ? AND tenant_id = ?", sessionID, tenantID).
		Order("created_at ASC").
		Find(&d.Movements).Error
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	d.Balance = d.Session.ComputedBalance()
	return &d, nil
}

// Reconciliation compares the cached session totals with the movement log.
type Reconciliation struct {
	SessionID     uuid.UUID       `json:"sessionId"`
	CachedEntries decimal.Decimal `json:"cachedEntries"`
	CachedExits   decimal.Decimal `json:"cachedExits"`
	LoggedEntries decimal.Decimal `json:"loggedEntries"`
	LoggedExits   decimal.Decimal `json:"loggedExits"`
	CachedBalance decimal.Decimal `json:"cachedBalance"`
	LoggedBalance decimal.Decimal `json:"loggedBalance"`
	Matches       bool            `json:"matches"`
}

func (s *CashService) Reconcile(ctx context.Context, tenantID, sessionID uuid.UUID) (*Reconciliation, error) {
	db := s.DB.WithContext(ctx)
	var session models.CashSession
	if err := db.Where("id = ? AND tenant_id = ?", sessionID, tenantID).First(&session).Error; err != nil {
		return nil, translate(err, "cash session", sessionID.String(), "get cash session")
	}

	in, err := sumMovements(db.Where("category <> ?", models.CategoryOpeningBalance), sessionID, models.DirectionIn)
	if err != nil {
		return nil, err
	}
	out, err := sumMovements(db, sessionID, models.DirectionOut)
	if err != nil {
		return nil, err
	}
	all, err := sumMovements(db, sessionID, models.DirectionIn)
	if err != nil {
		return nil, err
	}

	r := &Reconciliation{
		SessionID:     session.ID,
		CachedEntries: session.TotalEntries.Round(2),
		CachedExits:   session.TotalExits.Round(2),
		LoggedEntries: in,
		LoggedExits:   out,
		CachedBalance: session.ComputedBalance(),
		LoggedBalance: all.Sub(out).Round(2),
	}
	r.Matches = r.CachedEntries.Equal(r.LoggedEntries) &&
		r.CachedExits.Equal(r.LoggedExits) &&
		r.CachedBalance.Equal(r.LoggedBalance)
	if !r.Matches {
		s.Logger.Error("cash session out of balance",
			"tenant_id", tenantID,
			"session_id", sessionID,
			"cached_balance", r.CachedBalance.StringFixed(2),
			"logged_balance", r.LoggedBalance.StringFixed(2))
	}
	return r, nil
}

type sumRow struct {
	Total decimal.Decimal
}

func sumMovements(db *gorm.DB, sessionID uuid.UUID, dir models.Direction) (decimal.Decimal, error) {
	var row sumRow
	err := db.Model(&models.CashMovement{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("session_id = ? AND direction = ?", sessionID, dir).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return row.Total.Round(2), nil
}

// findOpenSession returns the tenant's open session locked for update, or
// nil if the drawer is closed.
func findOpenSession(tx *gorm.DB, tenantID uuid.UUID) (*models.CashSession, error) {
	return loadOpenSession(tx.Clauses(clause.Locking{Strength: "UPDATE"}), tenantID)
}

func loadOpenSession(db *gorm.DB, tenantID uuid.UUID) (*models.CashSession, error) {
	var session models.CashSession
	err := db.
		Where("tenant_id = ? AND status = ?", tenantID, models.SessionOpen).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open cash session: %w", err)
	}
	return &session, nil
}

func getOrCreateOpenSession(tx *gorm.DB, tenantID, userID uuid.UUID, now time.Time) (*models.CashSession, error) {
	session, err := findOpenSession(tx, tenantID)
	if err != nil || session != nil {
		return session, err
	}
	return createSession(tx, tenantID, userID, decimal.Zero, "", now)
}

// createSession inserts an OPEN session. A positive opening balance is also
// logged as an OPENING_BALANCE entry; it is already counted in
// OpeningBalance and so does not touch TotalEntries.
func createSession(tx *gorm.DB, tenantID, userID uuid.UUID, opening decimal.Decimal, notes string, now time.Time) (*models.CashSession, error) {
	session := &models.CashSession{
		TenantID:       tenantID,
		OpenedBy:       userID,
		Status:         models.SessionOpen,
		OpeningBalance: opening,
		TotalEntries:   decimal.Zero,
		TotalExits:     decimal.Zero,
		Notes:          strings.TrimSpace(notes),
		OpenedAt:       now,
	}
	if err := tx.Create(session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Message: "a cash session is already open"}
		}
		return nil, fmt.Errorf("open cash session: %w", err)
	}

	if opening.IsPositive() {
		m := &models.CashMovement{
			TenantID:    tenantID,
			SessionID:   session.ID,
			UserID:      userID,
			Type:        models.MovementEntry,
			Direction:   models.DirectionIn,
			Category:    models.CategoryOpeningBalance,
			Description: "Opening balance",
			Amount:      opening,
			Method:      string(models.MethodCash),
		}
		if err := tx.Create(m).Error; err != nil {
			return nil, fmt.Errorf("log opening balance: %w", err)
		}
	}
	return session, nil
}

// appendMovement inserts m into session and bumps the matching total in the
// same transaction. session must have been loaded through tx.
func appendMovement(tx *gorm.DB, session *models.CashSession, m *models.CashMovement) (*models.CashMovement, error) {
	if !session.IsOpen() {
		return nil, &StateError{Message: "cash session is closed"}
	}
	m.Amount = m.Amount.Round(2)
	if !m.Amount.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	m.TenantID = session.TenantID
	m.SessionID = session.ID

	if err := tx.Create(m).Error; err != nil {
		return nil, fmt.Errorf("append cash movement: %w", err)
	}

	column := "total_entries"
	if m.Direction == models.DirectionOut {
		column = "total_exits"
	}
	err := tx.Model(&models.CashSession{}).
		Where("id = ?", session.ID).
		Update(column, gorm.Expr(column+" + ?", m.Amount)).Error
	if err != nil {
		return nil, fmt.Errorf("update session totals: %w", err)
	}

	if m.Direction == models.DirectionOut {
		session.TotalExits = session.TotalExits.Add(m.Amount)
	} else {
		session.TotalEntries = session.TotalEntries.Add(m.Amount)
	}
	return m, nil
}
