package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED"
)

// CashSession is one open/close cycle of a tenant's drawer. At most one per
// tenant is OPEN; the partial unique index enforces it at the database.
type CashSession struct {
	ID       uuid.UUID     `gorm:"type:uuid;primary_key"`
	TenantID uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:idx_cash_session_one_open,where:status = 'OPEN'"`
	OpenedBy uuid.UUID     `gorm:"type:uuid;not null"`
	ClosedBy *uuid.UUID    `gorm:"type:uuid"`
	Status   SessionStatus `gorm:"type:varchar(10);not null;index"`

	OpeningBalance decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	TotalEntries   decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	TotalExits     decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	ClosingBalance *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Discrepancy    *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Notes          string

	OpenedAt  time.Time `gorm:"not null"`
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *CashSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SessionOpen
	}
	return
}

// ComputedBalance is what the drawer should hold according to the cached totals.
func (s *CashSession) ComputedBalance() decimal.Decimal {
	return s.OpeningBalance.Add(s.TotalEntries).Sub(s.TotalExits).Round(2)
}

func (s *CashSession) IsOpen() bool { return s.Status == SessionOpen }
