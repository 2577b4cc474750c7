package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementEntry      MovementType = "ENTRY"
	MovementExit       MovementType = "EXIT"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// Direction carries the balance effect of a movement. Amount is always positive.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Movement categories written by the system itself.
const (
	CategoryOpeningBalance = "OPENING_BALANCE"
	CategoryService        = "SERVICE"
	CategoryPayment        = "PAYMENT"
	CategoryRefund         = "REFUND"
	CategoryExpense        = "EXPENSE"
	CategoryAdjustment     = "ADJUSTMENT"
)

// SystemCategory reports whether c is reserved for movements the system writes.
func SystemCategory(c string) bool {
	switch c {
	case CategoryOpeningBalance, CategoryService, CategoryPayment, CategoryRefund, CategoryExpense, CategoryAdjustment:
		return true
	}
	return false
}

// CashMovement is an append-only log row. There is no update or delete path.
type CashMovement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	SessionID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null"`
	Type        MovementType    `gorm:"type:varchar(20);not null"`
	Direction   Direction       `gorm:"type:varchar(3);not null"`
	Category    string          `gorm:"type:varchar(40);not null;index"`
	Description string          `gorm:"type:text"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Method      string          `gorm:"type:varchar(20)"`

	AppointmentID *uuid.UUID `gorm:"type:uuid;index"`
	PaymentID     *uuid.UUID `gorm:"type:uuid;index"`
	ExpenseID     *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time `gorm:"index"`
}

func (m *CashMovement) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// Signed returns the amount with the sign of its direction.
func (m *CashMovement) Signed() decimal.Decimal {
	if m.Direction == DirectionOut {
		return m.Amount.Neg()
	}
	return m.Amount
}
