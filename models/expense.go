package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	Category    string          `gorm:"type:varchar(40);not null;index"`
	Description string          `gorm:"type:text"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Method      PaymentMethod   `gorm:"type:varchar(20);not null"`
	Date        time.Time       `gorm:"not null;index"`
	CreatedBy   uuid.UUID       `gorm:"type:uuid"`

	CreatedAt time.Time
}

func (e *Expense) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
