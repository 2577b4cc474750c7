package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	StaffID     *uuid.UUID `gorm:"type:uuid;index"` // nil means any barber can perform it
	Name        string     `gorm:"not null"`
	Description string
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DurationMin int             `gorm:"not null"`
	State       Lifecycle       `gorm:"type:varchar(20);not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.State == "" {
		s.State = LifecycleActive
	}
	return
}

// AvailableTo reports whether a booking with the given barber may use this service.
func (s *Service) AvailableTo(staffID uuid.UUID) bool {
	return s.StaffID == nil || *s.StaffID == staffID
}
