package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

type Appointment struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID         `gorm:"type:uuid;index;not null"`
	StaffID       uuid.UUID         `gorm:"type:uuid;index:idx_appointment_staff_time,priority:1;not null"`
	ServiceID     uuid.UUID         `gorm:"type:uuid;index;not null"`
	SlotID        uuid.UUID         `gorm:"type:uuid;index;not null"`
	ClientName    string            `gorm:"not null"`
	ClientContact string            `gorm:"not null"`
	ScheduledAt   time.Time         `gorm:"index:idx_appointment_staff_time,priority:2;not null"`
	Status        AppointmentStatus `gorm:"type:varchar(20);not null;index"`
	Notes         string

	CompletedAt *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AppointmentScheduled
	}
	return
}
