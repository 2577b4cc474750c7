package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlotTimeLayout is the wall-clock format of Slot.Time.
const SlotTimeLayout = "15:04"

// Slot is a bookable (staff, date, time) unit generated ahead of time.
//
// Available=false with Blocked=true is a manual block; Available=false with
// Blocked=false means an appointment holds it.
type Slot struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_slot_unique,priority:1"`
	StaffID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_slot_unique,priority:2"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_slot_unique,priority:3"`
	Time      string    `gorm:"type:varchar(5);not null;uniqueIndex:idx_slot_unique,priority:4"`
	Available bool      `gorm:"not null;index"`
	Blocked   bool      `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Slot) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// StartsAt combines Date and Time. Wall-clock times are stored as UTC.
func (s *Slot) StartsAt() (time.Time, error) {
	clock, err := time.Parse(SlotTimeLayout, s.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("slot %s: bad time %q: %w", s.ID, s.Time, err)
	}
	y, m, d := s.Date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, time.UTC), nil
}

// Booked reports whether the slot is taken by an appointment rather than blocked.
func (s *Slot) Booked() bool { return !s.Available && !s.Blocked }
