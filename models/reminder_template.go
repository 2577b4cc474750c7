package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Placeholders substituted into ReminderTemplate.Message.
const (
	PlaceholderClientName = "[ClientName]"
	PlaceholderService    = "[Service]"
	PlaceholderTime       = "[Time]"
	PlaceholderShop       = "[Shop]"
)

type ReminderTemplate struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Message  string    `gorm:"type:text;not null"`
	Active   bool      `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *ReminderTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
