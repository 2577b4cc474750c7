package services

import (
	"context"
	"fmt"
	"time"

	"barberpro-backend/models"
	"barberpro-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxGenerateDays = 366

type SlotService struct {
	Deps
}

func NewSlotService(d Deps) *SlotService {
	return &SlotService{Deps: d.withDefaults()}
}

type GenerateSlotsInput struct {
	TenantID        uuid.UUID
	StaffID         uuid.UUID
	Weekdays        []time.Weekday
	Start           string // HH:MM
	End             string // HH:MM, exclusive
	IntervalMinutes int
	From            time.Time
	To              time.Time // inclusive
}

// Generate creates the missing slots of a weekly pattern over a date range
// and returns how many were created. Running it twice creates nothing new.
func (s *SlotService) Generate(ctx context.Context, in GenerateSlotsInput) (int, error) {
	start, err := time.Parse(models.SlotTimeLayout, in.Start)
	if err != nil {
		return 0, invalid("start", "must be HH:MM")
	}
	end, err := time.Parse(models.SlotTimeLayout, in.End)
	if err != nil {
		return 0, invalid("end", "must be HH:MM")
	}
	from := utils.BeginningOfDay(in.From.UTC())
	to := utils.BeginningOfDay(in.To.UTC())

	switch {
	case in.IntervalMinutes <= 0:
		return 0, invalid("intervalMinutes", "must be positive")
	case !start.Before(end):
		return 0, invalid("start", "must be before end")
	case to.Before(from):
		return 0, invalid("from", "must not be after to")
	case utils.DaysBetween(from, to) >= maxGenerateDays:
		return 0, invalid("to", fmt.Sprintf("range cannot exceed %d days", maxGenerateDays))
	case len(in.Weekdays) == 0:
		return 0, invalid("weekdays", "select at least one weekday")
	}

	selected := make(map[time.Weekday]bool, len(in.Weekdays))
	for _, d := range in.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return 0, invalid("weekdays", fmt.Sprintf("invalid weekday %d", d))
		}
		selected[d] = true
	}

	var times []string
	step := time.Duration(in.IntervalMinutes) * time.Minute
	for t := start; t.Before(end); t = t.Add(step) {
		times = append(times, t.Format(models.SlotTimeLayout))
	}

	created := 0
	err = withTx(ctx, s.DB, func(tx *gorm.DB) error {
		if _, err := barberOf(tx, in.TenantID, in.StaffID); err != nil {
			return err
		}

		var existing []models.Slot
		err := tx.Select("date", "time").
			Where("tenant_id = ? AND staff_id = ? AND date >= ? AND date <= ?", in.TenantID, in.StaffID, from, to).
			Find(&existing).Error
		if err != nil {
			return fmt.Errorf("load existing slots: %w", err)
		}
		seen := make(map[string]bool, len(existing))
		for _, e := range existing {
			seen[slotKey(e.Date, e.Time)] = true
		}

		var batch []models.Slot
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			if !selected[day.Weekday()] {
				continue
			}
			for _, hhmm := range times {
				if seen[slotKey(day, hhmm)] {
					continue
				}
				batch = append(batch, models.Slot{
					TenantID:  in.TenantID,
					StaffID:   in.StaffID,
					Date:      day,
					Time:      hhmm,
					Available: true,
				})
			}
		}
		if len(batch) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&batch, 200).Error; err != nil {
			return translate(err, "slot", "", "create slots")
		}
		created = len(batch)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.Logger.Info("slots generated", "tenant_id", in.TenantID, "staff_id", in.StaffID, "created", created)
	return created, nil
}

func slotKey(date time.Time, hhmm string) string {
	return date.Format(utils.DateLayout) + " " + hhmm
}

// Toggle flips a slot between available and manually blocked. A slot held
// by an appointment cannot be toggled.
func (s *SlotService) Toggle(ctx context.Context, tenantID, slotID uuid.UUID) (*models.Slot, error) {
	var slot models.Slot
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND tenant_id = ?", slotID, tenantID).First(&slot).Error; err != nil {
			return translate(err, "slot", slotID.String(), "get slot")
		}
		if slot.Booked() {
			return &ConflictError{Message: "slot is booked and cannot be toggled"}
		}
		slot.Available, slot.Blocked = slot.Blocked, slot.Available
		err := tx.Model(&slot).Updates(map[string]interface{}{
			"available": slot.Available,
			"blocked":   slot.Blocked,
		}).Error
		if err != nil {
			return fmt.Errorf("toggle slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Delete removes a slot unless any appointment, whatever its status, sits
// at its staff and time.
func (s *SlotService) Delete(ctx context.Context, tenantID, slotID uuid.UUID) error {
	return withTx(ctx, s.DB, func(tx *gorm.DB) error {
		var slot models.Slot
		if err := tx.Where("id = ? AND tenant_id = ?", slotID, tenantID).First(&slot).Error; err != nil {
			return translate(err, "slot", slotID.String(), "get slot")
		}
		at, err := slot.StartsAt()
		if err != nil {
			return err
		}

		var n int64
		err = tx.Model(&models.Appointment{}).
			Where("tenant_id = ? AND staff_id = ? AND scheduled_at = ?", tenantID, slot.StaffID, at).
			Count(&n).Error
		if err != nil {
			return fmt.Errorf("check slot appointments: %w", err)
		}
		if n > 0 {
			return &ConflictError{Message: "slot has an appointment and cannot be deleted"}
		}

		if err := tx.Delete(&slot).Error; err != nil {
			return fmt.Errorf("delete slot: %w", err)
		}
		return nil
	})
}

// ListAvailable returns open slots of one barber between two dates, inclusive.
func (s *SlotService) ListAvailable(ctx context.Context, tenantID, staffID uuid.UUID, from, to time.Time) ([]models.Slot, error) {
	return s.List(ctx, tenantID, SlotFilter{StaffID: &staffID, From: &from, To: &to, AvailableOnly: true})
}

type SlotFilter struct {
	StaffID       *uuid.UUID
	From          *time.Time
	To            *time.Time
	AvailableOnly bool
}

func (s *SlotService) List(ctx context.Context, tenantID uuid.UUID, f SlotFilter) ([]models.Slot, error) {
	q := s.DB.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if f.StaffID != nil {
		q = q.Where("staff_id = ?", *f.StaffID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", utils.BeginningOfDay(f.From.UTC()))
	}
	if f.To != nil {
		q = q.Where("date <= ?", utils.BeginningOfDay(f.To.UTC()))
	}
	if f.AvailableOnly {
		q = q.Where("available = ?", true)
	}
	var slots []models.Slot
	if err := q.Order("date ASC, time ASC").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}
