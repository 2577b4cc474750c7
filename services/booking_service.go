package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barberpro-backend/events"
	"barberpro-backend/models"
	"barberpro-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingService struct {
	Deps
}

func NewBookingService(d Deps) *BookingService {
	return &BookingService{Deps: d.withDefaults()}
}

type BookInput struct {
	TenantSlug    string
	StaffID       uuid.UUID
	ServiceID     uuid.UUID
	SlotID        uuid.UUID
	ClientName    string
	ClientContact string
	Notes         string
}

// Book claims a slot and records the appointment in one transaction. Of any
// number of concurrent requests for the same slot exactly one succeeds; the
// rest get a ConflictError.
func (s *BookingService) Book(ctx context.Context, in BookInput) (*models.Appointment, error) {
	in.ClientName = strings.TrimSpace(in.ClientName)
	switch {
	case in.ClientName == "":
		return nil, invalid("clientName", "is required")
	case strings.TrimSpace(in.ClientContact) == "":
		return nil, invalid("clientContact", "is required")
	case !utils.ValidatePhone(in.ClientContact):
		return nil, invalid("clientContact", "invalid phone number")
	}

	var appt models.Appointment
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		tenant, err := activeTenantBySlug(tx, in.TenantSlug)
		if err != nil {
			return err
		}
		if _, err := barberOf(tx, tenant.ID, in.StaffID); err != nil {
			return err
		}

		var svc models.Service
		err = tx.Where("id = ? AND tenant_id = ? AND state = ?", in.ServiceID, tenant.ID, models.LifecycleActive).
			First(&svc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("serviceId", "service is not offered by this shop")
		}
		if err != nil {
			return fmt.Errorf("get service: %w", err)
		}
		if !svc.AvailableTo(in.StaffID) {
			return invalid("serviceId", "service is not offered by this barber")
		}

		var slot models.Slot
		err = tx.Where("id = ? AND tenant_id = ? AND staff_id = ?", in.SlotID, tenant.ID, in.StaffID).
			First(&slot).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("slotId", "slot does not belong to this barber")
		}
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if !slot.Available {
			return &ConflictError{Message: "slot is no longer available"}
		}
		at, err := slot.StartsAt()
		if err != nil {
			return err
		}
		if at.Before(s.Now()) {
			return invalid("slotId", "slot is in the past")
		}

		res := tx.Model(&models.Slot{}).
			Where("id = ? AND tenant_id = ? AND staff_id = ? AND available = ?", slot.ID, tenant.ID, in.StaffID, true).
			Update("available", false)
		if res.Error != nil {
			return fmt.Errorf("claim slot: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return &ConflictError{Message: "slot is no longer available"}
		}

		appt = models.Appointment{
			TenantID:      tenant.ID,
			StaffID:       in.StaffID,
			ServiceID:     svc.ID,
			SlotID:        slot.ID,
			ClientName:    in.ClientName,
			ClientContact: utils.NormalizePhone(in.ClientContact),
			ScheduledAt:   at,
			Status:        models.AppointmentScheduled,
			Notes:         in.Notes,
		}
		if err := tx.Create(&appt).Error; err != nil {
			return translate(err, "appointment", "", "create appointment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("appointment booked", "tenant_id", appt.TenantID, "appointment_id", appt.ID, "slot_id", appt.SlotID)
	s.publish(ctx, events.New(events.AppointmentBooked, appt.TenantID, map[string]any{
		"appointment_id": appt.ID,
		"staff_id":       appt.StaffID,
		"service_id":     appt.ServiceID,
		"scheduled_at":   appt.ScheduledAt,
	}))
	return &appt, nil
}

// Complete moves a SCHEDULED appointment to COMPLETED and books the service
// price into the tenant's open cash session, opening one if needed. It
// returns false without side effects for any other status.
func (s *BookingService) Complete(ctx context.Context, tenantID, appointmentID, userID uuid.UUID) (bool, error) {
	var (
		appt      models.Appointment
		completed bool
		price     string
	)
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND tenant_id = ?", appointmentID, tenantID).
			First(&appt).Error
		if err != nil {
			return translate(err, "appointment", appointmentID.String(), "get appointment")
		}
		if appt.Status != models.AppointmentScheduled {
			return nil
		}

		now := s.Now()
		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND status = ?", appt.ID, models.AppointmentScheduled).
			Updates(map[string]interface{}{"status": models.AppointmentCompleted, "completed_at": now})
		if res.Error != nil {
			return fmt.Errorf("complete appointment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		appt.Status = models.AppointmentCompleted
		appt.CompletedAt = &now

		var svc models.Service
		if err := tx.Where("id = ? AND tenant_id = ?", appt.ServiceID, tenantID).First(&svc).Error; err != nil {
			return translate(err, "service", appt.ServiceID.String(), "get service")
		}

		if svc.Price.IsPositive() {
			session, err := getOrCreateOpenSession(tx, tenantID, userID, now)
			if err != nil {
				return err
			}
			_, err = appendMovement(tx, session, &models.CashMovement{
				UserID:        userID,
				Type:          models.MovementEntry,
				Direction:     models.DirectionIn,
				Category:      models.CategoryService,
				Description:   fmt.Sprintf("%s - %s", svc.Name, appt.ClientName),
				Amount:        svc.Price,
				AppointmentID: &appt.ID,
			})
			if err != nil {
				return err
			}
		}
		completed = true
		price = svc.Price.StringFixed(2)
		return nil
	})
	if err != nil || !completed {
		return false, err
	}

	s.Logger.Info("appointment completed", "tenant_id", tenantID, "appointment_id", appt.ID, "amount", price)
	s.publish(ctx, events.New(events.AppointmentCompleted, tenantID, map[string]any{
		"appointment_id": appt.ID,
		"staff_id":       appt.StaffID,
		"amount":         price,
	}))
	return true, nil
}

// Cancel cancels an appointment and releases its slot unless the slot was
// blocked meanwhile. Cancelling twice is a no-op.
func (s *BookingService) Cancel(ctx context.Context, tenantID, appointmentID uuid.UUID) error {
	var (
		appt      models.Appointment
		cancelled bool
	)
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND tenant_id = ?", appointmentID, tenantID).
			First(&appt).Error
		if err != nil {
			return translate(err, "appointment", appointmentID.String(), "get appointment")
		}
		switch appt.Status {
		case models.AppointmentCancelled:
			return nil
		case models.AppointmentCompleted:
			return &StateError{Message: "completed appointments cannot be cancelled"}
		}

		now := s.Now()
		err = tx.Model(&appt).Updates(map[string]interface{}{
			"status":       models.AppointmentCancelled,
			"cancelled_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("cancel appointment: %w", err)
		}
		err = tx.Model(&models.Slot{}).
			Where("id = ? AND tenant_id = ? AND blocked = ?", appt.SlotID, tenantID, false).
			Update("available", true).Error
		if err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
		cancelled = true
		return nil
	})
	if err != nil || !cancelled {
		return err
	}

	s.Logger.Info("appointment cancelled", "tenant_id", tenantID, "appointment_id", appt.ID)
	s.publish(ctx, events.New(events.AppointmentCancelled, tenantID, map[string]any{
		"appointment_id": appt.ID,
		"slot_id":        appt.SlotID,
	}))
	return nil
}

func (s *BookingService) Get(ctx context.Context, tenantID, appointmentID uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.DB.WithContext(ctx).Where("id = ? AND tenant_id = ?", appointmentID, tenantID).First(&appt).Error
	if err != nil {
		return nil, translate(err, "appointment", appointmentID.String(), "get appointment")
	}
	return &appt, nil
}

type AppointmentFilter struct {
	StaffID *uuid.UUID
	Status  models.AppointmentStatus
	From    *time.Time
	To      *time.Time // exclusive
}

// AppointmentView is an appointment joined with its service and barber names.
type AppointmentView struct {
	models.Appointment
	ServiceName string `json:"serviceName"`
	StaffName   string `json:"staffName"`
}

func (s *BookingService) List(ctx context.Context, tenantID uuid.UUID, f AppointmentFilter) ([]AppointmentView, error) {
	q := s.DB.WithContext(ctx).
		Table("appointments").
		Select("appointments.*, services.name AS service_name, users.name AS staff_name").
		Joins("LEFT JOIN services ON services.id = appointments.service_id").
		Joins("LEFT JOIN users ON users.id = appointments.staff_id").
		Where("appointments.tenant_id = ?", tenantID)
	if f.StaffID != nil {
		q = q.Where("appointments.staff_id = ?", *f.StaffID)
	}
	if f.Status != "" {
		q = q.Where("appointments.status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("appointments.scheduled_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("appointments.scheduled_at < ?", f.To.UTC())
	}

	var out []AppointmentView
	if err := q.Order("appointments.scheduled_at ASC").Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}
