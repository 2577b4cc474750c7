package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barberpro-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentService struct {
	Deps
}

func NewPaymentService(d Deps) *PaymentService {
	return &PaymentService{Deps: d.withDefaults()}
}

type PaymentInput struct {
	AppointmentID *uuid.UUID
	StaffID       *uuid.UUID
	Amount        decimal.Decimal
	Method        models.PaymentMethod
	Date          time.Time
	Notes         string
}

// Create records a PAID payment. When tied to an appointment the barber is
// taken from it.
func (s *PaymentService) Create(ctx context.Context, tenantID uuid.UUID, in PaymentInput) (*models.Payment, error) {
	in.Amount = in.Amount.Round(2)
	if !in.Amount.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	if !in.Method.Valid() {
		return nil, invalid("method", "must be CASH, CARD, PIX or OTHER")
	}
	if in.Date.IsZero() {
		in.Date = s.Now()
	}

	payment := &models.Payment{
		TenantID:      tenantID,
		AppointmentID: in.AppointmentID,
		StaffID:       in.StaffID,
		Amount:        in.Amount,
		Method:        in.Method,
		Status:        models.PaymentPaid,
		Date:          in.Date.UTC(),
		Notes:         in.Notes,
	}
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		if in.AppointmentID != nil {
			var appt models.Appointment
			err := tx.Where("id = ? AND tenant_id = ?", *in.AppointmentID, tenantID).First(&appt).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("appointmentId", "appointment does not belong to this shop")
			}
			if err != nil {
				return fmt.Errorf("get appointment: %w", err)
			}
			if appt.Status == models.AppointmentCancelled {
				return &StateError{Message: "cannot take payment for a cancelled appointment"}
			}
			payment.StaffID = &appt.StaffID
		} else if in.StaffID != nil {
			if _, err := staffOf(tx, tenantID, *in.StaffID); err != nil {
				if IsNotFound(err) {
					return invalid("staffId", "staff does not belong to this shop")
				}
				return err
			}
		}
		if err := tx.Create(payment).Error; err != nil {
			return translate(err, "payment", "", "create payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Refund marks a PAID payment REFUNDED. If the payment was already synced
// into the drawer, an EXIT is appended to the open session (opened if
// needed) so the cash balance stays true.
func (s *PaymentService) Refund(ctx context.Context, tenantID, paymentID, userID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND tenant_id = ?", paymentID, tenantID).
			First(&payment).Error
		if err != nil {
			return translate(err, "payment", paymentID.String(), "get payment")
		}
		if payment.Status != models.PaymentPaid {
			return &StateError{Message: fmt.Sprintf("payment is %s", payment.Status)}
		}
		if err := tx.Model(&payment).Update("status", models.PaymentRefunded).Error; err != nil {
			return fmt.Errorf("refund payment: %w", err)
		}
		payment.Status = models.PaymentRefunded

		if !payment.Synced {
			return nil
		}
		session, err := getOrCreateOpenSession(tx, tenantID, userID, s.Now())
		if err != nil {
			return err
		}
		_, err = appendMovement(tx, session, &models.CashMovement{
			UserID:      userID,
			Type:        models.MovementExit,
			Direction:   models.DirectionOut,
			Category:    models.CategoryRefund,
			Description: fmt.Sprintf("Refund of payment %s", payment.ID),
			Amount:      payment.Amount,
			Method:      string(payment.Method),
			PaymentID:   &payment.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("payment refunded", "tenant_id", tenantID, "payment_id", payment.ID, "synced", payment.Synced)
	return &payment, nil
}

func (s *PaymentService) List(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.DB.WithContext(ctx).
		Where("tenant_id = ? AND date >= ? AND date < ?", tenantID, from.UTC(), to.UTC()).
		Order("date DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
