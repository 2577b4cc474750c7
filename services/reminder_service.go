// services/reminder_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barberpro-backend/models"
	"barberpro-backend/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// MessageSender delivers one text message and returns the provider id.
type MessageSender interface {
	Send(ctx context.Context, channel, to, body string) (string, error)
}

// TwilioSender sends over SMS or WhatsApp through the Twilio REST API.
type TwilioSender struct {
	client         *twilio.RestClient
	phoneNumber    string
	whatsAppNumber string
}

func NewTwilioSender(accountSID, authToken, phoneNumber, whatsAppNumber string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		phoneNumber:    phoneNumber,
		whatsAppNumber: whatsAppNumber,
	}
}

func (t *TwilioSender) Send(_ context.Context, channel, to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(body)
	if channel == channelWhatsApp {
		params.SetTo("whatsapp:" + to)
		params.SetFrom("whatsapp:" + t.whatsAppNumber)
	} else {
		params.SetTo(to)
		params.SetFrom(t.phoneNumber)
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

const (
	channelSMS      = "sms"
	channelWhatsApp = "whatsapp"

	reminderSent   = "sent"
	reminderFailed = "failed"
)

// ReminderService texts clients the day before their appointment.
type ReminderService struct {
	Deps
	sender   MessageSender
	location *time.Location
}

func NewReminderService(d Deps, sender MessageSender, location *time.Location) *ReminderService {
	if location == nil {
		location = time.UTC
	}
	return &ReminderService{Deps: d.withDefaults(), sender: sender, location: location}
}

// StartScheduler runs SendDailyReminders on schedule (standard 5-field cron)
// until the returned scheduler is stopped.
func (s *ReminderService) StartScheduler(ctx context.Context, schedule string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(s.location))
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.SendDailyReminders(ctx); err != nil {
			s.Logger.Error("daily reminders failed", "err", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminders %q: %w", schedule, err)
	}
	c.Start()
	s.Logger.Info("reminder scheduler started", "schedule", schedule, "location", s.location.String())
	return c, nil
}

type ReminderStats struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// SendDailyReminders notifies clients of every active tenant about
// tomorrow's appointments. Each appointment is reminded at most once.
func (s *ReminderService) SendDailyReminders(ctx context.Context) (ReminderStats, error) {
	var stats ReminderStats
	s.Logger.Info("starting daily reminder processing")

	var tenants []models.Tenant
	if err := s.DB.WithContext(ctx).Where("active = ?", true).Find(&tenants).Error; err != nil {
		return stats, fmt.Errorf("fetch tenants: %w", err)
	}

	for i := range tenants {
		st, err := s.ProcessTenantReminders(ctx, &tenants[i])
		if err != nil {
			s.Logger.Error("tenant reminders failed", "tenant_id", tenants[i].ID, "err", err)
			continue
		}
		stats.Sent += st.Sent
		stats.Failed += st.Failed
	}

	s.Logger.Info("daily reminder processing completed", "sent", stats.Sent, "failed", stats.Failed)
	return stats, nil
}

type reminderRow struct {
	models.Appointment
	ServiceName string
}

func (s *ReminderService) ProcessTenantReminders(ctx context.Context, tenant *models.Tenant) (ReminderStats, error) {
	var stats ReminderStats
	db := s.DB.WithContext(ctx)

	var template models.ReminderTemplate
	err := db.Where("tenant_id = ? AND active = ?", tenant.ID, true).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("get reminder template: %w", err)
	}

	// Slot times are shop wall-clock times stored as UTC.
	local := s.Now().In(s.location)
	tomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, time.UTC)

	var rows []reminderRow
	err = db.Table("appointments").
		Select("appointments.*, services.name AS service_name").
		Joins("JOIN services ON services.id = appointments.service_id").
		Joins("LEFT JOIN reminder_logs ON reminder_logs.appointment_id = appointments.id").
		Where("appointments.tenant_id = ? AND appointments.status = ? AND appointments.scheduled_at >= ? AND appointments.scheduled_at < ?",
			tenant.ID, models.AppointmentScheduled, tomorrow, tomorrow.AddDate(0, 0, 1)).
		Where("reminder_logs.id IS NULL").
		Order("appointments.scheduled_at ASC").
		Scan(&rows).Error
	if err != nil {
		return stats, fmt.Errorf("load tomorrow's appointments: %w", err)
	}

	for i := range rows {
		if s.sendReminder(ctx, tenant, &template, &rows[i]) {
			stats.Sent++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}

func (s *ReminderService) sendReminder(ctx context.Context, tenant *models.Tenant, template *models.ReminderTemplate, row *reminderRow) bool {
	message := RenderReminder(template.Message, tenant.Name, row.ClientName, row.ServiceName, row.ScheduledAt)

	// WhatsApp when the contact is in E.164 form, SMS otherwise
	channel := channelSMS
	if strings.HasPrefix(row.ClientContact, "+") {
		channel = channelWhatsApp
	}

	status, errorMsg := reminderSent, ""
	sid, err := s.sender.Send(ctx, channel, row.ClientContact, message)
	if err != nil {
		s.Logger.Warn("reminder send failed", "appointment_id", row.ID, "channel", channel, "err", err)
		status, errorMsg = reminderFailed, err.Error()
	} else {
		s.Logger.Info("reminder sent", "appointment_id", row.ID, "channel", channel, "sid", sid)
	}

	reminderLog := models.ReminderLog{
		TenantID:      tenant.ID,
		AppointmentID: row.ID,
		TemplateID:    template.ID,
		Message:       message,
		Status:        status,
		ErrorMessage:  errorMsg,
		Channel:       channel,
		SentAt:        s.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(&reminderLog).Error; err != nil {
		s.Logger.Error("failed to log reminder", "appointment_id", row.ID, "err", err)
	}
	return status == reminderSent
}

// RenderReminder fills the template placeholders.
func RenderReminder(tpl, shop, client, service string, at time.Time) string {
	return strings.NewReplacer(
		models.PlaceholderClientName, client,
		models.PlaceholderService, service,
		models.PlaceholderTime, at.Format(models.SlotTimeLayout),
		models.PlaceholderShop, shop,
	).Replace(tpl)
}

func (s *ReminderService) GetTemplate(ctx context.Context, tenantID uuid.UUID) (*models.ReminderTemplate, error) {
	var t models.ReminderTemplate
	if err := s.DB.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&t).Error; err != nil {
		return nil, translate(err, "reminder template", "", "get reminder template")
	}
	return &t, nil
}

// SaveTemplate creates or replaces the tenant's reminder template.
func (s *ReminderService) SaveTemplate(ctx context.Context, tenantID uuid.UUID, message string, active bool) (*models.ReminderTemplate, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, invalid("message", "is required")
	}
	if !strings.Contains(message, models.PlaceholderClientName) {
		return nil, invalid("message", "must contain "+models.PlaceholderClientName)
	}

	var t models.ReminderTemplate
	err := withTx(ctx, s.DB, func(tx *gorm.DB) error {
		err := tx.Where("tenant_id = ?", tenantID).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			t = models.ReminderTemplate{TenantID: tenantID, Message: message, Active: active}
			return translate(tx.Create(&t).Error, "reminder template", "", "create reminder template")
		}
		if err != nil {
			return fmt.Errorf("get reminder template: %w", err)
		}
		t.Message, t.Active = message, active
		return translate(tx.Model(&t).Updates(map[string]interface{}{"message": message, "active": active}).Error,
			"reminder template", "", "update reminder template")
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *ReminderService) ListLogs(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.ReminderLog, error) {
	var logs []models.ReminderLog
	err := s.DB.WithContext(ctx).
		Where("tenant_id = ? AND sent_at >= ? AND sent_at < ?", tenantID, from, to).
		Order("sent_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list reminder logs: %w", err)
	}
	return logs, nil
}

// NopSender accepts every message without delivering it. Used when Twilio
// is not configured.
type NopSender struct{}

func (NopSender) Send(context.Context, string, string, string) (string, error) {
	return "nop-" + utils.GenerateRandomString(8), nil
}
