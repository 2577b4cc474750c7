package services

import (
	"context"
	"fmt"
	"time"

	"barberpro-backend/models"
	"barberpro-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const topServicesLimit = 5

var hundred = decimal.NewFromInt(100)

// ReportService is read-only. Ranges are half-open: [from, to).
type ReportService struct {
	Deps
}

func NewReportService(d Deps) *ReportService {
	return &ReportService{Deps: d.withDefaults()}
}

type ServiceSummary struct {
	Name    string          `json:"name"`
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Overview struct {
	From                  time.Time        `json:"from"`
	To                    time.Time        `json:"to"`
	Revenue               decimal.Decimal  `json:"revenue"`
	Expenses              decimal.Decimal  `json:"expenses"`
	Profit                decimal.Decimal  `json:"profit"`
	CompletedAppointments int64            `json:"completedAppointments"`
	AverageTicket         decimal.Decimal  `json:"averageTicket"`
	TopServices           []ServiceSummary `json:"topServices"`
	CashInflow            decimal.Decimal  `json:"cashInflow"`
	CashOutflow           decimal.Decimal  `json:"cashOutflow"`
	Adjustments           decimal.Decimal  `json:"adjustments"`
	RevenueGrowth         decimal.Decimal  `json:"revenueGrowth"`
}

func (s *ReportService) Overview(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*Overview, error) {
	if !from.Before(to) {
		return nil, invalid("from", "must be before to")
	}
	db := s.DB.WithContext(ctx)
	o := &Overview{From: from, To: to}
	var err error

	if o.Revenue, err = revenue(db, tenantID, from, to); err != nil {
		return nil, err
	}
	prevFrom := from.Add(-to.Sub(from))
	prevRevenue, err := revenue(db, tenantID, prevFrom, from)
	if err != nil {
		return nil, err
	}
	o.RevenueGrowth = calculateGrowthPercentage(o.Revenue, prevRevenue)

	if o.Expenses, err = sumDecimal(db.Model(&models.Expense{}).
		Where("tenant_id = ? AND date >= ? AND date < ?", tenantID, from, to), "amount"); err != nil {
		return nil, fmt.Errorf("sum expenses: %w", err)
	}
	o.Profit = o.Revenue.Sub(o.Expenses)

	err = db.Model(&models.Appointment{}).
		Where("tenant_id = ? AND status = ? AND scheduled_at >= ? AND scheduled_at < ?",
			tenantID, models.AppointmentCompleted, from, to).
		Count(&o.CompletedAppointments).Error
	if err != nil {
		return nil, fmt.Errorf("count completed appointments: %w", err)
	}
	o.AverageTicket = decimal.Zero
	if o.CompletedAppointments > 0 {
		o.AverageTicket = o.Revenue.Div(decimal.NewFromInt(o.CompletedAppointments)).Round(2)
	}

	if o.TopServices, err = topServices(db, tenantID, from, to, topServicesLimit); err != nil {
		return nil, err
	}

	movements := func() *gorm.DB {
		return db.Model(&models.CashMovement{}).
			Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, from, to)
	}
	if o.CashInflow, err = sumDecimal(movements().
		Where("direction = ? AND category <> ?", models.DirectionIn, models.CategoryOpeningBalance), "amount"); err != nil {
		return nil, fmt.Errorf("sum cash inflow: %w", err)
	}
	if o.CashOutflow, err = sumDecimal(movements().
		Where("direction = ?", models.DirectionOut), "amount"); err != nil {
		return nil, fmt.Errorf("sum cash outflow: %w", err)
	}
	adjIn, err := sumDecimal(movements().
		Where("type = ? AND direction = ?", models.MovementAdjustment, models.DirectionIn), "amount")
	if err != nil {
		return nil, fmt.Errorf("sum adjustments: %w", err)
	}
	adjOut, err := sumDecimal(movements().
		Where("type = ? AND direction = ?", models.MovementAdjustment, models.DirectionOut), "amount")
	if err != nil {
		return nil, fmt.Errorf("sum adjustments: %w", err)
	}
	o.Adjustments = adjIn.Sub(adjOut)

	return o, nil
}

func revenue(db *gorm.DB, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	total, err := sumDecimal(db.Model(&models.Payment{}).
		Where("tenant_id = ? AND status = ? AND date >= ? AND date < ?", tenantID, models.PaymentPaid, from, to), "amount")
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

// sumDecimal runs COALESCE(SUM(column), 0) over q, rounded to cents.
func sumDecimal(q *gorm.DB, column string) (decimal.Decimal, error) {
	var row sumRow
	if err := q.Select("COALESCE(SUM(" + column + "), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// calculateGrowthPercentage returns the change in percent, 100 when growing
// from nothing.
func calculateGrowthPercentage(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		return hundred
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2)
}

func topServices(db *gorm.DB, tenantID uuid.UUID, from, to time.Time, limit int) ([]ServiceSummary, error) {
	var out []ServiceSummary
	err := db.Table("appointments").
		Select("services.name AS name, COUNT(appointments.id) AS count, COALESCE(SUM(services.price), 0) AS revenue").
		Joins("JOIN services ON services.id = appointments.service_id").
		Where("appointments.tenant_id = ? AND appointments.status = ? AND appointments.scheduled_at >= ? AND appointments.scheduled_at < ?",
			tenantID, models.AppointmentCompleted, from, to).
		Group("services.id, services.name").
		Order("count DESC, revenue DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("top services: %w", err)
	}
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
	}
	return out, nil
}

type Breakdown struct {
	Label string          `json:"label"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// RevenueByMethod groups PAID payments by payment method.
func (s *ReportService) RevenueByMethod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]Breakdown, error) {
	return breakdown(s.DB.WithContext(ctx).Table("payments").
		Select("method AS label, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("tenant_id = ? AND status = ? AND date >= ? AND date < ?", tenantID, models.PaymentPaid, from, to).
		Group("method"), "revenue by method")
}

// RevenueByStaff groups PAID payments by barber name. Payments without a
// barber are reported under an empty key.
func (s *ReportService) RevenueByStaff(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]Breakdown, error) {
	return breakdown(s.DB.WithContext(ctx).Table("payments").
		Select("COALESCE(users.name, '') AS label, COUNT(payments.id) AS count, COALESCE(SUM(payments.amount), 0) AS total").
		Joins("LEFT JOIN users ON users.id = payments.staff_id").
		Where("payments.tenant_id = ? AND payments.status = ? AND payments.date >= ? AND payments.date < ?",
			tenantID, models.PaymentPaid, from, to).
		Group("users.name"), "revenue by staff")
}

func (s *ReportService) ExpensesByCategory(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]Breakdown, error) {
	return breakdown(s.DB.WithContext(ctx).Table("expenses").
		Select("category AS label, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("tenant_id = ? AND date >= ? AND date < ?", tenantID, from, to).
		Group("category"), "expenses by category")
}

func breakdown(q *gorm.DB, op string) ([]Breakdown, error) {
	var out []Breakdown
	if err := q.Order("total DESC").Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range out {
		out[i].Total = out[i].Total.Round(2)
	}
	return out, nil
}

// Dashboard is the tenant admin's landing view.
type Dashboard struct {
	TodayAppointments    int64               `json:"todayAppointments"`
	UpcomingAppointments int64               `json:"upcomingAppointments"`
	MonthlyRevenue       decimal.Decimal     `json:"monthlyRevenue"`
	OpenSession          *models.CashSession `json:"openSession"`
	CashBalance          decimal.Decimal     `json:"cashBalance"`
}

func (s *ReportService) Dashboard(ctx context.Context, tenantID uuid.UUID) (*Dashboard, error) {
	db := s.DB.WithContext(ctx)
	now := s.Now()
	today := utils.BeginningOfDay(now)
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	d := &Dashboard{CashBalance: decimal.Zero}
	err := db.Model(&models.Appointment{}).
		Where("tenant_id = ? AND status <> ? AND scheduled_at >= ? AND scheduled_at < ?",
			tenantID, models.AppointmentCancelled, today, today.AddDate(0, 0, 1)).
		Count(&d.TodayAppointments).Error
	if err != nil {
		return nil, fmt.Errorf("count today appointments: %w", err)
	}
	err = db.Model(&models.Appointment{}).
		Where("tenant_id = ? AND status = ? AND scheduled_at >= ?", tenantID, models.AppointmentScheduled, now).
		Count(&d.UpcomingAppointments).Error
	if err != nil {
		return nil, fmt.Errorf("count upcoming appointments: %w", err)
	}
	if d.MonthlyRevenue, err = revenue(db, tenantID, firstOfMonth, firstOfMonth.AddDate(0, 1, 0)); err != nil {
		return nil, err
	}
	if d.OpenSession, err = loadOpenSession(db, tenantID); err != nil {
		return nil, err
	}
	if d.OpenSession != nil {
		d.CashBalance = d.OpenSession.ComputedBalance()
	}
	return d, nil
}

type PlatformKPIs struct {
	TotalTenants      int64           `json:"totalTenants"`
	ActiveTenants     int64           `json:"activeTenants"`
	InactiveTenants   int64           `json:"inactiveTenants"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalAppointments int64           `json:"totalAppointments"`
}

func (s *ReportService) PlatformKPIs(ctx context.Context) (*PlatformKPIs, error) {
	db := s.DB.WithContext(ctx)
	k := &PlatformKPIs{}
	if err := db.Model(&models.Tenant{}).Count(&k.TotalTenants).Error; err != nil {
		return nil, fmt.Errorf("count tenants: %w", err)
	}
	if err := db.Model(&models.Tenant{}).Where("active = ?", true).Count(&k.ActiveTenants).Error; err != nil {
		return nil, fmt.Errorf("count active tenants: %w", err)
	}
	k.InactiveTenants = k.TotalTenants - k.ActiveTenants

	var err error
	if k.TotalRevenue, err = sumDecimal(db.Model(&models.Payment{}).Where("status = ?", models.PaymentPaid), "amount"); err != nil {
		return nil, fmt.Errorf("sum platform revenue: %w", err)
	}
	if err := db.Model(&models.Appointment{}).Count(&k.TotalAppointments).Error; err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	return k, nil
}

type TenantRevenue struct {
	TenantID uuid.UUID       `json:"tenantId"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Revenue  decimal.Decimal `json:"revenue"`
}

func (s *ReportService) TopTenantsByRevenue(ctx context.Context, limit int) ([]TenantRevenue, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []TenantRevenue
	err := s.DB.WithContext(ctx).Table("tenants").
		Select("tenants.id AS tenant_id, tenants.name AS name, tenants.slug AS slug, COALESCE(SUM(payments.amount), 0) AS revenue").
		Joins("JOIN payments ON payments.tenant_id = tenants.id").
		Where("payments.status = ?", models.PaymentPaid).
		Group("tenants.id, tenants.name, tenants.slug").
		Order("revenue DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("top tenants: %w", err)
	}
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
	}
	return out, nil
}

type TenantOverview struct {
	Tenant                models.Tenant   `json:"tenant"`
	TotalRevenue          decimal.Decimal `json:"totalRevenue"`
	TotalAppointments     int64           `json:"totalAppointments"`
	CompletedAppointments int64           `json:"completedAppointments"`
	TodayAppointments     int64           `json:"todayAppointments"`
}

func (s *ReportService) TenantOverview(ctx context.Context, tenantID uuid.UUID) (*TenantOverview, error) {
	db := s.DB.WithContext(ctx)
	o := &TenantOverview{}
	if err := db.First(&o.Tenant, "id = ?", tenantID).Error; err != nil {
		return nil, translate(err, "tenant", tenantID.String(), "get tenant")
	}

	var err error
	if o.TotalRevenue, err = sumDecimal(db.Model(&models.Payment{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.PaymentPaid), "amount"); err != nil {
		return nil, fmt.Errorf("sum tenant revenue: %w", err)
	}
	appts := func() *gorm.DB { return db.Model(&models.Appointment{}).Where("tenant_id = ?", tenantID) }
	if err := appts().Count(&o.TotalAppointments).Error; err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	if err := appts().Where("status = ?", models.AppointmentCompleted).Count(&o.CompletedAppointments).Error; err != nil {
		return nil, fmt.Errorf("count completed appointments: %w", err)
	}
	today := utils.BeginningOfDay(s.Now())
	if err := appts().Where("scheduled_at >= ? AND scheduled_at < ?", today, today.AddDate(0, 0, 1)).
		Count(&o.TodayAppointments).Error; err != nil {
		return nil, fmt.Errorf("count today appointments: %w", err)
	}
	return o, nil
}
