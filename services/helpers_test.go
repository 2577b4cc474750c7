package services

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"barberpro-backend/config"
	"barberpro-backend/events"
	"barberpro-backend/models"
	"barberpro-backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	utils.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "barberpro.db")), config.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection serialises transactions the way row locks do on postgres.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	ctx       context.Context
	db        *gorm.DB
	deps      Deps
	now       time.Time
	published *recordingPublisher

	tenants  *TenantService
	staff    *StaffService
	catalog  *CatalogService
	slots    *SlotService
	bookings *BookingService
	cash     *CashService
	payments *PaymentService
	expenses *ExpenseService
	reports  *ReportService

	tenant  *models.Tenant
	admin   *models.User
	barber  *models.User
	service *models.Service
}

// newFixture builds a shop with one barber, a 35.00 service and a week of
// half-hour slots from 09:00 to 12:00 starting tomorrow.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Now().UTC()
	f := &fixture{
		ctx:       context.Background(),
		db:        newTestDB(t),
		now:       now,
		published: &recordingPublisher{},
	}
	f.deps = Deps{
		DB:        f.db,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Publisher: f.published,
		Now:       func() time.Time { return now },
	}
	f.tenants = NewTenantService(f.deps)
	f.staff = NewStaffService(f.deps)
	f.catalog = NewCatalogService(f.deps)
	f.slots = NewSlotService(f.deps)
	f.bookings = NewBookingService(f.deps)
	f.cash = NewCashService(f.deps)
	f.payments = NewPaymentService(f.deps)
	f.expenses = NewExpenseService(f.deps)
	f.reports = NewReportService(f.deps)

	f.tenant, f.admin = f.createTenant(t, "Sharp Cuts", "sharp-cuts")
	f.barber = f.createBarber(t, f.tenant.ID, "joe@sharp.test")
	f.service = f.createService(t, f.tenant.ID, "Haircut", "35.00", nil)

	n, err := f.slots.Generate(f.ctx, GenerateSlotsInput{
		TenantID:        f.tenant.ID,
		StaffID:         f.barber.ID,
		Weekdays:        allWeekdays(),
		Start:           "09:00",
		End:             "12:00",
		IntervalMinutes: 30,
		From:            f.tomorrow(),
		To:              f.tomorrow().AddDate(0, 0, 6),
	})
	if err != nil {
		t.Fatalf("generate slots: %v", err)
	}
	if n != 42 {
		t.Fatalf("expected 42 slots, got %d", n)
	}
	return f
}

func allWeekdays() []time.Weekday {
	return []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
}

func (f *fixture) tomorrow() time.Time {
	return utils.BeginningOfDay(f.now).AddDate(0, 0, 1)
}

func (f *fixture) createTenant(t *testing.T, name, slug string) (*models.Tenant, *models.User) {
	t.Helper()
	tenant, admin, err := f.tenants.Create(f.ctx, CreateTenantInput{
		Name:          name,
		Slug:          slug,
		AdminEmail:    "admin@" + slug + ".test",
		AdminPassword: "password123",
	})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return tenant, admin
}

func (f *fixture) createBarber(t *testing.T, tenantID uuid.UUID, email string) *models.User {
	t.Helper()
	u, err := f.staff.Create(f.ctx, tenantID, StaffInput{Name: "Barber " + email, Email: email, Password: "password123"})
	if err != nil {
		t.Fatalf("create barber: %v", err)
	}
	return u
}

func (f *fixture) createService(t *testing.T, tenantID uuid.UUID, name, price string, staffID *uuid.UUID) *models.Service {
	t.Helper()
	svc, err := f.catalog.Create(f.ctx, tenantID, ServiceInput{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		DurationMin: 30,
		StaffID:     staffID,
	})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc
}

func (f *fixture) availableSlots(t *testing.T) []models.Slot {
	t.Helper()
	slots, err := f.slots.ListAvailable(f.ctx, f.tenant.ID, f.barber.ID, f.tomorrow(), f.tomorrow().AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("no available slots")
	}
	return slots
}

func (f *fixture) book(t *testing.T, slot models.Slot) *models.Appointment {
	t.Helper()
	appt, err := f.bookings.Book(f.ctx, f.bookInput(slot))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return appt
}

func (f *fixture) bookInput(slot models.Slot) BookInput {
	return BookInput{
		TenantSlug:    f.tenant.Slug,
		StaffID:       f.barber.ID,
		ServiceID:     f.service.ID,
		SlotID:        slot.ID,
		ClientName:    "Ana Client",
		ClientContact: "+5511999990000",
	}
}

func (f *fixture) reloadSlot(t *testing.T, id uuid.UUID) models.Slot {
	t.Helper()
	var s models.Slot
	if err := f.db.First(&s, "id = ?", id).Error; err != nil {
		t.Fatalf("reload slot: %v", err)
	}
	return s
}

func (f *fixture) movements(t *testing.T, sessionID uuid.UUID) []models.CashMovement {
	t.Helper()
	var ms []models.CashMovement
	if err := f.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&ms).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	return ms
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s = %s, want %s", name, got.StringFixed(2), want)
	}
}
