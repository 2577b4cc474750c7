package services

import (
	"sync"
	"testing"

	"barberpro-backend/events"
	"barberpro-backend/models"

	"github.com/google/uuid"
)

func TestBookClaimsSlot(t *testing.T) {
	f := newFixture(t)
	slot := f.availableSlots(t)[0]

	appt := f.book(t, slot)
	if appt.Status != models.AppointmentScheduled {
		t.Fatalf("status = %s", appt.Status)
	}
	want, _ := slot.StartsAt()
	if !appt.ScheduledAt.Equal(want) {
		t.Fatalf("scheduled at %s, want %s", appt.ScheduledAt, want)
	}
	if got := f.reloadSlot(t, slot.ID); got.Available || got.Blocked {
		t.Fatalf("slot should be booked: %+v", got)
	}
	if types := f.published.types(); len(types) != 1 || types[0] != events.AppointmentBooked {
		t.Fatalf("unexpected events %v", types)
	}

	if _, err := f.bookings.Book(f.ctx, f.bookInput(slot)); !IsConflict(err) {
		t.Fatalf("expected conflict on second booking, got %v", err)
	}
}

func TestBookRejectsMismatches(t *testing.T) {
	f := newFixture(t)
	slots := f.availableSlots(t)
	otherBarber := f.createBarber(t, f.tenant.ID, "max@sharp.test")
	exclusive := f.createService(t, f.tenant.ID, "Beard by Max", "20.00", &otherBarber.ID)
	retired := f.createService(t, f.tenant.ID, "Old style", "10.00", nil)
	if err := f.catalog.Delete(f.ctx, f.tenant.ID, retired.ID); err != nil {
		t.Fatalf("delete service: %v", err)
	}
	otherTenant, _ := f.createTenant(t, "Other", "other-shop")
	foreignService := f.createService(t, otherTenant.ID, "Foreign", "10.00", nil)

	tests := []struct {
		name   string
		mutate func(*BookInput)
		check  func(error) bool
	}{
		{"empty client name", func(in *BookInput) { in.ClientName = " " }, IsValidation},
		{"bad phone", func(in *BookInput) { in.ClientContact = "call me" }, IsValidation},
		{"unknown shop", func(in *BookInput) { in.TenantSlug = "nope" }, IsNotFound},
		{"staff not a barber here", func(in *BookInput) { in.StaffID = uuid.New() }, IsValidation},
		{"slot of other barber", func(in *BookInput) { in.StaffID = otherBarber.ID }, IsValidation},
		{"service of other barber", func(in *BookInput) { in.ServiceID = exclusive.ID }, IsValidation},
		{"retired service", func(in *BookInput) { in.ServiceID = retired.ID }, IsValidation},
		{"service of other tenant", func(in *BookInput) { in.ServiceID = foreignService.ID }, IsValidation},
		{"unknown slot", func(in *BookInput) { in.SlotID = uuid.New() }, IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.bookInput(slots[0])
			tt.mutate(&in)
			_, err := f.bookings.Book(f.ctx, in)
			if !tt.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}

	if got := f.reloadSlot(t, slots[0].ID); !got.Available {
		t.Fatal("failed bookings must not consume the slot")
	}
}

func TestBookInactiveTenant(t *testing.T) {
	f := newFixture(t)
	slot := f.availableSlots(t)[0]
	if _, err := f.tenants.SetActive(f.ctx, f.tenant.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.bookings.Book(f.ctx, f.bookInput(slot)); !IsNotFound(err) {
		t.Fatalf("expected not found for inactive tenant, got %v", err)
	}
}

func TestBookBlockedSlotConflicts(t *testing.T) {
	f := newFixture(t)
	slot := f.availableSlots(t)[0]
	if _, err := f.slots.Toggle(f.ctx, f.tenant.ID, slot.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := f.bookings.Book(f.ctx, f.bookInput(slot)); !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestBookPastSlot(t *testing.T) {
	f := newFixture(t)
	past := f.tomorrow().AddDate(0, 0, -3)
	free := models.Slot{TenantID: f.tenant.ID, StaffID: f.barber.ID, Date: past, Time: "10:00", Available: true}
	blocked := models.Slot{TenantID: f.tenant.ID, StaffID: f.barber.ID, Date: past, Time: "11:00", Blocked: true}
	for _, slot := range []*models.Slot{&free, &blocked} {
		if err := f.db.Create(slot).Error; err != nil {
			t.Fatalf("create slot: %v", err)
		}
	}

	if _, err := f.bookings.Book(f.ctx, f.bookInput(free)); !IsValidation(err) {
		t.Fatalf("expected validation error for free past slot, got %v", err)
	}
	if _, err := f.bookings.Book(f.ctx, f.bookInput(blocked)); !IsConflict(err) {
		t.Fatalf("expected conflict for unavailable past slot, got %v", err)
	}
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	f := newFixture(t)
	slot := f.availableSlots(t)[0]

	const clients = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.bookings.Book(f.ctx, f.bookInput(slot))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case IsConflict(err):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	if len(others) > 0 {
		t.Fatalf("unexpected errors: %v", others)
	}
	if successes != 1 || conflicts != clients-1 {
		t.Fatalf("successes=%d conflicts=%d", successes, conflicts)
	}
	var n int64
	f.db.Model(&models.Appointment{}).Where("slot_id = ?", slot.ID).Count(&n)
	if n != 1 {
		t.Fatalf("expected exactly one appointment, got %d", n)
	}
}

func TestCompleteBooksServicePrice(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, f.availableSlots(t)[0])

	ok, err := f.bookings.Complete(f.ctx, f.tenant.ID, appt.ID, f.admin.ID)
	if err != nil || !ok {
		t.Fatalf("complete: ok=%v err=%v", ok, err)
	}

	session, err := f.cash.Current(f.ctx, f.tenant.ID)
	if err != nil || session == nil {
		t.Fatalf("expected auto-opened session, got %v %v", session, err)
	}
	assertDecimal(t, "opening", session.OpeningBalance, "0")
	assertDecimal(t, "entries", session.TotalEntries, "35.00")

	ms := f.movements(t, session.ID)
	if len(ms) != 1 {
		t.Fatalf("expected one movement, got %d", len(ms))
	}
	m := ms[0]
	if m.Type != models.MovementEntry || m.Direction != models.DirectionIn || m.Category != models.CategoryService {
		t.Fatalf("unexpected movement %+v", m)
	}
	assertDecimal(t, "amount", m.Amount, "35.00")
	if m.AppointmentID == nil || *m.AppointmentID != appt.ID {
		t.Fatalf("movement not linked to appointment: %+v", m.AppointmentID)
	}

	// A second completion is a silent no-op.
	ok, err = f.bookings.Complete(f.ctx, f.tenant.ID, appt.ID, f.admin.ID)
	if err != nil || ok {
		t.Fatalf("second complete: ok=%v err=%v", ok, err)
	}
	if got := len(f.movements(t, session.ID)); got != 1 {
		t.Fatalf("expected still one movement, got %d", got)
	}

	stored, _ := f.bookings.Get(f.ctx, f.tenant.ID, appt.ID)
	if stored.Status != models.AppointmentCompleted || stored.CompletedAt == nil {
		t.Fatalf("unexpected stored appointment %+v", stored)
	}
}

func TestCompleteUsesExistingSession(t *testing.T) {
	f := newFixture(t)
	session, err := f.cash.Open(f.ctx, f.tenant.ID, f.admin.ID, dec("50"), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	appt := f.book(t, f.availableSlots(t)[0])
	if ok, err := f.bookings.Complete(f.ctx, f.tenant.ID, appt.ID, f.barber.ID); err != nil || !ok {
		t.Fatalf("complete: ok=%v err=%v", ok, err)
	}

	var sessions int64
	f.db.Model(&models.CashSession{}).Where("tenant_id = ?", f.tenant.ID).Count(&sessions)
	if sessions != 1 {
		t.Fatalf("expected one session, got %d", sessions)
	}
	current, _ := f.cash.Current(f.ctx, f.tenant.ID)
	if current.ID != session.ID {
		t.Fatal("completion opened a second session")
	}
	assertDecimal(t, "balance", current.ComputedBalance(), "85.00")
}

func TestCompleteCancelledReturnsFalse(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, f.availableSlots(t)[0])
	if err := f.bookings.Cancel(f.ctx, f.tenant.ID, appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	ok, err := f.bookings.Complete(f.ctx, f.tenant.ID, appt.ID, f.admin.ID)
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if s, _ := f.cash.Current(f.ctx, f.tenant.ID); s != nil {
		t.Fatal("no session should be opened")
	}

	if _, err := f.bookings.Complete(f.ctx, f.tenant.ID, uuid.New(), f.admin.ID); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	slots := f.availableSlots(t)
	appt := f.book(t, slots[0])

	if err := f.bookings.Cancel(f.ctx, f.tenant.ID, appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := f.reloadSlot(t, slots[0].ID); !got.Available {
		t.Fatal("slot should be released")
	}
	if err := f.bookings.Cancel(f.ctx, f.tenant.ID, appt.ID); err != nil {
		t.Fatalf("second cancel should be a no-op: %v", err)
	}

	// the released slot can be booked again
	f.book(t, slots[0])

	done := f.book(t, slots[1])
	if _, err := f.bookings.Complete(f.ctx, f.tenant.ID, done.ID, f.admin.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := f.bookings.Cancel(f.ctx, f.tenant.ID, done.ID); !IsState(err) {
		t.Fatalf("expected state error cancelling completed, got %v", err)
	}

	want := []string{events.AppointmentBooked, events.AppointmentCancelled, events.AppointmentBooked, events.AppointmentBooked, events.AppointmentCompleted}
	got := f.published.types()
	if len(got) != len(want) {
		t.Fatalf("events %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events %v, want %v", got, want)
		}
	}
}

func TestListAppointments(t *testing.T) {
	f := newFixture(t)
	slots := f.availableSlots(t)
	a := f.book(t, slots[0])
	f.book(t, slots[1])
	if err := f.bookings.Cancel(f.ctx, f.tenant.ID, a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	all, err := f.bookings.List(f.ctx, f.tenant.ID, AppointmentFilter{StaffID: &f.barber.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(all))
	}
	if all[0].ServiceName != "Haircut" || all[0].StaffName == "" {
		t.Fatalf("names not joined: %+v", all[0])
	}

	scheduled, err := f.bookings.List(f.ctx, f.tenant.ID, AppointmentFilter{Status: models.AppointmentScheduled})
	if err != nil {
		t.Fatalf("list scheduled: %v", err)
	}
	if len(scheduled) != 1 || scheduled[0].SlotID != slots[1].ID {
		t.Fatalf("unexpected scheduled list %+v", scheduled)
	}
}
