package services

import (
	"testing"
	"time"

	"barberpro-backend/models"

	"github.com/google/uuid"
)

func TestGenerateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	in := GenerateSlotsInput{
		TenantID:        f.tenant.ID,
		StaffID:         f.barber.ID,
		Weekdays:        allWeekdays(),
		Start:           "09:00",
		End:             "12:00",
		IntervalMinutes: 30,
		From:            f.tomorrow(),
		To:              f.tomorrow().AddDate(0, 0, 6),
	}

	n, err := f.slots.Generate(f.ctx, in)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no new slots, got %d", n)
	}

	// Extending the range by one day only adds that day.
	in.To = in.To.AddDate(0, 0, 1)
	n, err = f.slots.Generate(f.ctx, in)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected 6 new slots, got %d", n)
	}

	var total int64
	f.db.Model(&models.Slot{}).Where("tenant_id = ?", f.tenant.ID).Count(&total)
	if total != 48 {
		t.Fatalf("expected 48 slots in total, got %d", total)
	}
}

func TestGenerateHonoursWeekdays(t *testing.T) {
	f := newFixture(t)
	other := f.createBarber(t, f.tenant.ID, "max@sharp.test")
	from := f.tomorrow()

	n, err := f.slots.Generate(f.ctx, GenerateSlotsInput{
		TenantID:        f.tenant.ID,
		StaffID:         other.ID,
		Weekdays:        []time.Weekday{from.Weekday()},
		Start:           "14:00",
		End:             "15:00",
		IntervalMinutes: 20,
		From:            from,
		To:              from.AddDate(0, 0, 13),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// two matching days, three slots each (14:00, 14:20, 14:40)
	if n != 6 {
		t.Fatalf("expected 6 slots, got %d", n)
	}

	slots, err := f.slots.List(f.ctx, f.tenant.ID, SlotFilter{StaffID: &other.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, s := range slots {
		if s.Date.Weekday() != from.Weekday() {
			t.Fatalf("slot on unexpected weekday %s", s.Date.Weekday())
		}
	}
	if slots[0].Time != "14:00" || slots[2].Time != "14:40" {
		t.Fatalf("unexpected times %q..%q", slots[0].Time, slots[2].Time)
	}
}

func TestGenerateValidation(t *testing.T) {
	f := newFixture(t)
	otherTenant, _ := f.createTenant(t, "Other", "other-shop")
	outsider := f.createBarber(t, otherTenant.ID, "out@other.test")

	base := func() GenerateSlotsInput {
		return GenerateSlotsInput{
			TenantID:        f.tenant.ID,
			StaffID:         f.barber.ID,
			Weekdays:        allWeekdays(),
			Start:           "09:00",
			End:             "10:00",
			IntervalMinutes: 30,
			From:            f.tomorrow(),
			To:              f.tomorrow(),
		}
	}

	tests := []struct {
		name   string
		mutate func(*GenerateSlotsInput)
	}{
		{"zero interval", func(in *GenerateSlotsInput) { in.IntervalMinutes = 0 }},
		{"start after end", func(in *GenerateSlotsInput) { in.Start, in.End = "10:00", "09:00" }},
		{"start equals end", func(in *GenerateSlotsInput) { in.End = "09:00" }},
		{"bad time", func(in *GenerateSlotsInput) { in.Start = "9am" }},
		{"from after to", func(in *GenerateSlotsInput) { in.From = in.To.AddDate(0, 0, 1) }},
		{"no weekdays", func(in *GenerateSlotsInput) { in.Weekdays = nil }},
		{"range too long", func(in *GenerateSlotsInput) { in.To = in.From.AddDate(0, 0, 400) }},
		{"staff of other tenant", func(in *GenerateSlotsInput) { in.StaffID = outsider.ID }},
		{"unknown staff", func(in *GenerateSlotsInput) { in.StaffID = uuid.New() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(&in)
			_, err := f.slots.Generate(f.ctx, in)
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	f := newFixture(t)
	slots := f.availableSlots(t)

	blocked, err := f.slots.Toggle(f.ctx, f.tenant.ID, slots[0].ID)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if blocked.Available || !blocked.Blocked {
		t.Fatalf("expected blocked slot, got %+v", blocked)
	}
	if got := f.reloadSlot(t, slots[0].ID); got.Available || !got.Blocked {
		t.Fatalf("block not persisted: %+v", got)
	}

	reopened, err := f.slots.Toggle(f.ctx, f.tenant.ID, slots[0].ID)
	if err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if !reopened.Available || reopened.Blocked {
		t.Fatalf("expected available slot, got %+v", reopened)
	}

	f.book(t, slots[1])
	if _, err := f.slots.Toggle(f.ctx, f.tenant.ID, slots[1].ID); !IsConflict(err) {
		t.Fatalf("expected conflict toggling booked slot, got %v", err)
	}

	otherTenant, _ := f.createTenant(t, "Other", "other-shop")
	if _, err := f.slots.Toggle(f.ctx, otherTenant.ID, slots[0].ID); !IsNotFound(err) {
		t.Fatalf("expected not found across tenants, got %v", err)
	}
}

func TestDeleteSlot(t *testing.T) {
	f := newFixture(t)
	slots := f.availableSlots(t)

	t.Run("booked slot persists", func(t *testing.T) {
		f.book(t, slots[0])
		if err := f.slots.Delete(f.ctx, f.tenant.ID, slots[0].ID); !IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
		f.reloadSlot(t, slots[0].ID)
	})

	t.Run("free slot is removed", func(t *testing.T) {
		if err := f.slots.Delete(f.ctx, f.tenant.ID, slots[1].ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		var n int64
		f.db.Model(&models.Slot{}).Where("id = ?", slots[1].ID).Count(&n)
		if n != 0 {
			t.Fatal("slot still present")
		}
	})

	t.Run("slot of cancelled appointment persists", func(t *testing.T) {
		appt := f.book(t, slots[2])
		if err := f.bookings.Cancel(f.ctx, f.tenant.ID, appt.ID); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if err := f.slots.Delete(f.ctx, f.tenant.ID, slots[2].ID); !IsConflict(err) {
			t.Fatalf("expected conflict, got %v", err)
		}
		var n int64
		f.db.Model(&models.Slot{}).Where("id = ?", appt.SlotID).Count(&n)
		if n != 1 {
			t.Fatal("slot referenced by a cancelled appointment was removed")
		}
	})
}
