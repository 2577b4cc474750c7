package utils

import (
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	now := time.Date(2030, 3, 15, 18, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		from, to string
		wantFrom time.Time
		wantTo   time.Time
		wantErr  bool
	}{
		{"defaults to month to date", "", "", day(2030, 3, 1), day(2030, 3, 16), false},
		{"explicit inclusive range", "2030-01-01", "2030-01-31", day(2030, 1, 1), day(2030, 2, 1), false},
		{"single day", "2030-02-10", "2030-02-10", day(2030, 2, 10), day(2030, 2, 11), false},
		{"bad from", "10/02/2030", "", time.Time{}, time.Time{}, true},
		{"reversed", "2030-02-10", "2030-02-01", time.Time{}, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := ParseDateRange(tt.from, tt.to, now)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !from.Equal(tt.wantFrom) || !to.Equal(tt.wantTo) {
				t.Errorf("got [%s, %s), want [%s, %s)", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2030, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2030, 1, 8, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 7 {
		t.Errorf("DaysBetween = %d, want 7", got)
	}
}
