package session

import (
	"testing"
	"time"
)

// istTime builds an instant whose IST civil time matches the given fields.
// 2026-08-31 is a Monday.
func istTime(t *testing.T, day, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2026, time.August, day, hour, minute, 0, 0, Location())
}

func TestIsOpenBoundaries(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday open edge", istTime(t, 31, 9, 15), true},
		{"monday close edge", istTime(t, 31, 15, 30), true},
		{"monday before open", istTime(t, 31, 9, 14), false},
		{"monday after close", istTime(t, 31, 15, 31), false},
		{"monday midday", istTime(t, 31, 12, 0), true},
		{"saturday midday", istTime(t, 29, 12, 0), false},
		{"sunday midday", istTime(t, 30, 12, 0), false},
	}
	for _, tc := range cases {
		if got := IsOpen(tc.at); got != tc.want {
			t.Errorf("%s: IsOpen = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsOpenConvertsToIST(t *testing.T) {
	// 03:45 UTC on a Monday is exactly 09:15 IST.
	at := time.Date(2026, time.August, 31, 3, 45, 0, 0, time.UTC)
	if !IsOpen(at) {
		t.Fatalf("expected 03:45 UTC Monday to be open (09:15 IST)")
	}
	if IsOpen(at.Add(-time.Minute)) {
		t.Fatalf("expected 03:44 UTC Monday to be closed (09:14 IST)")
	}
}

func TestLabels(t *testing.T) {
	if got := Label(9, 15); got != "9:15" {
		t.Fatalf("Label(9,15) = %q", got)
	}
	if got := Label(15, 5); got != "15:05" {
		t.Fatalf("Label(15,5) = %q", got)
	}
	at := time.Date(2026, time.August, 31, 4, 5, 0, 0, time.UTC) // 09:35 IST
	if got := MinuteLabel(at); got != "9:35" {
		t.Fatalf("MinuteLabel = %q", got)
	}
}
