package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseBookingStatus(t *testing.T) {
	cases := []struct {
		in   string
		want BookingStatus
		ok   bool
	}{
		{"pending", BookingPending, true},
		{"confirmed", BookingConfirmed, true},
		{"accepted", BookingConfirmed, true}, // legacy alias
		{"rejected", BookingRejected, true},
		{"cancelled", BookingCancelled, true},
		{"completed", BookingCompleted, true},
		{"", "", false},
		{"paid", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseBookingStatus(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseBookingStatus(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestBlocking(t *testing.T) {
	if !BookingPending.Blocking() {
		t.Error("pending must block its date range")
	}
	if !BookingConfirmed.Blocking() {
		t.Error("confirmed must block its date range")
	}
	for _, s := range []BookingStatus{BookingRejected, BookingCancelled, BookingCompleted} {
		if s.Blocking() {
			t.Errorf("%s must not block", s)
		}
	}
}

func TestNights(t *testing.T) {
	b := Booking{StartDate: date(2025, 3, 10), EndDate: date(2025, 3, 13)}
	if got := b.Nights(); got != 3 {
		t.Errorf("Nights() = %d, want 3", got)
	}
}

func TestDateRangeOverlaps(t *testing.T) {
	base := DateRange{Start: date(2025, 3, 10), End: date(2025, 3, 13)}
	cases := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"identical", DateRange{date(2025, 3, 10), date(2025, 3, 13)}, true},
		{"contained", DateRange{date(2025, 3, 11), date(2025, 3, 12)}, true},
		{"overlap left", DateRange{date(2025, 3, 8), date(2025, 3, 11)}, true},
		{"overlap right", DateRange{date(2025, 3, 12), date(2025, 3, 15)}, true},
		{"back to back after", DateRange{date(2025, 3, 13), date(2025, 3, 15)}, false},
		{"back to back before", DateRange{date(2025, 3, 8), date(2025, 3, 10)}, false},
		{"disjoint", DateRange{date(2025, 3, 20), date(2025, 3, 22)}, false},
	}
	for _, tc := range cases {
		if got := base.Overlaps(tc.other); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDaysIn(t *testing.T) {
	days := DaysIn(date(2025, 3, 10), date(2025, 3, 13))
	if len(days) != 3 {
		t.Fatalf("DaysIn returned %d days, want 3", len(days))
	}
	// the checkout day must not appear
	for _, d := range days {
		if d.Equal(date(2025, 3, 13)) {
			t.Error("checkout day must be excluded")
		}
	}
	if DaysIn(date(2025, 3, 13), date(2025, 3, 10)) != nil {
		t.Error("inverted range must yield nil")
	}
	if DaysIn(date(2025, 3, 10), date(2025, 3, 10)) != nil {
		t.Error("empty range must yield nil")
	}
}

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		role     Role
		want     bool
	}{
		{BookingPending, BookingConfirmed, RoleOwner, true},
		{BookingPending, BookingConfirmed, RoleAdmin, true},
		{BookingPending, BookingConfirmed, RoleTenant, false},
		{BookingPending, BookingRejected, RoleOwner, true},
		{BookingPending, BookingRejected, RoleTenant, false},
		{BookingPending, BookingCancelled, RoleTenant, true},
		{BookingConfirmed, BookingCancelled, RoleTenant, true},
		{BookingConfirmed, BookingCancelled, RoleOwner, true},
		{BookingConfirmed, BookingCompleted, RoleAdmin, true},
		{BookingConfirmed, BookingCompleted, RoleOwner, false},
		{BookingConfirmed, BookingCompleted, RoleTenant, false},
		// no edges out of terminal states
		{BookingRejected, BookingConfirmed, RoleAdmin, false},
		{BookingCancelled, BookingPending, RoleAdmin, false},
		{BookingCompleted, BookingCancelled, RoleAdmin, false},
		// no skipping pending -> completed
		{BookingPending, BookingCompleted, RoleAdmin, false},
	}
	for _, tc := range cases {
		if got := TransitionAllowed(tc.from, tc.to, tc.role); got != tc.want {
			t.Errorf("TransitionAllowed(%s, %s, %s) = %v, want %v", tc.from, tc.to, tc.role, got, tc.want)
		}
	}
}
