package queue

import (
	"strings"
	"testing"
)

func TestNotificationsForConfirmed(t *testing.T) {
	ev := Event{
		Type: EventBookingConfirmed, BookingID: 10, PropertyID: 3,
		PropertyTitle: "Lakeside Apartment", TenantID: 2, OwnerID: 5,
		StartDate: "2025-03-10", EndDate: "2025-03-13",
	}
	ns := notificationsFor(ev)
	if len(ns) != 2 {
		t.Fatalf("got %d notifications, want 2 (tenant and owner)", len(ns))
	}
	if ns[0].UserID != 2 || ns[1].UserID != 5 {
		t.Errorf("recipients = %d, %d, want tenant 2 and owner 5", ns[0].UserID, ns[1].UserID)
	}
	for _, n := range ns {
		if n.Type != EventBookingConfirmed {
			t.Errorf("Type = %q, want %q", n.Type, EventBookingConfirmed)
		}
		if n.RelatedID == nil || *n.RelatedID != 10 {
			t.Error("RelatedID should reference the booking")
		}
		if !strings.Contains(n.Message, "Lakeside Apartment") {
			t.Errorf("message %q should name the property", n.Message)
		}
	}
}

func TestNotificationsForRejected(t *testing.T) {
	ev := Event{
		Type: EventBookingRejected, BookingID: 10,
		PropertyTitle: "Lakeside Apartment", TenantID: 2, OwnerID: 5,
	}
	ns := notificationsFor(ev)
	if len(ns) != 1 {
		t.Fatalf("got %d notifications, want 1 (tenant only)", len(ns))
	}
	if ns[0].UserID != 2 {
		t.Errorf("recipient = %d, want the tenant", ns[0].UserID)
	}
}

func TestNotificationsForPaymentVerified(t *testing.T) {
	ev := Event{
		Type: EventPaymentVerified, BookingID: 10,
		TenantID: 2, OwnerID: 5, PaymentID: "PAY-1-abc", Amount: 9000,
	}
	ns := notificationsFor(ev)
	if len(ns) != 2 {
		t.Fatalf("got %d notifications, want 2", len(ns))
	}
	if !strings.Contains(ns[0].Message, "9000.00") {
		t.Errorf("message %q should carry the amount", ns[0].Message)
	}
}

func TestNotificationsForUnknownType(t *testing.T) {
	if ns := notificationsFor(Event{Type: "something.else"}); ns != nil {
		t.Errorf("unknown event type yielded %d notifications, want none", len(ns))
	}
}
