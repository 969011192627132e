// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types carried on the rentease.events queue.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingRejected  = "booking.rejected"
	EventPaymentVerified  = "payment.verified"
)

// Event is the envelope published for every domain event.  It carries
// enough information for downstream consumers to write notifications
// or trigger analytics without querying the primary database.  Fields
// that do not apply to a given type are left at their zero value.
type Event struct {
	Type          string  `json:"type"`
	BookingID     uint64  `json:"booking_id"`
	PropertyID    uint64  `json:"property_id"`
	PropertyTitle string  `json:"property_title"`
	TenantID      uint64  `json:"tenant_id"`
	OwnerID       uint64  `json:"owner_id"`
	PaymentID     string  `json:"payment_id,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	StartDate     string  `json:"start_date,omitempty"`
	EndDate       string  `json:"end_date,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}
