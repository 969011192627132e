package model

import "time"

// BookingStatus is a closed enumeration of booking lifecycle states.
// The zero value is intentionally invalid so that an unset status is
// never mistaken for a real state.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"   // awaiting owner decision
	BookingConfirmed BookingStatus = "confirmed" // owner approved, occupies its range
	BookingRejected  BookingStatus = "rejected"  // owner declined
	BookingCancelled BookingStatus = "cancelled" // withdrawn by tenant, owner or admin
	BookingCompleted BookingStatus = "completed" // stay finished, review-eligible
)

// ParseBookingStatus validates a raw status string.  The legacy value
// "accepted" from older clients is normalized to BookingConfirmed.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingRejected, BookingCancelled, BookingCompleted:
		return BookingStatus(s), true
	}
	if s == "accepted" {
		return BookingConfirmed, true
	}
	return "", false
}

// Blocking reports whether a booking in this status occupies its date
// range for conflict-checking purposes.  Pending requests block the
// range too, so a property is never offered twice for the same dates.
func (s BookingStatus) Blocking() bool {
	return s == BookingPending || s == BookingConfirmed
}

// BlockingStatuses is the canonical set used in availability queries.
var BlockingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

// PaymentState tracks whether a booking has been paid.
type PaymentState string

const (
	PaymentUnpaid PaymentState = "pending" // bookings.payment_status default
	PaymentPaid   PaymentState = "paid"    // set when an intent is verified
)

// Role identifies the kind of actor performing an operation.  The
// values match the role claim carried in access tokens.
type Role string

const (
	RoleTenant Role = "TENANT"
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
)

// Actor is the authenticated principal attached to every core call.
// The core trusts it as already authenticated by the JWT middleware.
type Actor struct {
	ID   uint64
	Role Role
}

// Booking records a tenant's request to occupy a property for a
// half-open date range [StartDate, EndDate).  EndDate is the checkout
// day and is not occupied.  OwnerID is denormalized from the property
// at creation time and never re-derived afterwards.
type Booking struct {
	ID            uint64        // bookings.id
	PropertyID    uint64        // bookings.property_id
	TenantID      uint64        // bookings.tenant_id
	OwnerID       uint64        // bookings.owner_id
	StartDate     time.Time     // bookings.start_date (date, UTC midnight)
	EndDate       time.Time     // bookings.end_date (date, UTC midnight, exclusive)
	TotalPrice    float64       // bookings.total_price
	TenantMessage *string       // bookings.tenant_message (nullable)
	OwnerResponse *string       // bookings.owner_response (nullable)
	Status        BookingStatus // bookings.status
	PaymentStatus PaymentState  // bookings.payment_status
	CreatedAt     time.Time     // bookings.created_at
	UpdatedAt     time.Time     // bookings.updated_at
}

// Nights returns the number of billable nights in the booking range.
func (b *Booking) Nights() int {
	return int(b.EndDate.Sub(b.StartDate).Hours() / 24)
}

// DateRange is a half-open [Start, End) span of days used for
// calendar rendering and overlap checks.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Overlaps reports whether two half-open ranges share at least one day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !(r.End.Before(o.Start) || r.End.Equal(o.Start) ||
		r.Start.After(o.End) || r.Start.Equal(o.End))
}

// transition describes one permitted edge of the booking state machine
// together with the roles allowed to trigger it.
type transition struct {
	from  BookingStatus
	to    BookingStatus
	roles []Role
}

// transitionTable is the single authoritative list of legal status
// changes.  Callers must not encode transition rules anywhere else.
var transitionTable = []transition{
	{BookingPending, BookingConfirmed, []Role{RoleOwner, RoleAdmin}},
	{BookingPending, BookingRejected, []Role{RoleOwner, RoleAdmin}},
	{BookingPending, BookingCancelled, []Role{RoleTenant, RoleOwner, RoleAdmin}},
	{BookingConfirmed, BookingCancelled, []Role{RoleTenant, RoleOwner, RoleAdmin}},
	{BookingConfirmed, BookingCompleted, []Role{RoleAdmin}},
}

// CanTransition reports whether a booking may move from one status to
// another at all, regardless of who is asking.
func CanTransition(from, to BookingStatus) bool {
	for _, t := range transitionTable {
		if t.from == from && t.to == to {
			return true
		}
	}
	return false
}

// TransitionAllowed reports whether the given role may move a booking
// from one status to another.  It returns false both for unknown
// edges and for known edges the role is not permitted to trigger.
func TransitionAllowed(from, to BookingStatus, role Role) bool {
	for _, t := range transitionTable {
		if t.from != from || t.to != to {
			continue
		}
		for _, r := range t.roles {
			if r == role {
				return true
			}
		}
		return false
	}
	return false
}
