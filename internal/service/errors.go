package service

import "errors"

// Domain errors surfaced by the booking engine and payment service.
// Handlers map them onto HTTP statuses; repository sentinels
// (not-found, conflict, forbidden) pass through unchanged.
var (
	// ErrInvalidRange means the requested dates are malformed: start
	// is not before end, or start is in the past.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrPropertyUnavailable means the property cannot take bookings:
	// unpublished, soft-deleted or switched off by its owner.
	ErrPropertyUnavailable = errors.New("property not available for booking")

	// ErrOwnBooking means an owner tried to book their own property.
	ErrOwnBooking = errors.New("cannot book own property")

	// ErrInvalidTransition means the requested status change is not an
	// edge of the booking state machine, or the caller's role may not
	// trigger it.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStayNotOver means a booking cannot be completed before its
	// end date has passed.
	ErrStayNotOver = errors.New("stay has not ended yet")

	// ErrAlreadyPaid means a payment intent was requested for a
	// booking that is already paid.
	ErrAlreadyPaid = errors.New("booking already paid")

	// ErrNotPayable means payment intents can only be issued for
	// confirmed bookings.
	ErrNotPayable = errors.New("booking is not payable")

	// ErrNotDecidable means the intent is not awaiting an admin
	// decision (wrong status for verify/reject).
	ErrNotDecidable = errors.New("payment is not awaiting verification")

	// ErrNotReviewable means the user has never completed a stay at
	// the property and may not review it.
	ErrNotReviewable = errors.New("no completed stay at this property")
)
