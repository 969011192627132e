// Package service holds the domain logic of the rental platform: the
// booking lifecycle engine and the payment verification flow.  It sits
// between the HTTP handlers and the repositories and owns every rule
// about who may do what, when.
package service

import (
	"context"
	"log"
	"time"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/queue"
	"github.com/rentease/rentease-server/internal/repository"
)

// Engine implements the booking lifecycle: availability checks,
// request creation and status transitions.  All date handling is in
// UTC at day granularity; ranges are half-open, the end date is the
// checkout day and stays free.
type Engine struct {
	store  Store
	events EventPublisher
	now    func() time.Time
}

// NewEngine constructs an Engine.  events may be nil, in which case
// no domain events are published.  now is injectable for tests and
// defaults to time.Now.
func NewEngine(store Store, events EventPublisher, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{store: store, events: events, now: now}
}

// Day truncates an instant to UTC midnight.  Every date the engine
// stores or compares goes through this first.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// today returns the current date at UTC midnight.
func (e *Engine) today() time.Time { return Day(e.now()) }

// validRange normalizes and checks a requested stay.  Start must be
// today or later and strictly before end.
func (e *Engine) validRange(start, end time.Time) (time.Time, time.Time, error) {
	start, end = Day(start), Day(end)
	if !start.Before(end) {
		return start, end, ErrInvalidRange
	}
	if start.Before(e.today()) {
		return start, end, ErrInvalidRange
	}
	return start, end, nil
}

// CheckAvailability reports whether the property can be booked for
// [start, end).  The answer is advisory: a conflicting request can
// still land between this call and Create, which re-checks inside its
// transaction.
func (e *Engine) CheckAvailability(ctx context.Context, propertyID uint64, start, end time.Time) (bool, error) {
	start, end, err := e.validRange(start, end)
	if err != nil {
		return false, err
	}
	p, err := e.store.Property(ctx, propertyID)
	if err != nil {
		return false, err
	}
	if !p.Bookable() {
		return false, nil
	}
	n, err := e.store.OverlapCount(ctx, propertyID, start, end, 0)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Create places a booking request for the actor on the property.  The
// request starts pending unless the property allows instant booking,
// in which case it is confirmed immediately and its days are blocked
// in the calendar.  Total price is the nightly price times the number
// of nights.
func (e *Engine) Create(ctx context.Context, actor model.Actor, propertyID uint64, start, end time.Time, message *string) (model.Booking, error) {
	start, end, err := e.validRange(start, end)
	if err != nil {
		return model.Booking{}, err
	}
	p, err := e.store.Property(ctx, propertyID)
	if err != nil {
		return model.Booking{}, err
	}
	if !p.Bookable() {
		return model.Booking{}, ErrPropertyUnavailable
	}
	if p.OwnerID == actor.ID {
		return model.Booking{}, ErrOwnBooking
	}

	// Advisory precheck keeps the common conflict case out of the
	// transaction; the authoritative check runs inside it.
	n, err := e.store.OverlapCount(ctx, propertyID, start, end, 0)
	if err != nil {
		return model.Booking{}, err
	}
	if n > 0 {
		return model.Booking{}, repository.ErrConflict
	}

	nights := int(end.Sub(start).Hours() / 24)
	b := model.Booking{
		PropertyID:    propertyID,
		TenantID:      actor.ID,
		OwnerID:       p.OwnerID,
		StartDate:     start,
		EndDate:       end,
		TotalPrice:    p.Price * float64(nights),
		TenantMessage: message,
		Status:        model.BookingPending,
		PaymentStatus: model.PaymentUnpaid,
	}
	if p.InstantBooking {
		b.Status = model.BookingConfirmed
	}

	err = e.store.InTx(ctx, func(tx StoreTx) error {
		n, err := tx.OverlapCount(ctx, propertyID, start, end, 0)
		if err != nil {
			return err
		}
		if n > 0 {
			return repository.ErrConflict
		}
		if err := tx.CreateBooking(ctx, &b); err != nil {
			return err
		}
		if b.Status == model.BookingConfirmed {
			return tx.BlockCalendar(ctx, propertyID, b.ID, start, end)
		}
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}

	if b.Status == model.BookingConfirmed {
		e.publish(ctx, queue.EventBookingConfirmed, b, p.Title)
	}
	return b, nil
}

// UpdateStatus moves a booking along the state machine on behalf of
// the actor.  Ownership is enforced per role: tenants may only touch
// their own bookings, owners only bookings on their properties.
// Confirming re-checks the range inside the transaction and leaves
// the booking pending on conflict; cancelling a confirmed booking
// frees its calendar days in the same commit.
func (e *Engine) UpdateStatus(ctx context.Context, actor model.Actor, bookingID uint64, to model.BookingStatus, ownerResponse *string) (model.Booking, error) {
	b, err := e.store.Booking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}

	switch actor.Role {
	case model.RoleTenant:
		if b.TenantID != actor.ID {
			return model.Booking{}, repository.ErrForbidden
		}
	case model.RoleOwner:
		if b.OwnerID != actor.ID {
			return model.Booking{}, repository.ErrForbidden
		}
	case model.RoleAdmin:
		// admins may act on any booking
	default:
		return model.Booking{}, repository.ErrForbidden
	}

	if !model.TransitionAllowed(b.Status, to, actor.Role) {
		return model.Booking{}, ErrInvalidTransition
	}
	if to == model.BookingCompleted && e.today().Before(Day(b.EndDate)) {
		return model.Booking{}, ErrStayNotOver
	}

	wasConfirmed := b.Status == model.BookingConfirmed
	err = e.store.InTx(ctx, func(tx StoreTx) error {
		cur, err := tx.BookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		// Re-verify on locked state; a concurrent transition may have
		// moved the booking since the first read.
		if !model.TransitionAllowed(cur.Status, to, actor.Role) {
			return ErrInvalidTransition
		}
		wasConfirmed = cur.Status == model.BookingConfirmed

		if to == model.BookingConfirmed {
			n, err := tx.OverlapCount(ctx, cur.PropertyID, cur.StartDate, cur.EndDate, cur.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return repository.ErrConflict
			}
		}
		if err := tx.SetBookingStatus(ctx, bookingID, to, ownerResponse); err != nil {
			return err
		}
		switch {
		case to == model.BookingConfirmed:
			return tx.BlockCalendar(ctx, cur.PropertyID, cur.ID, cur.StartDate, cur.EndDate)
		case to == model.BookingCancelled && wasConfirmed:
			return tx.ReleaseCalendar(ctx, cur.ID)
		}
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}

	b.Status = to
	if ownerResponse != nil {
		b.OwnerResponse = ownerResponse
	}

	title := ""
	if p, perr := e.store.Property(ctx, b.PropertyID); perr == nil {
		title = p.Title
	}
	switch to {
	case model.BookingConfirmed:
		e.publish(ctx, queue.EventBookingConfirmed, b, title)
	case model.BookingRejected:
		e.publish(ctx, queue.EventBookingRejected, b, title)
	case model.BookingCancelled:
		e.publish(ctx, queue.EventBookingCancelled, b, title)
	}
	return b, nil
}

// Get loads a booking and enforces per-role visibility: tenants see
// their own, owners see bookings on their properties, admins see all.
func (e *Engine) Get(ctx context.Context, actor model.Actor, bookingID uint64) (model.Booking, error) {
	b, err := e.store.Booking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if actor.Role != model.RoleAdmin && b.TenantID != actor.ID && b.OwnerID != actor.ID {
		return model.Booking{}, repository.ErrForbidden
	}
	return b, nil
}

// BookedDates returns the blocking date ranges of a property so a
// client can render an availability calendar.  Only dates leak, never
// who booked them.
func (e *Engine) BookedDates(ctx context.Context, propertyID uint64) ([]model.DateRange, error) {
	if _, err := e.store.Property(ctx, propertyID); err != nil {
		return nil, err
	}
	return e.store.BookedRanges(ctx, propertyID)
}

// Calendar returns the materialized per-day calendar rows between
// from and to.  A zero from defaults to today; a zero to defaults to
// ninety days after from.
func (e *Engine) Calendar(ctx context.Context, propertyID uint64, from, to time.Time) ([]model.CalendarEntry, error) {
	if _, err := e.store.Property(ctx, propertyID); err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = e.today()
	} else {
		from = Day(from)
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, 90)
	} else {
		to = Day(to)
	}
	return e.store.CalendarRange(ctx, propertyID, from, to)
}

// publish sends a domain event, logging and swallowing any broker
// failure.  The booking transition has already committed; losing an
// event must not fail the request.
func (e *Engine) publish(ctx context.Context, typ string, b model.Booking, propertyTitle string) {
	if e.events == nil {
		return
	}
	ev := queue.Event{
		Type:          typ,
		BookingID:     b.ID,
		PropertyID:    b.PropertyID,
		PropertyTitle: propertyTitle,
		TenantID:      b.TenantID,
		OwnerID:       b.OwnerID,
		Amount:        b.TotalPrice,
		StartDate:     b.StartDate.Format("2006-01-02"),
		EndDate:       b.EndDate.Format("2006-01-02"),
		OccurredAt:    e.now().UTC().Format(time.RFC3339),
	}
	if err := e.events.Publish(ctx, ev); err != nil {
		log.Printf("booking: publish %s event failed: %v", typ, err)
	}
}
