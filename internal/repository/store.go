package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rentease/rentease-server/internal/model"
)

// Store bundles the per-table repositories behind one facade and owns
// transaction demarcation for multi-table writes.  The service layer
// talks to this type (through its own interfaces) instead of juggling
// *sql.Tx handles itself.
type Store struct {
	db         *sql.DB
	Properties *PropertyRepo
	Bookings   *BookingRepo
	Calendar   *CalendarRepo
	Payments   *PaymentRepo
}

// NewStore wires a Store over one DB handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:         db,
		Properties: NewPropertyRepo(db),
		Bookings:   NewBookingRepo(db),
		Calendar:   NewCalendarRepo(db),
		Payments:   NewPaymentRepo(db),
	}
}

// Property loads a live property.
func (s *Store) Property(ctx context.Context, id uint64) (model.Property, error) {
	return s.Properties.GetByID(ctx, id)
}

// Booking loads a booking.
func (s *Store) Booking(ctx context.Context, id uint64) (model.Booking, error) {
	return s.Bookings.GetByID(ctx, id)
}

// OverlapCount counts blocking bookings intersecting [start, end).
func (s *Store) OverlapCount(ctx context.Context, propertyID uint64, start, end time.Time, excludeID uint64) (int, error) {
	return s.Bookings.OverlapCount(ctx, propertyID, start, end, excludeID)
}

// BookedRanges lists blocking date ranges for a property.
func (s *Store) BookedRanges(ctx context.Context, propertyID uint64) ([]model.DateRange, error) {
	return s.Bookings.BookedRanges(ctx, propertyID)
}

// CalendarRange lists calendar rows for a property between two dates.
func (s *Store) CalendarRange(ctx context.Context, propertyID uint64, from, to time.Time) ([]model.CalendarEntry, error) {
	return s.Calendar.Range(ctx, propertyID, from, to)
}

// PaymentByID loads an intent by its opaque identifier.
func (s *Store) PaymentByID(ctx context.Context, paymentID string) (model.Payment, error) {
	return s.Payments.GetByPaymentID(ctx, paymentID)
}

// LatestPaymentByBooking loads a booking's most recent intent.
func (s *Store) LatestPaymentByBooking(ctx context.Context, bookingID uint64) (model.Payment, error) {
	return s.Payments.LatestByBooking(ctx, bookingID)
}

// PaymentsByBooking lists every intent for a booking.
func (s *Store) PaymentsByBooking(ctx context.Context, bookingID uint64) ([]model.Payment, error) {
	return s.Payments.ListByBooking(ctx, bookingID)
}

// PaymentsByStatus lists intents in one status for the admin queue.
func (s *Store) PaymentsByStatus(ctx context.Context, status model.PaymentStatus) ([]model.Payment, error) {
	return s.Payments.ListByStatus(ctx, status)
}

// CreatePayment inserts a new intent.
func (s *Store) CreatePayment(ctx context.Context, p *model.Payment) error {
	return s.Payments.Create(ctx, p)
}

// MarkPaymentExpired lazily expires a pending intent past its TTL.
func (s *Store) MarkPaymentExpired(ctx context.Context, id uint64, now time.Time) (bool, error) {
	return s.Payments.MarkExpired(ctx, id, now)
}

// AttachPaymentProof records proof and moves the intent to
// pending_verification.
func (s *Store) AttachPaymentProof(ctx context.Context, id uint64, transactionID string, proof *string) (bool, error) {
	return s.Payments.AttachProof(ctx, id, transactionID, proof)
}

// Tx is the view of the Store available inside a transaction.  Every
// method runs against the same *sql.Tx, so all writes commit or roll
// back together.
type Tx struct {
	tx *sql.Tx
	s  *Store
}

// InTx runs fn inside one DB transaction.  The transaction commits
// only when fn returns nil; any error rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&Tx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CreateBooking inserts a booking.
func (t *Tx) CreateBooking(ctx context.Context, b *model.Booking) error {
	return t.s.Bookings.CreateTx(ctx, t.tx, b)
}

// BookingForUpdate re-reads a booking under a row lock.
func (t *Tx) BookingForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
	return t.s.Bookings.GetByIDTx(ctx, t.tx, id)
}

// OverlapCount is the authoritative in-transaction conflict check.
func (t *Tx) OverlapCount(ctx context.Context, propertyID uint64, start, end time.Time, excludeID uint64) (int, error) {
	return t.s.Bookings.OverlapCountTx(ctx, t.tx, propertyID, start, end, excludeID)
}

// SetBookingStatus updates a booking's status and owner response.
func (t *Tx) SetBookingStatus(ctx context.Context, id uint64, status model.BookingStatus, ownerResponse *string) error {
	return t.s.Bookings.SetStatusTx(ctx, t.tx, id, status, ownerResponse)
}

// SetBookingPaid flips a booking's payment_status to paid.
func (t *Tx) SetBookingPaid(ctx context.Context, id uint64) error {
	return t.s.Bookings.SetPaymentStateTx(ctx, t.tx, id, model.PaymentPaid)
}

// BlockCalendar materializes a booking's range into the calendar.
func (t *Tx) BlockCalendar(ctx context.Context, propertyID, bookingID uint64, start, end time.Time) error {
	return t.s.Calendar.BlockRangeTx(ctx, t.tx, propertyID, bookingID, start, end)
}

// ReleaseCalendar frees every calendar day held by a booking.
func (t *Tx) ReleaseCalendar(ctx context.Context, bookingID uint64) error {
	return t.s.Calendar.ReleaseByBookingTx(ctx, t.tx, bookingID)
}

// PaymentForUpdate re-reads an intent under a row lock.
func (t *Tx) PaymentForUpdate(ctx context.Context, paymentID string) (model.Payment, error) {
	return t.s.Payments.GetByPaymentIDTx(ctx, t.tx, paymentID)
}

// SetPaymentDecision records the admin verdict on an intent.
func (t *Tx) SetPaymentDecision(ctx context.Context, id uint64, status model.PaymentStatus, notes *string, decidedAt time.Time) error {
	return t.s.Payments.SetDecisionTx(ctx, t.tx, id, status, notes, decidedAt)
}
