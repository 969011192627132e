package service

import (
	"context"
	"time"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/queue"
	"github.com/rentease/rentease-server/internal/repository"
)

// Store is the persistence surface the booking engine and payment
// service depend on.  Production uses the SQL-backed facade in the
// repository package; tests substitute an in-memory fake.
type Store interface {
	Property(ctx context.Context, id uint64) (model.Property, error)
	Booking(ctx context.Context, id uint64) (model.Booking, error)
	OverlapCount(ctx context.Context, propertyID uint64, start, end time.Time, excludeID uint64) (int, error)
	BookedRanges(ctx context.Context, propertyID uint64) ([]model.DateRange, error)
	CalendarRange(ctx context.Context, propertyID uint64, from, to time.Time) ([]model.CalendarEntry, error)

	PaymentByID(ctx context.Context, paymentID string) (model.Payment, error)
	LatestPaymentByBooking(ctx context.Context, bookingID uint64) (model.Payment, error)
	PaymentsByBooking(ctx context.Context, bookingID uint64) ([]model.Payment, error)
	PaymentsByStatus(ctx context.Context, status model.PaymentStatus) ([]model.Payment, error)
	CreatePayment(ctx context.Context, p *model.Payment) error
	MarkPaymentExpired(ctx context.Context, id uint64, now time.Time) (bool, error)
	AttachPaymentProof(ctx context.Context, id uint64, transactionID string, proof *string) (bool, error)

	InTx(ctx context.Context, fn func(tx StoreTx) error) error
}

// StoreTx is the transactional view of the Store.  Every call inside
// one InTx closure commits or rolls back together.
type StoreTx interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	BookingForUpdate(ctx context.Context, id uint64) (model.Booking, error)
	OverlapCount(ctx context.Context, propertyID uint64, start, end time.Time, excludeID uint64) (int, error)
	SetBookingStatus(ctx context.Context, id uint64, status model.BookingStatus, ownerResponse *string) error
	SetBookingPaid(ctx context.Context, id uint64) error
	BlockCalendar(ctx context.Context, propertyID, bookingID uint64, start, end time.Time) error
	ReleaseCalendar(ctx context.Context, bookingID uint64) error
	PaymentForUpdate(ctx context.Context, paymentID string) (model.Payment, error)
	SetPaymentDecision(ctx context.Context, id uint64, status model.PaymentStatus, notes *string, decidedAt time.Time) error
}

// sqlStore adapts *repository.Store to the Store interface.  The only
// glue needed is the InTx signature: the facade hands closures a
// concrete *repository.Tx, which already satisfies StoreTx.
type sqlStore struct {
	*repository.Store
}

// NewSQLStore wraps the repository facade for use by the services.
func NewSQLStore(st *repository.Store) Store {
	return &sqlStore{Store: st}
}

func (s *sqlStore) InTx(ctx context.Context, fn func(tx StoreTx) error) error {
	return s.Store.InTx(ctx, func(tx *repository.Tx) error {
		return fn(tx)
	})
}

// EventPublisher delivers domain events to the message broker.  The
// queue.Publisher implements it; tests capture events with a stub.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.Event) error
}
