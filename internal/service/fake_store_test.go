package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/queue"
	"github.com/rentease/rentease-server/internal/repository"
)

// fakeStore is an in-memory Store used by the engine and payment
// tests.  It mirrors the SQL facade closely enough to exercise the
// services: blocking-status overlap counting, calendar rows keyed by
// (property, day) and guarded payment updates.
type fakeStore struct {
	mu         sync.Mutex
	properties map[uint64]model.Property
	bookings   map[uint64]model.Booking
	payments   map[uint64]model.Payment
	calendar   map[string]model.CalendarEntry
	nextID     uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		properties: map[uint64]model.Property{},
		bookings:   map[uint64]model.Booking{},
		payments:   map[uint64]model.Payment{},
		calendar:   map[string]model.CalendarEntry{},
	}
}

func calKey(propertyID uint64, day time.Time) string {
	return fmt.Sprintf("%d:%s", propertyID, day.Format("2006-01-02"))
}

func (f *fakeStore) addProperty(p model.Property) model.Property {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.properties[p.ID] = p
	return p
}

func (f *fakeStore) addBooking(b model.Booking) model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	b.ID = f.nextID
	f.bookings[b.ID] = b
	return b
}

func (f *fakeStore) Property(ctx context.Context, id uint64) (model.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.properties[id]
	if !ok {
		return model.Property{}, repository.ErrPropertyNotFound
	}
	return p, nil
}

func (f *fakeStore) Booking(ctx context.Context, id uint64) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeStore) overlapCountLocked(propertyID uint64, start, end time.Time, excludeID uint64) int {
	r := model.DateRange{Start: start, End: end}
	n := 0
	for _, b := range f.bookings {
		if b.PropertyID != propertyID || b.ID == excludeID || !b.Status.Blocking() {
			continue
		}
		if r.Overlaps(model.DateRange{Start: b.StartDate, End: b.EndDate}) {
			n++
		}
	}
	return n
}

func (f *fakeStore) OverlapCount(ctx context.Context, propertyID uint64, start, end time.Time, excludeID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlapCountLocked(propertyID, start, end, excludeID), nil
}

func (f *fakeStore) BookedRanges(ctx context.Context, propertyID uint64) ([]model.DateRange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.DateRange{}
	for _, b := range f.bookings {
		if b.PropertyID == propertyID && b.Status.Blocking() {
			out = append(out, model.DateRange{Start: b.StartDate, End: b.EndDate})
		}
	}
	return out, nil
}

func (f *fakeStore) CalendarRange(ctx context.Context, propertyID uint64, from, to time.Time) ([]model.CalendarEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.CalendarEntry{}
	for _, e := range f.calendar {
		if e.PropertyID == propertyID && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) PaymentByID(ctx context.Context, paymentID string) (model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.PaymentID == paymentID {
			return p, nil
		}
	}
	return model.Payment{}, repository.ErrPaymentNotFound
}

func (f *fakeStore) LatestPaymentByBooking(ctx context.Context, bookingID uint64) (model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest model.Payment
	found := false
	for _, p := range f.payments {
		if p.BookingID == bookingID && (!found || p.ID > latest.ID) {
			latest = p
			found = true
		}
	}
	if !found {
		return model.Payment{}, repository.ErrPaymentNotFound
	}
	return latest, nil
}

func (f *fakeStore) PaymentsByBooking(ctx context.Context, bookingID uint64) ([]model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Payment{}
	for _, p := range f.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) PaymentsByStatus(ctx context.Context, status model.PaymentStatus) ([]model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Payment{}
	for _, p := range f.payments {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) CreatePayment(ctx context.Context, p *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.payments[p.ID] = *p
	return nil
}

func (f *fakeStore) MarkPaymentExpired(ctx context.Context, id uint64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != model.PaymentPending || !now.After(p.ExpiresAt) {
		return false, nil
	}
	p.Status = model.PaymentExpired
	f.payments[id] = p
	return true, nil
}

func (f *fakeStore) AttachPaymentProof(ctx context.Context, id uint64, transactionID string, proof *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != model.PaymentPending {
		return false, nil
	}
	p.Status = model.PaymentPendingCheck
	p.TransactionID = &transactionID
	p.PaymentProof = proof
	f.payments[id] = p
	return true, nil
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx StoreTx) error) error {
	return fn(&fakeTx{f: f})
}

// fakeTx applies writes straight to the fake store.  The engine only
// mutates after its in-transaction checks pass, so commit-or-rollback
// fidelity is not needed for these tests.
type fakeTx struct{ f *fakeStore }

func (t *fakeTx) CreateBooking(ctx context.Context, b *model.Booking) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.f.nextID++
	b.ID = t.f.nextID
	t.f.bookings[b.ID] = *b
	return nil
}

func (t *fakeTx) BookingForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
	return t.f.Booking(ctx, id)
}

func (t *fakeTx) OverlapCount(ctx context.Context, propertyID uint64, start, end time.Time, excludeID uint64) (int, error) {
	return t.f.OverlapCount(ctx, propertyID, start, end, excludeID)
}

func (t *fakeTx) SetBookingStatus(ctx context.Context, id uint64, status model.BookingStatus, ownerResponse *string) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	b, ok := t.f.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.Status = status
	if ownerResponse != nil {
		b.OwnerResponse = ownerResponse
	}
	t.f.bookings[id] = b
	return nil
}

func (t *fakeTx) SetBookingPaid(ctx context.Context, id uint64) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	b, ok := t.f.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.PaymentStatus = model.PaymentPaid
	t.f.bookings[id] = b
	return nil
}

func (t *fakeTx) BlockCalendar(ctx context.Context, propertyID, bookingID uint64, start, end time.Time) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	for _, day := range model.DaysIn(start, end) {
		bid := bookingID
		t.f.calendar[calKey(propertyID, day)] = model.CalendarEntry{
			PropertyID: propertyID, Date: day, IsAvailable: false, BookingID: &bid,
		}
	}
	return nil
}

func (t *fakeTx) ReleaseCalendar(ctx context.Context, bookingID uint64) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	for k, e := range t.f.calendar {
		if e.BookingID != nil && *e.BookingID == bookingID {
			e.IsAvailable = true
			e.BookingID = nil
			t.f.calendar[k] = e
		}
	}
	return nil
}

func (t *fakeTx) PaymentForUpdate(ctx context.Context, paymentID string) (model.Payment, error) {
	return t.f.PaymentByID(ctx, paymentID)
}

func (t *fakeTx) SetPaymentDecision(ctx context.Context, id uint64, status model.PaymentStatus, notes *string, decidedAt time.Time) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	p, ok := t.f.payments[id]
	if !ok {
		return repository.ErrPaymentNotFound
	}
	p.Status = status
	p.AdminNotes = notes
	if status == model.PaymentVerified {
		at := decidedAt
		p.VerifiedAt = &at
	}
	t.f.payments[id] = p
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *fakePublisher) Publish(ctx context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) byType(typ string) []queue.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []queue.Event{}
	for _, ev := range p.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
