package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/queue"
	"github.com/rentease/rentease-server/internal/repository"
)

// Payments implements the manual payment flow: QR intent issuance
// with a TTL, tenant proof submission and admin verification.  Expiry
// is lazy; an intent past its deadline flips to expired the first
// time anything reads it.
type Payments struct {
	store   Store
	events  EventPublisher
	now     func() time.Time
	ttl     time.Duration
	account PlatformAccount
}

// NewPayments constructs the payment service.  ttl <= 0 falls back to
// ten minutes.
func NewPayments(store Store, events EventPublisher, now func() time.Time, ttl time.Duration, account PlatformAccount) *Payments {
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Payments{store: store, events: events, now: now, ttl: ttl, account: account}
}

// newPaymentID builds the opaque external identifier embedded in the
// QR payload: a millisecond timestamp for rough ordering plus a
// UUID-derived suffix so identifiers cannot be guessed.
func (s *Payments) newPaymentID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("PAY-%d-%s", s.now().UnixMilli(), suffix)
}

// CreateIntent issues a payment intent for a confirmed booking.  Only
// the booking's tenant may pay.  If the latest intent is still active
// and unexpired the call fails with ErrDuplicateIntent; an expired
// one is marked expired and superseded by the new intent.
func (s *Payments) CreateIntent(ctx context.Context, actor model.Actor, bookingID uint64, method string) (model.Payment, error) {
	b, err := s.store.Booking(ctx, bookingID)
	if err != nil {
		return model.Payment{}, err
	}
	if b.TenantID != actor.ID && actor.Role != model.RoleAdmin {
		return model.Payment{}, repository.ErrForbidden
	}
	if b.Status != model.BookingConfirmed {
		return model.Payment{}, ErrNotPayable
	}
	if b.PaymentStatus == model.PaymentPaid {
		return model.Payment{}, ErrAlreadyPaid
	}

	now := s.now()
	latest, err := s.store.LatestPaymentByBooking(ctx, bookingID)
	switch {
	case err == nil:
		if latest.Status == model.PaymentVerified {
			return model.Payment{}, ErrAlreadyPaid
		}
		if latest.ExpiredBy(now) {
			if _, err := s.store.MarkPaymentExpired(ctx, latest.ID, now); err != nil {
				return model.Payment{}, err
			}
		} else if latest.Status.Active() {
			return model.Payment{}, repository.ErrDuplicateIntent
		}
	case errors.Is(err, repository.ErrPaymentNotFound):
		// first intent for this booking
	default:
		return model.Payment{}, err
	}

	expiresAt := now.Add(s.ttl)
	p := model.Payment{
		PaymentID:     s.newPaymentID(),
		BookingID:     bookingID,
		Amount:        b.TotalPrice,
		PaymentMethod: method,
		Status:        model.PaymentPending,
		ExpiresAt:     expiresAt,
	}
	qr, err := buildQR(p.PaymentID, bookingID, p.Amount, s.account, expiresAt)
	if err != nil {
		return model.Payment{}, err
	}
	p.QRPayload = &qr

	if err := s.store.CreatePayment(ctx, &p); err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

// checkExpiry lazily expires a pending intent past its deadline and
// returns the up-to-date view.
func (s *Payments) checkExpiry(ctx context.Context, p model.Payment) (model.Payment, error) {
	if !p.ExpiredBy(s.now()) {
		return p, nil
	}
	flipped, err := s.store.MarkPaymentExpired(ctx, p.ID, s.now())
	if err != nil {
		return p, err
	}
	if flipped {
		p.Status = model.PaymentExpired
	} else {
		// someone else won the race; re-read the committed state
		return s.store.PaymentByID(ctx, p.PaymentID)
	}
	return p, nil
}

// authorize checks that the actor may see the intent: the booking's
// tenant, the property's owner or an admin.
func (s *Payments) authorize(ctx context.Context, actor model.Actor, p model.Payment) error {
	if actor.Role == model.RoleAdmin {
		return nil
	}
	b, err := s.store.Booking(ctx, p.BookingID)
	if err != nil {
		return err
	}
	if b.TenantID != actor.ID && b.OwnerID != actor.ID {
		return repository.ErrForbidden
	}
	return nil
}

// Status returns the current state of an intent, applying lazy expiry
// first.
func (s *Payments) Status(ctx context.Context, actor model.Actor, paymentID string) (model.Payment, error) {
	p, err := s.store.PaymentByID(ctx, paymentID)
	if err != nil {
		return model.Payment{}, err
	}
	if err := s.authorize(ctx, actor, p); err != nil {
		return model.Payment{}, err
	}
	return s.checkExpiry(ctx, p)
}

// SubmitProof records the tenant's transaction reference and moves
// the intent to pending_verification.  A proof that arrives after the
// TTL fails with ErrExpired; the intent flips to expired instead.
func (s *Payments) SubmitProof(ctx context.Context, actor model.Actor, paymentID, transactionID string, proof *string) (model.Payment, error) {
	p, err := s.store.PaymentByID(ctx, paymentID)
	if err != nil {
		return model.Payment{}, err
	}
	b, err := s.store.Booking(ctx, p.BookingID)
	if err != nil {
		return model.Payment{}, err
	}
	if b.TenantID != actor.ID {
		return model.Payment{}, repository.ErrForbidden
	}

	p, err = s.checkExpiry(ctx, p)
	if err != nil {
		return model.Payment{}, err
	}
	if p.Status == model.PaymentExpired {
		return model.Payment{}, repository.ErrExpired
	}
	if p.Status != model.PaymentPending {
		return model.Payment{}, ErrNotDecidable
	}

	ok, err := s.store.AttachPaymentProof(ctx, p.ID, transactionID, proof)
	if err != nil {
		return model.Payment{}, err
	}
	if !ok {
		// the guarded update lost a race with expiry or a decision
		return model.Payment{}, repository.ErrExpired
	}
	p.Status = model.PaymentPendingCheck
	p.TransactionID = &transactionID
	p.PaymentProof = proof
	return p, nil
}

// Verify records the admin's verdict on an intent awaiting
// verification.  Approval marks the intent verified and the booking
// paid in the same transaction; both flip or neither does.  Repeating
// an already-recorded verdict is a no-op success; any other verdict on
// a terminal intent fails with ErrConflict.
func (s *Payments) Verify(ctx context.Context, paymentID string, approve bool, notes *string) (model.Payment, error) {
	verdict := model.PaymentRejected
	if approve {
		verdict = model.PaymentVerified
	}

	var p model.Payment
	applied := false
	now := s.now()
	err := s.store.InTx(ctx, func(tx StoreTx) error {
		var err error
		p, err = tx.PaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status == verdict {
			return nil
		}
		if p.Status.Terminal() {
			return repository.ErrConflict
		}
		if p.Status != model.PaymentPendingCheck {
			return ErrNotDecidable
		}
		if err := tx.SetPaymentDecision(ctx, p.ID, verdict, notes, now); err != nil {
			return err
		}
		applied = true
		p.Status = verdict
		p.AdminNotes = notes
		if approve {
			p.VerifiedAt = &now
			return tx.SetBookingPaid(ctx, p.BookingID)
		}
		return nil
	})
	if err != nil {
		return model.Payment{}, err
	}

	if approve && applied {
		s.publishVerified(ctx, p)
	}
	return p, nil
}

// ByBooking lists every intent issued for a booking, newest first,
// with lazy expiry applied.
func (s *Payments) ByBooking(ctx context.Context, actor model.Actor, bookingID uint64) ([]model.Payment, error) {
	b, err := s.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin && b.TenantID != actor.ID && b.OwnerID != actor.ID {
		return nil, repository.ErrForbidden
	}
	list, err := s.store.PaymentsByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i], err = s.checkExpiry(ctx, list[i])
		if err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Queue lists intents by status for the admin verification queue.
func (s *Payments) Queue(ctx context.Context, status model.PaymentStatus) ([]model.Payment, error) {
	return s.store.PaymentsByStatus(ctx, status)
}

func (s *Payments) publishVerified(ctx context.Context, p model.Payment) {
	if s.events == nil {
		return
	}
	b, err := s.store.Booking(ctx, p.BookingID)
	if err != nil {
		log.Printf("payment: load booking for event failed: %v", err)
		return
	}
	ev := queue.Event{
		Type:       queue.EventPaymentVerified,
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		TenantID:   b.TenantID,
		OwnerID:    b.OwnerID,
		PaymentID:  p.PaymentID,
		Amount:     p.Amount,
		OccurredAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("payment: publish verified event failed: %v", err)
	}
}
