package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/queue"
	"github.com/rentease/rentease-server/internal/repository"
)

// clock is a settable time source shared by the payment tests so TTL
// expiry can be exercised without sleeping.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var testAccount = PlatformAccount{Number: "9841234567", MerchantName: "RentEase Platform"}

func newTestPayments(t *testing.T) (*Payments, *fakeStore, *fakePublisher, *clock) {
	t.Helper()
	st := newFakeStore()
	pub := &fakePublisher{}
	clk := &clock{t: testNow}
	svc := NewPayments(st, pub, clk.Now, 10*time.Minute, testAccount)
	return svc, st, pub, clk
}

// confirmedBooking seeds a confirmed, unpaid booking and returns it
// with its tenant actor.
func confirmedBooking(st *fakeStore) (model.Booking, model.Actor) {
	b := st.addBooking(model.Booking{
		PropertyID: 1, TenantID: 2, OwnerID: 5,
		StartDate: day(2025, 3, 10), EndDate: day(2025, 3, 13),
		TotalPrice: 9000,
		Status:     model.BookingConfirmed, PaymentStatus: model.PaymentUnpaid,
	})
	return b, model.Actor{ID: 2, Role: model.RoleTenant}
}

func TestCreateIntent(t *testing.T) {
	svc, st, _, _ := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	p, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if !strings.HasPrefix(p.PaymentID, "PAY-") {
		t.Errorf("PaymentID = %q, want PAY- prefix", p.PaymentID)
	}
	if p.Amount != 9000 {
		t.Errorf("Amount = %v, want the booking total 9000", p.Amount)
	}
	if p.Status != model.PaymentPending {
		t.Errorf("Status = %s, want pending", p.Status)
	}
	if want := testNow.Add(10 * time.Minute); !p.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", p.ExpiresAt, want)
	}
	if p.QRPayload == nil {
		t.Fatal("QRPayload missing")
	}
	if !strings.HasPrefix(*p.QRPayload, "data:image/png;base64,") {
		t.Errorf("QRPayload = %.40q, want a data URI", *p.QRPayload)
	}
	raw := strings.TrimPrefix(*p.QRPayload, "data:image/png;base64,")
	if _, err := base64.StdEncoding.DecodeString(raw); err != nil {
		t.Errorf("QR payload is not valid base64: %v", err)
	}
}

func TestCreateIntentGates(t *testing.T) {
	svc, st, _, _ := newTestPayments(t)

	pending := st.addBooking(model.Booking{
		PropertyID: 1, TenantID: 2, OwnerID: 5, TotalPrice: 4000,
		Status: model.BookingPending, PaymentStatus: model.PaymentUnpaid,
	})
	tenant := model.Actor{ID: 2, Role: model.RoleTenant}
	if _, err := svc.CreateIntent(context.Background(), tenant, pending.ID, "esewa"); !errors.Is(err, ErrNotPayable) {
		t.Errorf("pending booking: err = %v, want ErrNotPayable", err)
	}

	paid := st.addBooking(model.Booking{
		PropertyID: 1, TenantID: 2, OwnerID: 5, TotalPrice: 4000,
		Status: model.BookingConfirmed, PaymentStatus: model.PaymentPaid,
	})
	if _, err := svc.CreateIntent(context.Background(), tenant, paid.ID, "esewa"); !errors.Is(err, ErrAlreadyPaid) {
		t.Errorf("paid booking: err = %v, want ErrAlreadyPaid", err)
	}

	b, _ := confirmedBooking(st)
	stranger := model.Actor{ID: 99, Role: model.RoleTenant}
	if _, err := svc.CreateIntent(context.Background(), stranger, b.ID, "esewa"); !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("stranger: err = %v, want ErrForbidden", err)
	}
}

func TestCreateIntentDuplicateActive(t *testing.T) {
	svc, st, _, _ := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	if _, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa"); err != nil {
		t.Fatalf("first intent: %v", err)
	}
	if _, err := svc.CreateIntent(context.Background(), tenant, b.ID, "khalti"); !errors.Is(err, repository.ErrDuplicateIntent) {
		t.Errorf("second intent: err = %v, want ErrDuplicateIntent", err)
	}
}

func TestCreateIntentSupersedesExpired(t *testing.T) {
	svc, st, _, clk := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	first, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa")
	if err != nil {
		t.Fatalf("first intent: %v", err)
	}

	clk.Advance(11 * time.Minute)
	second, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa")
	if err != nil {
		t.Fatalf("intent after expiry: %v", err)
	}
	if second.PaymentID == first.PaymentID {
		t.Error("expected a fresh intent superseding the expired one")
	}
	old, _ := st.PaymentByID(context.Background(), first.PaymentID)
	if old.Status != model.PaymentExpired {
		t.Errorf("first intent Status = %s, want expired", old.Status)
	}
}

func TestStatusLazyExpiry(t *testing.T) {
	svc, st, _, clk := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	p, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}

	got, err := svc.Status(context.Background(), tenant, p.PaymentID)
	if err != nil || got.Status != model.PaymentPending {
		t.Fatalf("before TTL: (%s, %v), want pending", got.Status, err)
	}

	clk.Advance(11 * time.Minute)
	got, err = svc.Status(context.Background(), tenant, p.PaymentID)
	if err != nil {
		t.Fatalf("after TTL: %v", err)
	}
	if got.Status != model.PaymentExpired {
		t.Errorf("after TTL Status = %s, want expired", got.Status)
	}
	// the flip is persisted, not just a view
	stored, _ := st.PaymentByID(context.Background(), p.PaymentID)
	if stored.Status != model.PaymentExpired {
		t.Errorf("stored Status = %s, want expired", stored.Status)
	}
}

func TestSubmitProof(t *testing.T) {
	svc, st, _, _ := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	p, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}

	owner := model.Actor{ID: 5, Role: model.RoleOwner}
	if _, err := svc.SubmitProof(context.Background(), owner, p.PaymentID, "TXN12345", nil); !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("owner submit: err = %v, want ErrForbidden", err)
	}

	got, err := svc.SubmitProof(context.Background(), tenant, p.PaymentID, "TXN12345", nil)
	if err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}
	if got.Status != model.PaymentPendingCheck {
		t.Errorf("Status = %s, want pending_verification", got.Status)
	}
	if got.TransactionID == nil || *got.TransactionID != "TXN12345" {
		t.Errorf("TransactionID = %v, want TXN12345", got.TransactionID)
	}

	// a second submission is no longer decidable
	if _, err := svc.SubmitProof(context.Background(), tenant, p.PaymentID, "TXN67890", nil); !errors.Is(err, ErrNotDecidable) {
		t.Errorf("resubmit: err = %v, want ErrNotDecidable", err)
	}
}

func TestSubmitProofAfterExpiry(t *testing.T) {
	svc, st, _, clk := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	p, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}

	clk.Advance(11 * time.Minute)
	if _, err := svc.SubmitProof(context.Background(), tenant, p.PaymentID, "TXN12345", nil); !errors.Is(err, repository.ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}
	stored, _ := st.PaymentByID(context.Background(), p.PaymentID)
	if stored.Status != model.PaymentExpired {
		t.Errorf("stored Status = %s, want expired", stored.Status)
	}
}

func TestPendingVerificationNeverExpires(t *testing.T) {
	svc, st, _, clk := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	p, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if _, err := svc.SubmitProof(context.Background(), tenant, p.PaymentID, "TXN12345", nil); err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}

	// once proof is in, the TTL no longer applies
	clk.Advance(24 * time.Hour)
	got, err := svc.Status(context.Background(), tenant, p.PaymentID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.Status != model.PaymentPendingCheck {
		t.Errorf("Status = %s, want pending_verification", got.Status)
	}
}

func TestVerifyApprove(t *testing.T) {
	svc, st, pub, _ := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	p, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if _, err := svc.SubmitProof(context.Background(), tenant, p.PaymentID, "TXN12345", nil); err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}

	notes := "amount matches statement"
	got, err := svc.Verify(context.Background(), p.PaymentID, true, &notes)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Status != model.PaymentVerified {
		t.Errorf("Status = %s, want verified", got.Status)
	}
	if got.VerifiedAt == nil {
		t.Error("VerifiedAt not stamped")
	}

	// the booking flips to paid in the same transaction
	bk, _ := st.Booking(context.Background(), b.ID)
	if bk.PaymentStatus != model.PaymentPaid {
		t.Errorf("booking PaymentStatus = %s, want paid", bk.PaymentStatus)
	}
	if got := pub.byType(queue.EventPaymentVerified); len(got) != 1 {
		t.Errorf("published %d verified events, want 1", len(got))
	} else if got[0].PaymentID != p.PaymentID {
		t.Errorf("event PaymentID = %s, want %s", got[0].PaymentID, p.PaymentID)
	}
}

func TestVerifyReject(t *testing.T) {
	svc, st, pub, _ := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	p, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if _, err := svc.SubmitProof(context.Background(), tenant, p.PaymentID, "TXN12345", nil); err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}

	notes := "no matching transfer found"
	got, err := svc.Verify(context.Background(), p.PaymentID, false, &notes)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Status != model.PaymentRejected {
		t.Errorf("Status = %s, want rejected", got.Status)
	}
	bk, _ := st.Booking(context.Background(), b.ID)
	if bk.PaymentStatus != model.PaymentUnpaid {
		t.Errorf("booking PaymentStatus = %s, want still unpaid", bk.PaymentStatus)
	}
	if got := pub.byType(queue.EventPaymentVerified); len(got) != 0 {
		t.Errorf("published %d verified events on rejection, want 0", len(got))
	}

	// a rejected intent can be replaced by a fresh one
	if _, err := svc.CreateIntent(context.Background(), tenant, b.ID, "khalti"); err != nil {
		t.Errorf("new intent after rejection: %v", err)
	}
}

func TestVerifyIdempotent(t *testing.T) {
	svc, st, pub, _ := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	p, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if _, err := svc.SubmitProof(context.Background(), tenant, p.PaymentID, "TXN12345", nil); err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}
	if _, err := svc.Verify(context.Background(), p.PaymentID, true, nil); err != nil {
		t.Fatalf("first Verify: %v", err)
	}

	// repeating the same verdict succeeds without a second event
	got, err := svc.Verify(context.Background(), p.PaymentID, true, nil)
	if err != nil {
		t.Fatalf("repeat Verify: %v", err)
	}
	if got.Status != model.PaymentVerified {
		t.Errorf("Status = %s, want verified", got.Status)
	}
	if got := pub.byType(queue.EventPaymentVerified); len(got) != 1 {
		t.Errorf("published %d verified events, want 1", len(got))
	}

	// flipping the verdict on a terminal intent conflicts
	if _, err := svc.Verify(context.Background(), p.PaymentID, false, nil); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("contrary verdict: err = %v, want ErrConflict", err)
	}
}

func TestVerifyOnlyPendingVerification(t *testing.T) {
	svc, st, _, _ := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	p, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	// still pending, no proof submitted
	if _, err := svc.Verify(context.Background(), p.PaymentID, true, nil); !errors.Is(err, ErrNotDecidable) {
		t.Errorf("err = %v, want ErrNotDecidable", err)
	}
	if _, err := svc.Verify(context.Background(), "PAY-0-missing", true, nil); !errors.Is(err, repository.ErrPaymentNotFound) {
		t.Errorf("missing intent: err = %v, want ErrPaymentNotFound", err)
	}
}

func TestByBookingAuthorization(t *testing.T) {
	svc, st, _, _ := newTestPayments(t)
	b, tenant := confirmedBooking(st)

	if _, err := svc.CreateIntent(context.Background(), tenant, b.ID, "esewa"); err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}

	owner := model.Actor{ID: 5, Role: model.RoleOwner}
	list, err := svc.ByBooking(context.Background(), owner, b.ID)
	if err != nil {
		t.Fatalf("owner ByBooking: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d intents, want 1", len(list))
	}

	stranger := model.Actor{ID: 99, Role: model.RoleTenant}
	if _, err := svc.ByBooking(context.Background(), stranger, b.ID); !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("stranger: err = %v, want ErrForbidden", err)
	}
}
