package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/repository"
	"github.com/rentease/rentease-server/internal/service"
)

// fakePayments implements PaymentService with overridable funcs.
type fakePayments struct {
	createIntentFn func(ctx context.Context, actor model.Actor, bookingID uint64, method string) (model.Payment, error)
	submitProofFn  func(ctx context.Context, actor model.Actor, paymentID, transactionID string, proof *string) (model.Payment, error)
	statusFn       func(ctx context.Context, actor model.Actor, paymentID string) (model.Payment, error)
	byBookingFn    func(ctx context.Context, actor model.Actor, bookingID uint64) ([]model.Payment, error)
}

func (f *fakePayments) CreateIntent(ctx context.Context, actor model.Actor, bookingID uint64, method string) (model.Payment, error) {
	return f.createIntentFn(ctx, actor, bookingID, method)
}

func (f *fakePayments) SubmitProof(ctx context.Context, actor model.Actor, paymentID, transactionID string, proof *string) (model.Payment, error) {
	return f.submitProofFn(ctx, actor, paymentID, transactionID, proof)
}

func (f *fakePayments) Status(ctx context.Context, actor model.Actor, paymentID string) (model.Payment, error) {
	return f.statusFn(ctx, actor, paymentID)
}

func (f *fakePayments) ByBooking(ctx context.Context, actor model.Actor, bookingID uint64) ([]model.Payment, error) {
	return f.byBookingFn(ctx, actor, bookingID)
}

func samplePayment() model.Payment {
	qr := "data:image/png;base64,AAAA"
	return model.Payment{
		ID: 1, PaymentID: "PAY-1740000000000-abcdef123456", BookingID: 10,
		Amount: 9000, PaymentMethod: "esewa",
		Status:    model.PaymentPending,
		QRPayload: &qr,
		ExpiresAt: time.Date(2025, 3, 1, 9, 40, 0, 0, time.UTC),
	}
}

func TestCreateIntentHandler(t *testing.T) {
	e := newEcho()
	var gotMethod string
	fp := &fakePayments{
		createIntentFn: func(ctx context.Context, actor model.Actor, bookingID uint64, method string) (model.Payment, error) {
			gotMethod = method
			return samplePayment(), nil
		},
	}
	h := NewPaymentHandler(fp)

	body := `{"booking_id":10,"payment_method":"esewa"}`
	c, rec := newCtx(e, http.MethodPost, "/v1/payments", body, 2, model.RoleTenant)
	if err := h.CreateIntent(c); err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	if gotMethod != "esewa" {
		t.Errorf("method = %q, want esewa", gotMethod)
	}
	resp := decodeBody(t, rec)
	if resp["payment_id"] != "PAY-1740000000000-abcdef123456" {
		t.Errorf("payment_id = %v", resp["payment_id"])
	}
	if resp["qr_code"] != "data:image/png;base64,AAAA" {
		t.Errorf("qr_code = %v", resp["qr_code"])
	}
	if resp["expires_at"] != "2025-03-01T09:40:00Z" {
		t.Errorf("expires_at = %v", resp["expires_at"])
	}
}

func TestCreateIntentHandlerValidation(t *testing.T) {
	e := newEcho()
	h := NewPaymentHandler(&fakePayments{})

	cases := []struct {
		name string
		body string
	}{
		{"missing booking_id", `{"payment_method":"esewa"}`},
		{"unknown method", `{"booking_id":10,"payment_method":"paypal"}`},
	}
	for _, tc := range cases {
		c, rec := newCtx(e, http.MethodPost, "/v1/payments", tc.body, 2, model.RoleTenant)
		if err := h.CreateIntent(c); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestCreateIntentHandlerErrors(t *testing.T) {
	e := newEcho()

	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"duplicate intent", repository.ErrDuplicateIntent, http.StatusConflict},
		{"already paid", service.ErrAlreadyPaid, http.StatusConflict},
		{"not payable", service.ErrNotPayable, http.StatusBadRequest},
		{"forbidden", repository.ErrForbidden, http.StatusForbidden},
		{"missing booking", repository.ErrBookingNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		fp := &fakePayments{
			createIntentFn: func(ctx context.Context, actor model.Actor, bookingID uint64, method string) (model.Payment, error) {
				return model.Payment{}, tc.err
			},
		}
		h := NewPaymentHandler(fp)
		c, rec := newCtx(e, http.MethodPost, "/v1/payments", `{"booking_id":10,"payment_method":"esewa"}`, 2, model.RoleTenant)
		if err := h.CreateIntent(c); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if rec.Code != tc.wantCode {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.wantCode)
		}
	}
}

func TestSubmitProofHandler(t *testing.T) {
	e := newEcho()
	var gotTxn string
	fp := &fakePayments{
		submitProofFn: func(ctx context.Context, actor model.Actor, paymentID, transactionID string, proof *string) (model.Payment, error) {
			gotTxn = transactionID
			p := samplePayment()
			p.Status = model.PaymentPendingCheck
			p.TransactionID = &transactionID
			return p, nil
		},
	}
	h := NewPaymentHandler(fp)

	c, rec := newCtx(e, http.MethodPost, "/v1/payments/PAY-1/proof", `{"transaction_id":"TXN12345"}`, 2, model.RoleTenant)
	c.SetParamNames("payment_id")
	c.SetParamValues("PAY-1")
	if err := h.SubmitProof(c); err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if gotTxn != "TXN12345" {
		t.Errorf("transaction_id = %q, want TXN12345", gotTxn)
	}
	if resp := decodeBody(t, rec); resp["status"] != "pending_verification" {
		t.Errorf("status = %v, want pending_verification", resp["status"])
	}
}

func TestSubmitProofHandlerExpired(t *testing.T) {
	e := newEcho()
	fp := &fakePayments{
		submitProofFn: func(ctx context.Context, actor model.Actor, paymentID, transactionID string, proof *string) (model.Payment, error) {
			return model.Payment{}, repository.ErrExpired
		},
	}
	h := NewPaymentHandler(fp)

	c, rec := newCtx(e, http.MethodPost, "/v1/payments/PAY-1/proof", `{"transaction_id":"TXN12345"}`, 2, model.RoleTenant)
	c.SetParamNames("payment_id")
	c.SetParamValues("PAY-1")
	if err := h.SubmitProof(c); err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "payment expired" {
		t.Errorf("error = %q, want %q", resp["error"], "payment expired")
	}
}

func TestSubmitProofHandlerShortTxn(t *testing.T) {
	e := newEcho()
	h := NewPaymentHandler(&fakePayments{})

	c, rec := newCtx(e, http.MethodPost, "/v1/payments/PAY-1/proof", `{"transaction_id":"ab"}`, 2, model.RoleTenant)
	c.SetParamNames("payment_id")
	c.SetParamValues("PAY-1")
	if err := h.SubmitProof(c); err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPaymentStatusHandler(t *testing.T) {
	e := newEcho()
	fp := &fakePayments{
		statusFn: func(ctx context.Context, actor model.Actor, paymentID string) (model.Payment, error) {
			p := samplePayment()
			p.Status = model.PaymentExpired
			return p, nil
		},
	}
	h := NewPaymentHandler(fp)

	c, rec := newCtx(e, http.MethodGet, "/v1/payments/PAY-1", "", 2, model.RoleTenant)
	c.SetParamNames("payment_id")
	c.SetParamValues("PAY-1")
	if err := h.Status(c); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["status"] != "expired" {
		t.Errorf("status = %v, want expired", resp["status"])
	}
}

func TestPaymentsByBookingHandler(t *testing.T) {
	e := newEcho()
	fp := &fakePayments{
		byBookingFn: func(ctx context.Context, actor model.Actor, bookingID uint64) ([]model.Payment, error) {
			return []model.Payment{samplePayment()}, nil
		},
	}
	h := NewPaymentHandler(fp)

	c, rec := newCtx(e, http.MethodGet, "/v1/bookings/10/payments", "", 2, model.RoleTenant)
	c.SetParamNames("id")
	c.SetParamValues("10")
	if err := h.ByBooking(c); err != nil {
		t.Fatalf("ByBooking: %v", err)
	}
	resp := decodeBody(t, rec)
	list := resp["payments"].([]interface{})
	if len(list) != 1 {
		t.Fatalf("got %d payments, want 1", len(list))
	}
}
