package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/service"
)

// PaymentService is the slice of the payment service the handler
// needs.  Tests substitute a fake.
type PaymentService interface {
	CreateIntent(ctx context.Context, actor model.Actor, bookingID uint64, method string) (model.Payment, error)
	SubmitProof(ctx context.Context, actor model.Actor, paymentID, transactionID string, proof *string) (model.Payment, error)
	Status(ctx context.Context, actor model.Actor, paymentID string) (model.Payment, error)
	ByBooking(ctx context.Context, actor model.Actor, bookingID uint64) ([]model.Payment, error)
}

// PaymentHandler serves the tenant-facing payment endpoints.
type PaymentHandler struct {
	Payments PaymentService
}

func NewPaymentHandler(p PaymentService) *PaymentHandler {
	if p == nil {
		panic("nil payment service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Payments: p}
}

type createIntentReq struct {
	BookingID uint64 `json:"booking_id" validate:"required"`
	Method    string `json:"payment_method" validate:"required,oneof=esewa khalti bank"`
}

type paymentResp struct {
	PaymentID     string  `json:"payment_id"`
	BookingID     uint64  `json:"booking_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status"`
	QRCode        *string `json:"qr_code,omitempty"`
	TransactionID *string `json:"transaction_id,omitempty"`
	AdminNotes    *string `json:"admin_notes,omitempty"`
	ExpiresAt     string  `json:"expires_at"`
	VerifiedAt    *string `json:"verified_at,omitempty"`
}

func toPaymentResp(p model.Payment) paymentResp {
	r := paymentResp{
		PaymentID: p.PaymentID, BookingID: p.BookingID, Amount: p.Amount,
		PaymentMethod: p.PaymentMethod, Status: string(p.Status),
		QRCode: p.QRPayload, TransactionID: p.TransactionID, AdminNotes: p.AdminNotes,
		ExpiresAt: p.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if p.VerifiedAt != nil {
		v := p.VerifiedAt.UTC().Format(time.RFC3339)
		r.VerifiedAt = &v
	}
	return r
}

// CreateIntent issues a QR payment intent for a confirmed booking.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createIntentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	p, err := h.Payments.CreateIntent(ctx, actor, req.BookingID, req.Method)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, toPaymentResp(p))
}

type submitProofReq struct {
	TransactionID string  `json:"transaction_id" validate:"required,min=4"`
	Proof         *string `json:"payment_proof"`
}

// SubmitProof records the transfer reference for an intent.
func (h *PaymentHandler) SubmitProof(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	paymentID := c.Param("payment_id")
	var req submitProofReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	p, err := h.Payments.SubmitProof(ctx, actor, paymentID, req.TransactionID, req.Proof)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toPaymentResp(p))
}

// Status returns the current state of one intent.
func (h *PaymentHandler) Status(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Payments.Status(ctx, actor, c.Param("payment_id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toPaymentResp(p))
}

// ByBooking lists all intents of one booking.
func (h *PaymentHandler) ByBooking(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Payments.ByBooking(ctx, actor, id)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]paymentResp, 0, len(list))
	for _, p := range list {
		out = append(out, toPaymentResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": out})
}

var _ PaymentService = (*service.Payments)(nil)
