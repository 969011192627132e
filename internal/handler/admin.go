package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/repository"
	"github.com/rentease/rentease-server/internal/service"
)

// AdminPaymentService is the admin-facing slice of the payment
// service: the verification queue and the verdict call.
type AdminPaymentService interface {
	Verify(ctx context.Context, paymentID string, approve bool, notes *string) (model.Payment, error)
	Queue(ctx context.Context, status model.PaymentStatus) ([]model.Payment, error)
}

// AdminHandler bundles the moderation and reporting endpoints.  All
// routes behind it require the ADMIN role.
type AdminHandler struct {
	Payments   AdminPaymentService
	Users      *repository.UserRepo
	Properties *repository.PropertyRepo
	Analytics  *repository.AnalyticsRepo
}

func NewAdminHandler(p AdminPaymentService, u *repository.UserRepo, pr *repository.PropertyRepo, a *repository.AnalyticsRepo) *AdminHandler {
	if p == nil || u == nil || pr == nil || a == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Payments: p, Users: u, Properties: pr, Analytics: a}
}

// PaymentQueue lists payment intents by status; defaults to those
// awaiting verification.
func (h *AdminHandler) PaymentQueue(c echo.Context) error {
	status := model.PaymentStatus(c.QueryParam("status"))
	if status == "" {
		status = model.PaymentPendingCheck
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Payments.Queue(ctx, status)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]paymentResp, 0, len(list))
	for _, p := range list {
		out = append(out, toPaymentResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": out})
}

type verifyReq struct {
	Approve bool    `json:"approve"`
	Notes   *string `json:"notes"`
}

// VerifyPayment records the admin verdict on one intent.
func (h *AdminHandler) VerifyPayment(c echo.Context) error {
	paymentID := c.Param("payment_id")
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	p, err := h.Payments.Verify(ctx, paymentID, req.Approve, req.Notes)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toPaymentResp(p))
}

// ListUsers returns all users, optionally filtered by role.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	role := model.Role(c.QueryParam("role"))
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Users.List(ctx, role)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]echo.Map, 0, len(list))
	for _, u := range list {
		out = append(out, echo.Map{
			"id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role,
			"is_active": u.IsActive, "created_at": u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

type activateReq struct {
	Active bool `json:"active"`
}

// SetUserActive activates or deactivates an account.  Deactivated
// users cannot log in or refresh their sessions.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req activateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Users.SetActive(ctx, id, req.Active); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user updated"})
}

// UnpublishProperty forcibly takes a listing off the catalog.
func (h *AdminHandler) UnpublishProperty(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Properties.SetStatus(ctx, 0, true, id, model.PropertyDraft); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "property unpublished"})
}

// DeleteProperty soft-deletes any listing.
func (h *AdminHandler) DeleteProperty(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Properties.SoftDelete(ctx, 0, true, id); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "property deleted"})
}

// PlatformStats returns the platform-wide dashboard rollup.
func (h *AdminHandler) PlatformStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	stats, err := h.Analytics.Platform(ctx)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// RevenueByMonth returns verified payment volume per month.
func (h *AdminHandler) RevenueByMonth(c echo.Context) error {
	months := 0
	if v := c.QueryParam("months"); v != "" {
		months, _ = strconv.Atoi(v)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	rows, err := h.Analytics.RevenueByMonth(ctx, months)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"revenue": rows})
}

// TopProperties ranks listings by booking volume.  days narrows the
// window (7, 30, 90); zero or absent means all time.
func (h *AdminHandler) TopProperties(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	rows, err := h.Analytics.TopProperties(ctx, days, limit)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"properties": rows})
}

// OwnerStats returns the authenticated owner's dashboard rollup.
// Registered under the owner group, not the admin group.
func (h *AdminHandler) OwnerStats(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	stats, err := h.Analytics.Owner(ctx, uid)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

var _ AdminPaymentService = (*service.Payments)(nil)
