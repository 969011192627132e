package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/repository"
	"github.com/rentease/rentease-server/internal/service"
)

// BookingEngine is the slice of the booking service the handler
// needs.  Tests substitute a fake.
type BookingEngine interface {
	CheckAvailability(ctx context.Context, propertyID uint64, start, end time.Time) (bool, error)
	Create(ctx context.Context, actor model.Actor, propertyID uint64, start, end time.Time, message *string) (model.Booking, error)
	UpdateStatus(ctx context.Context, actor model.Actor, bookingID uint64, to model.BookingStatus, ownerResponse *string) (model.Booking, error)
	Get(ctx context.Context, actor model.Actor, bookingID uint64) (model.Booking, error)
	BookedDates(ctx context.Context, propertyID uint64) ([]model.DateRange, error)
	Calendar(ctx context.Context, propertyID uint64, from, to time.Time) ([]model.CalendarEntry, error)
}

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	Engine   BookingEngine
	Bookings *repository.BookingRepo
}

func NewBookingHandler(engine BookingEngine, bookings *repository.BookingRepo) *BookingHandler {
	if engine == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: engine, Bookings: bookings}
}

type createBookingReq struct {
	PropertyID uint64  `json:"property_id" validate:"required"`
	StartDate  string  `json:"start_date" validate:"required"`
	EndDate    string  `json:"end_date" validate:"required"`
	Message    *string `json:"message"`
}

type bookingResp struct {
	ID            uint64  `json:"id"`
	PropertyID    uint64  `json:"property_id"`
	TenantID      uint64  `json:"tenant_id"`
	OwnerID       uint64  `json:"owner_id"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Nights        int     `json:"nights"`
	TotalPrice    float64 `json:"total_price"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	Message       *string `json:"message,omitempty"`
	OwnerResponse *string `json:"owner_response,omitempty"`
}

func toBookingResp(b model.Booking) bookingResp {
	return bookingResp{
		ID: b.ID, PropertyID: b.PropertyID, TenantID: b.TenantID, OwnerID: b.OwnerID,
		StartDate: b.StartDate.Format("2006-01-02"), EndDate: b.EndDate.Format("2006-01-02"),
		Nights: b.Nights(), TotalPrice: b.TotalPrice,
		Status: string(b.Status), PaymentStatus: string(b.PaymentStatus),
		Message: b.TenantMessage, OwnerResponse: b.OwnerResponse,
	}
}

// Availability answers whether a property is free for the given
// range: GET /properties/:id/availability?start_date=&end_date=
func (h *BookingHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	start, err := parseDate(c.QueryParam("start_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
	}
	end, err := parseDate(c.QueryParam("end_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	ok, err := h.Engine.CheckAvailability(ctx, id, start, end)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": ok})
}

// Create places a booking request for the authenticated user.
func (h *BookingHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	b, err := h.Engine.Create(ctx, actor, req.PropertyID, start, end, req.Message)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

type updateStatusReq struct {
	Status        string  `json:"status" validate:"required"`
	OwnerResponse *string `json:"owner_response"`
}

// UpdateStatus moves a booking along its lifecycle.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status, ok := model.ParseBookingStatus(req.Status)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	b, err := h.Engine.UpdateStatus(ctx, actor, id, status, req.OwnerResponse)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// Get returns one booking, visibility-checked.
func (h *BookingHandler) Get(c echo.Context) error {
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
	b, err := h.Engine.Get(ctx, actor, id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// Mine lists the authenticated tenant's bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status, _ := model.ParseBookingStatus(c.QueryParam("status"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Bookings.ListByTenant(ctx, uid, status)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]bookingResp, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Incoming lists bookings across the authenticated owner's properties.
func (h *BookingHandler) Incoming(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status, _ := model.ParseBookingStatus(c.QueryParam("status"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Bookings.ListByOwner(ctx, uid, status)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]bookingResp, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// BookedDates exposes the blocked ranges of a property (public).
func (h *BookingHandler) BookedDates(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	ranges, err := h.Engine.BookedDates(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	type rangeResp struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	out := make([]rangeResp, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, rangeResp{
			StartDate: r.Start.Format("2006-01-02"),
			EndDate:   r.End.Format("2006-01-02"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"booked_dates": out})
}

// Calendar exposes the per-day availability calendar of a property.
func (h *BookingHandler) Calendar(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	var from, to time.Time
	if v := c.QueryParam("from"); v != "" {
		if from, err = parseDate(v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if to, err = parseDate(v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	entries, err := h.Engine.Calendar(ctx, id, from, to)
	if err != nil {
		return respondErr(c, err)
	}
	type dayResp struct {
		Date        string `json:"date"`
		IsAvailable bool   `json:"is_available"`
	}
	out := make([]dayResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, dayResp{Date: e.Date.Format("2006-01-02"), IsAvailable: e.IsAvailable})
	}
	return c.JSON(http.StatusOK, echo.Map{"calendar": out})
}

// compile-time check that the real engine satisfies the interface
var _ BookingEngine = (*service.Engine)(nil)
