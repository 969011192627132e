package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/repository"
	"github.com/rentease/rentease-server/internal/service"
)

// testValidator mirrors the adapter the router installs.
type testValidator struct{ v *validator.Validate }

func (t *testValidator) Validate(i interface{}) error { return t.v.Struct(i) }

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	return e
}

// newCtx builds an authenticated echo context for the given request.
func newCtx(e *echo.Echo, method, target string, body string, uid uint64, role model.Role) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != 0 {
		c.Set("user_id", uid)
		c.Set("role", string(role))
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("bad response body %q: %v", rec.Body.String(), err)
	}
	return m
}

// fakeEngine implements BookingEngine with overridable funcs.
type fakeEngine struct {
	createFn       func(ctx context.Context, actor model.Actor, propertyID uint64, start, end time.Time, message *string) (model.Booking, error)
	updateStatusFn func(ctx context.Context, actor model.Actor, bookingID uint64, to model.BookingStatus, ownerResponse *string) (model.Booking, error)
	getFn          func(ctx context.Context, actor model.Actor, bookingID uint64) (model.Booking, error)
	availabilityFn func(ctx context.Context, propertyID uint64, start, end time.Time) (bool, error)
	bookedDatesFn  func(ctx context.Context, propertyID uint64) ([]model.DateRange, error)
	calendarFn     func(ctx context.Context, propertyID uint64, from, to time.Time) ([]model.CalendarEntry, error)
}

func (f *fakeEngine) Create(ctx context.Context, actor model.Actor, propertyID uint64, start, end time.Time, message *string) (model.Booking, error) {
	return f.createFn(ctx, actor, propertyID, start, end, message)
}

func (f *fakeEngine) UpdateStatus(ctx context.Context, actor model.Actor, bookingID uint64, to model.BookingStatus, ownerResponse *string) (model.Booking, error) {
	return f.updateStatusFn(ctx, actor, bookingID, to, ownerResponse)
}

func (f *fakeEngine) Get(ctx context.Context, actor model.Actor, bookingID uint64) (model.Booking, error) {
	return f.getFn(ctx, actor, bookingID)
}

func (f *fakeEngine) CheckAvailability(ctx context.Context, propertyID uint64, start, end time.Time) (bool, error) {
	return f.availabilityFn(ctx, propertyID, start, end)
}

func (f *fakeEngine) BookedDates(ctx context.Context, propertyID uint64) ([]model.DateRange, error) {
	return f.bookedDatesFn(ctx, propertyID)
}

func (f *fakeEngine) Calendar(ctx context.Context, propertyID uint64, from, to time.Time) ([]model.CalendarEntry, error) {
	return f.calendarFn(ctx, propertyID, from, to)
}

func sampleBooking() model.Booking {
	return model.Booking{
		ID: 10, PropertyID: 3, TenantID: 2, OwnerID: 5,
		StartDate:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
		TotalPrice: 9000,
		Status:     model.BookingPending, PaymentStatus: model.PaymentUnpaid,
	}
}

func TestCreateBooking(t *testing.T) {
	e := newEcho()
	var gotActor model.Actor
	var gotStart, gotEnd time.Time
	fe := &fakeEngine{
		createFn: func(ctx context.Context, actor model.Actor, propertyID uint64, start, end time.Time, message *string) (model.Booking, error) {
			gotActor, gotStart, gotEnd = actor, start, end
			return sampleBooking(), nil
		},
	}
	h := &BookingHandler{Engine: fe}

	body := `{"property_id":3,"start_date":"2025-03-10","end_date":"2025-03-13"}`
	c, rec := newCtx(e, http.MethodPost, "/v1/bookings", body, 2, model.RoleTenant)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	if gotActor.ID != 2 || gotActor.Role != model.RoleTenant {
		t.Errorf("actor = %+v, want id 2 tenant", gotActor)
	}
	if gotStart.Format("2006-01-02") != "2025-03-10" || gotEnd.Format("2006-01-02") != "2025-03-13" {
		t.Errorf("range = %v..%v", gotStart, gotEnd)
	}
	resp := decodeBody(t, rec)
	if resp["nights"].(float64) != 3 {
		t.Errorf("nights = %v, want 3", resp["nights"])
	}
	if resp["total_price"].(float64) != 9000 {
		t.Errorf("total_price = %v, want 9000", resp["total_price"])
	}
}

func TestCreateBookingConflict(t *testing.T) {
	e := newEcho()
	fe := &fakeEngine{
		createFn: func(ctx context.Context, actor model.Actor, propertyID uint64, start, end time.Time, message *string) (model.Booking, error) {
			return model.Booking{}, repository.ErrConflict
		},
	}
	h := &BookingHandler{Engine: fe}

	body := `{"property_id":3,"start_date":"2025-03-10","end_date":"2025-03-13"}`
	c, rec := newCtx(e, http.MethodPost, "/v1/bookings", body, 2, model.RoleTenant)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "dates not available" {
		t.Errorf("error = %q, want %q", resp["error"], "dates not available")
	}
}

func TestCreateBookingBadInput(t *testing.T) {
	e := newEcho()
	h := &BookingHandler{Engine: &fakeEngine{}}

	cases := []struct {
		name string
		body string
	}{
		{"missing property_id", `{"start_date":"2025-03-10","end_date":"2025-03-13"}`},
		{"bad date format", `{"property_id":3,"start_date":"10/03/2025","end_date":"2025-03-13"}`},
		{"not json", `not json`},
	}
	for _, tc := range cases {
		c, rec := newCtx(e, http.MethodPost, "/v1/bookings", tc.body, 2, model.RoleTenant)
		if err := h.Create(c); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestCreateBookingUnauthenticated(t *testing.T) {
	e := newEcho()
	h := &BookingHandler{Engine: &fakeEngine{}}

	body := `{"property_id":3,"start_date":"2025-03-10","end_date":"2025-03-13"}`
	c, rec := newCtx(e, http.MethodPost, "/v1/bookings", body, 0, "")
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUpdateBookingStatus(t *testing.T) {
	e := newEcho()
	var gotStatus model.BookingStatus
	fe := &fakeEngine{
		updateStatusFn: func(ctx context.Context, actor model.Actor, bookingID uint64, to model.BookingStatus, ownerResponse *string) (model.Booking, error) {
			gotStatus = to
			b := sampleBooking()
			b.Status = to
			return b, nil
		},
	}
	h := &BookingHandler{Engine: fe}

	// legacy "accepted" normalizes to confirmed
	c, rec := newCtx(e, http.MethodPatch, "/v1/bookings/10/status", `{"status":"accepted"}`, 5, model.RoleOwner)
	c.SetParamNames("id")
	c.SetParamValues("10")
	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if gotStatus != model.BookingConfirmed {
		t.Errorf("engine received %s, want confirmed", gotStatus)
	}
	if resp := decodeBody(t, rec); resp["status"] != "confirmed" {
		t.Errorf("response status = %q, want confirmed", resp["status"])
	}
}

func TestUpdateBookingStatusErrors(t *testing.T) {
	e := newEcho()

	cases := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"unknown status", `{"status":"paid"}`, nil, http.StatusBadRequest},
		{"invalid transition", `{"status":"completed"}`, service.ErrInvalidTransition, http.StatusBadRequest},
		{"stay not over", `{"status":"completed"}`, service.ErrStayNotOver, http.StatusBadRequest},
		{"forbidden", `{"status":"cancelled"}`, repository.ErrForbidden, http.StatusForbidden},
		{"conflict on confirm", `{"status":"confirmed"}`, repository.ErrConflict, http.StatusConflict},
		{"missing booking", `{"status":"cancelled"}`, repository.ErrBookingNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		fe := &fakeEngine{
			updateStatusFn: func(ctx context.Context, actor model.Actor, bookingID uint64, to model.BookingStatus, ownerResponse *string) (model.Booking, error) {
				return model.Booking{}, tc.err
			},
		}
		h := &BookingHandler{Engine: fe}
		c, rec := newCtx(e, http.MethodPatch, "/v1/bookings/10/status", tc.body, 5, model.RoleOwner)
		c.SetParamNames("id")
		c.SetParamValues("10")
		if err := h.UpdateStatus(c); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if rec.Code != tc.wantCode {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.wantCode)
		}
	}
}

func TestAvailability(t *testing.T) {
	e := newEcho()
	fe := &fakeEngine{
		availabilityFn: func(ctx context.Context, propertyID uint64, start, end time.Time) (bool, error) {
			return false, nil
		},
	}
	h := &BookingHandler{Engine: fe}

	c, rec := newCtx(e, http.MethodGet, "/v1/properties/3/availability?start_date=2025-03-10&end_date=2025-03-13", "", 0, "")
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.Availability(c); err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["available"] != false {
		t.Errorf("available = %v, want false", resp["available"])
	}
}

func TestBookedDates(t *testing.T) {
	e := newEcho()
	fe := &fakeEngine{
		bookedDatesFn: func(ctx context.Context, propertyID uint64) ([]model.DateRange, error) {
			return []model.DateRange{{
				Start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
			}}, nil
		},
	}
	h := &BookingHandler{Engine: fe}

	c, rec := newCtx(e, http.MethodGet, "/v1/properties/3/booked-dates", "", 0, "")
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.BookedDates(c); err != nil {
		t.Fatalf("BookedDates: %v", err)
	}
	resp := decodeBody(t, rec)
	ranges := resp["booked_dates"].([]interface{})
	if len(ranges) != 1 {
		t.Fatalf("got %d ranges, want 1", len(ranges))
	}
	r := ranges[0].(map[string]interface{})
	if r["start_date"] != "2025-03-10" || r["end_date"] != "2025-03-13" {
		t.Errorf("range = %v", r)
	}
}
