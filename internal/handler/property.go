package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/repository"
)

// PropertyHandler serves both the public catalog and the owner
// listing-management endpoints.
type PropertyHandler struct {
	Properties *repository.PropertyRepo
	Reviews    *repository.ReviewRepo
}

func NewPropertyHandler(p *repository.PropertyRepo, r *repository.ReviewRepo) *PropertyHandler {
	if p == nil || r == nil {
		panic("nil repository passed to NewPropertyHandler")
	}
	return &PropertyHandler{Properties: p, Reviews: r}
}

type propertyReq struct {
	Title          string  `json:"title" validate:"required,min=3,max=200"`
	Description    *string `json:"description"`
	Address        string  `json:"address" validate:"required"`
	City           string  `json:"city" validate:"required"`
	PropertyType   string  `json:"property_type" validate:"required,oneof=apartment house room flat commercial"`
	Price          float64 `json:"price" validate:"required,gt=0"`
	Bedrooms       uint32  `json:"bedrooms" validate:"gte=0,lte=50"`
	Bathrooms      uint32  `json:"bathrooms" validate:"gte=0,lte=50"`
	IsAvailable    *bool   `json:"is_available"`
	InstantBooking bool    `json:"instant_booking"`
}

type propertyResp struct {
	ID             uint64   `json:"id"`
	OwnerID        uint64   `json:"owner_id"`
	Title          string   `json:"title"`
	Description    *string  `json:"description,omitempty"`
	Address        string   `json:"address"`
	City           string   `json:"city"`
	PropertyType   string   `json:"property_type"`
	Price          float64  `json:"price"`
	Bedrooms       uint32   `json:"bedrooms"`
	Bathrooms      uint32   `json:"bathrooms"`
	IsAvailable    bool     `json:"is_available"`
	InstantBooking bool     `json:"instant_booking"`
	Published      bool     `json:"published"`
	ViewCount      uint64   `json:"view_count"`
	Rating         *float64 `json:"rating,omitempty"`
	ReviewCount    int      `json:"review_count"`
}

func toPropertyResp(p model.Property) propertyResp {
	return propertyResp{
		ID: p.ID, OwnerID: p.OwnerID, Title: p.Title, Description: p.Description,
		Address: p.Address, City: p.City, PropertyType: p.PropertyType,
		Price: p.Price, Bedrooms: p.Bedrooms, Bathrooms: p.Bathrooms,
		IsAvailable: p.IsAvailable, InstantBooking: p.InstantBooking,
		Published: p.Status == model.PropertyPublished, ViewCount: p.ViewCount,
	}
}

// Create registers a new listing for the authenticated owner.  New
// listings start as drafts and must be published explicitly.
func (h *PropertyHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req propertyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	avail := true
	if req.IsAvailable != nil {
		avail = *req.IsAvailable
	}
	p := model.Property{
		OwnerID: uid, Title: req.Title, Description: req.Description,
		Address: req.Address, City: req.City, PropertyType: req.PropertyType,
		Price: req.Price, Bedrooms: req.Bedrooms, Bathrooms: req.Bathrooms,
		IsAvailable: avail, InstantBooking: req.InstantBooking,
		Status: model.PropertyDraft,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Properties.Create(ctx, &p); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, toPropertyResp(p))
}

// Update edits an owner's own listing.
func (h *PropertyHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	var req propertyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	avail := true
	if req.IsAvailable != nil {
		avail = *req.IsAvailable
	}
	p := model.Property{
		ID: id, Title: req.Title, Description: req.Description,
		Address: req.Address, City: req.City, PropertyType: req.PropertyType,
		Price: req.Price, Bedrooms: req.Bedrooms, Bathrooms: req.Bathrooms,
		IsAvailable: avail, InstantBooking: req.InstantBooking,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Properties.Update(ctx, uid, &p); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "property updated"})
}

type publishReq struct {
	Published bool `json:"published"`
}

// Publish toggles a listing between draft and published.
func (h *PropertyHandler) Publish(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	var req publishReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.PropertyDraft
	if req.Published {
		status = model.PropertyPublished
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Properties.SetStatus(ctx, uid, false, id, status); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}

// Delete soft-deletes an owner's listing.
func (h *PropertyHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Properties.SoftDelete(ctx, uid, false, id); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "property deleted"})
}

// Mine lists the authenticated owner's properties, drafts included.
func (h *PropertyHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Properties.ListByOwner(ctx, uid)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]propertyResp, 0, len(list))
	for _, p := range list {
		out = append(out, toPropertyResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"properties": out})
}

// Search is the public catalog: published, available listings with
// optional filters and pagination.
func (h *PropertyHandler) Search(c echo.Context) error {
	f := repository.SearchFilters{
		City:         c.QueryParam("city"),
		PropertyType: c.QueryParam("type"),
		SortBy:       c.QueryParam("sort"),
	}
	if v := c.QueryParam("min_price"); v != "" {
		f.MinPrice, _ = strconv.ParseFloat(v, 64)
	}
	if v := c.QueryParam("max_price"); v != "" {
		f.MaxPrice, _ = strconv.ParseFloat(v, 64)
	}
	if v := c.QueryParam("bedrooms"); v != "" {
		n, _ := strconv.Atoi(v)
		f.Bedrooms = uint32(n)
	}
	if v := c.QueryParam("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, total, err := h.Properties.Search(ctx, f)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]propertyResp, 0, len(list))
	for _, p := range list {
		out = append(out, toPropertyResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"properties": out, "total": total})
}

// Detail returns one public listing with its review summary and bumps
// the view counter.
func (h *PropertyHandler) Detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Properties.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	if p.Status != model.PropertyPublished {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
	}
	_ = h.Properties.IncrementViews(ctx, id) // best effort

	resp := toPropertyResp(p)
	if avg, count, err := h.Reviews.AverageRating(ctx, id); err == nil && count > 0 {
		resp.Rating = &avg
		resp.ReviewCount = count
	}
	return c.JSON(http.StatusOK, resp)
}
