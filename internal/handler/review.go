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

// ReviewHandler serves property reviews.  Creation is gated on having
// actually stayed: a completed booking, or a confirmed one whose end
// date has passed.
type ReviewHandler struct {
	Reviews    *repository.ReviewRepo
	Bookings   *repository.BookingRepo
	Properties *repository.PropertyRepo
}

func NewReviewHandler(r *repository.ReviewRepo, b *repository.BookingRepo, p *repository.PropertyRepo) *ReviewHandler {
	if r == nil || b == nil || p == nil {
		panic("nil repository passed to NewReviewHandler")
	}
	return &ReviewHandler{Reviews: r, Bookings: b, Properties: p}
}

type createReviewReq struct {
	Rating    uint8   `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   *string `json:"comment"`
	BookingID *uint64 `json:"booking_id"`
}

// Create posts a review on a property.
func (h *ReviewHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Properties.GetByID(ctx, id); err != nil {
		return respondErr(c, err)
	}
	stayed, err := h.Bookings.HasStayedAt(ctx, uid, id)
	if err != nil {
		return respondErr(c, err)
	}
	if !stayed {
		return respondErr(c, service.ErrNotReviewable)
	}

	rv := model.Review{
		PropertyID: id, UserID: uid, BookingID: req.BookingID,
		Rating: req.Rating, Comment: req.Comment,
	}
	if err := h.Reviews.Create(ctx, &rv); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": rv.ID, "message": "review created"})
}

// List returns a property's reviews with the aggregate rating.
func (h *ReviewHandler) List(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reviews.ListByProperty(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	avg, count, err := h.Reviews.AverageRating(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}

	type reviewResp struct {
		ID        uint64  `json:"id"`
		UserID    uint64  `json:"user_id"`
		Rating    uint8   `json:"rating"`
		Comment   *string `json:"comment,omitempty"`
		CreatedAt string  `json:"created_at"`
	}
	out := make([]reviewResp, 0, len(list))
	for _, rv := range list {
		out = append(out, reviewResp{
			ID: rv.ID, UserID: rv.UserID, Rating: rv.Rating, Comment: rv.Comment,
			CreatedAt: rv.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": out, "average_rating": avg, "count": count})
}

// Delete removes the caller's own review (admins may remove any).
func (h *ReviewHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "review_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Reviews.Delete(ctx, actor.ID, actor.Role == model.RoleAdmin, id); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "review deleted"})
}
