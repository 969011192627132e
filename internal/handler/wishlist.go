package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rentease/rentease-server/internal/repository"
)

// WishlistHandler serves the saved-properties endpoints.
type WishlistHandler struct {
	Wishlist   *repository.WishlistRepo
	Properties *repository.PropertyRepo
}

func NewWishlistHandler(w *repository.WishlistRepo, p *repository.PropertyRepo) *WishlistHandler {
	if w == nil || p == nil {
		panic("nil repository passed to NewWishlistHandler")
	}
	return &WishlistHandler{Wishlist: w, Properties: p}
}

// Add saves a property to the user's wishlist.
func (h *WishlistHandler) Add(c echo.Context) error {
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

	// only live properties can be saved
	if _, err := h.Properties.GetByID(ctx, id); err != nil {
		return respondErr(c, err)
	}
	if err := h.Wishlist.Add(ctx, uid, id); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "added to wishlist"})
}

// Remove drops a property from the user's wishlist.
func (h *WishlistHandler) Remove(c echo.Context) error {
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
	if err := h.Wishlist.Remove(ctx, uid, id); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "removed from wishlist"})
}

// List returns the user's saved properties.
func (h *WishlistHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Wishlist.ListProperties(ctx, uid)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]propertyResp, 0, len(list))
	for _, p := range list {
		out = append(out, toPropertyResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"wishlist": out})
}
