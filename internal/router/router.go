package router // defines how HTTP routes are registered for the API

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/rentease/rentease-server/internal/config"
	"github.com/rentease/rentease-server/internal/handler"
	"github.com/rentease/rentease-server/internal/middleware"
	"github.com/rentease/rentease-server/internal/model"
)

// Validator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate on bound DTOs.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Properties    *handler.PropertyHandler
	Bookings      *handler.BookingHandler
	Payments      *handler.PaymentHandler
	Wishlist      *handler.WishlistHandler
	Reviews       *handler.ReviewHandler
	Notifications *handler.NotificationHandler
	Admin         *handler.AdminHandler
}

// Register mounts every route group on the Echo instance.  rdb may be
// nil; rate limiting and response caching then degrade to no-ops.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.Validator = NewValidator()

	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// ----- auth (rate limited; credential endpoints are the abuse target) -----
	auth := e.Group("/v1/auth", limiter)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// ----- public catalog (cached) -----
	e.GET("/v1/properties", h.Properties.Search, cache)
	e.GET("/v1/properties/:id", h.Properties.Detail)
	e.GET("/v1/properties/:id/reviews", h.Reviews.List)
	e.GET("/v1/properties/:id/availability", h.Bookings.Availability)
	e.GET("/v1/properties/:id/booked-dates", h.Bookings.BookedDates, cache)
	e.GET("/v1/properties/:id/calendar", h.Bookings.Calendar)

	jwt := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(
		string(model.RoleTenant), string(model.RoleOwner), string(model.RoleAdmin))
	ownerOnly := middleware.RequireRole(string(model.RoleOwner), string(model.RoleAdmin))
	adminOnly := middleware.RequireRole(string(model.RoleAdmin))

	// ----- any authenticated user -----
	me := e.Group("/v1", jwt, anyRole)
	me.GET("/me", h.Auth.Me)
	me.PUT("/me", h.Auth.UpdateMe)
	me.POST("/bookings", h.Bookings.Create, limiter)
	me.GET("/bookings", h.Bookings.Mine)
	me.GET("/bookings/:id", h.Bookings.Get)
	me.PATCH("/bookings/:id/status", h.Bookings.UpdateStatus)
	me.GET("/bookings/:id/payments", h.Payments.ByBooking)
	me.POST("/payments", h.Payments.CreateIntent, limiter)
	me.GET("/payments/:payment_id", h.Payments.Status)
	me.POST("/payments/:payment_id/proof", h.Payments.SubmitProof)
	me.GET("/wishlist", h.Wishlist.List)
	me.POST("/wishlist/:id", h.Wishlist.Add)
	me.DELETE("/wishlist/:id", h.Wishlist.Remove)
	me.POST("/properties/:id/reviews", h.Reviews.Create)
	me.DELETE("/reviews/:review_id", h.Reviews.Delete)
	me.GET("/notifications", h.Notifications.List)
	me.PATCH("/notifications/:id/read", h.Notifications.MarkRead)
	me.PATCH("/notifications/read-all", h.Notifications.MarkAllRead)

	// ----- owner listing management -----
	owner := e.Group("/v1/owner", jwt, ownerOnly)
	owner.POST("/properties", h.Properties.Create)
	owner.GET("/properties", h.Properties.Mine)
	owner.PUT("/properties/:id", h.Properties.Update)
	owner.PATCH("/properties/:id/publish", h.Properties.Publish)
	owner.DELETE("/properties/:id", h.Properties.Delete)
	owner.GET("/bookings", h.Bookings.Incoming)
	owner.GET("/stats", h.Admin.OwnerStats)

	// ----- admin moderation and reporting -----
	admin := e.Group("/v1/admin", jwt, adminOnly)
	admin.GET("/payments", h.Admin.PaymentQueue)
	admin.PATCH("/payments/:payment_id/verify", h.Admin.VerifyPayment)
	admin.GET("/users", h.Admin.ListUsers)
	admin.PATCH("/users/:id/active", h.Admin.SetUserActive)
	admin.PATCH("/properties/:id/unpublish", h.Admin.UnpublishProperty)
	admin.DELETE("/properties/:id", h.Admin.DeleteProperty)
	admin.GET("/stats", h.Admin.PlatformStats)
	admin.GET("/stats/revenue", h.Admin.RevenueByMonth)
	admin.GET("/stats/top-properties", h.Admin.TopProperties)
}
