package model

import "time"

// Notification is a per-user message produced by the event consumer
// when a domain event (booking confirmed/cancelled, payment verified)
// touches that user.  Delivery transports are out of scope; rows are
// read back through the notification endpoints.
type Notification struct {
	ID          uint64    // notifications.id
	UserID      uint64    // notifications.user_id
	Type        string    // notifications.type (booking.confirmed, ...)
	Title       string    // notifications.title
	Message     string    // notifications.message
	RelatedID   *uint64   // notifications.related_id (nullable)
	RelatedType *string   // notifications.related_type (nullable)
	IsRead      bool      // notifications.is_read
	CreatedAt   time.Time // notifications.created_at
}
