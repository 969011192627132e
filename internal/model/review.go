package model

import "time"

// Review is feedback a tenant leaves on a property after a stay.
// A tenant may review a property only once and only after holding a
// confirmed booking whose stay has ended (or a completed booking).
type Review struct {
	ID         uint64    // reviews.id
	PropertyID uint64    // reviews.property_id
	UserID     uint64    // reviews.user_id
	BookingID  *uint64   // reviews.booking_id (nullable)
	Rating     uint8     // reviews.rating, 1..5
	Comment    *string   // reviews.comment (nullable)
	CreatedAt  time.Time // reviews.created_at
}

// WishlistItem links a user to a saved property.  The pair
// (user_id, property_id) is unique.
type WishlistItem struct {
	ID         uint64    // wishlist.id
	UserID     uint64    // wishlist.user_id
	PropertyID uint64    // wishlist.property_id
	CreatedAt  time.Time // wishlist.created_at
}
