package model

import "time"

// PropertyStatus is the publication state of a listing.  Draft
// properties are visible only to their owner and to admins and
// never accept bookings.
type PropertyStatus int

const (
	PropertyDraft     PropertyStatus = 0 // properties.status = 0
	PropertyPublished PropertyStatus = 1 // properties.status = 1
)

// Property represents a rental listing owned by an owner user.
// A property must be published and available before the booking
// engine will accept requests for it.  Soft deletion is recorded
// via DeletedAt; deleted rows are hidden from all non-admin reads.
//
// Fields:
//  ID             – primary key identifier.
//  OwnerID        – user ID of the listing owner.
//  Title          – short display title.
//  Description    – optional long description.
//  Address        – street address of the property.
//  City           – city used for search filtering.
//  PropertyType   – free-form type (apartment, house, room).
//  Price          – nightly price in the platform currency.
//  Bedrooms       – number of bedrooms.
//  Bathrooms      – number of bathrooms.
//  IsAvailable    – owner-controlled availability switch.
//  InstantBooking – when true, new bookings skip owner approval.
//  Status         – draft (0) or published (1).
//  ViewCount      – number of public detail views.
//  DeletedAt      – soft-delete timestamp (nil when live).
type Property struct {
	ID             uint64         // properties.id
	OwnerID        uint64         // properties.owner_id
	Title          string         // properties.title
	Description    *string        // properties.description (nullable)
	Address        string         // properties.address
	City           string         // properties.city
	PropertyType   string         // properties.property_type
	Price          float64        // properties.price
	Bedrooms       uint32         // properties.bedrooms
	Bathrooms      uint32         // properties.bathrooms
	IsAvailable    bool           // properties.is_available
	InstantBooking bool           // properties.instant_booking
	Status         PropertyStatus // properties.status
	ViewCount      uint64         // properties.view_count
	DeletedAt      *time.Time     // properties.deleted_at (nullable)
	CreatedAt      time.Time      // properties.created_at
	UpdatedAt      time.Time      // properties.updated_at
}

// Bookable reports whether the property may accept new booking
// requests: it must be live (not deleted), published and switched
// available by its owner.
func (p *Property) Bookable() bool {
	return p.DeletedAt == nil && p.Status == PropertyPublished && p.IsAvailable
}
