package model

import "time"

// CalendarEntry is one day of the derived per-property availability
// calendar.  Entries are a materialized cache of confirmed bookings'
// date ranges: every day covered by a confirmed booking has exactly
// one row pointing at that booking.  The bookings table remains the
// source of truth; the calendar is rebuilt from it on every
// confirmation and cancellation and must never contradict it.
//
// Fields:
//  ID          – primary key identifier.
//  PropertyID  – property the day belongs to.
//  Date        – the calendar day (UTC midnight); unique per property.
//  IsAvailable – false while an owning booking occupies the day.
//  BookingID   – booking that occupies the day (nil when free).
type CalendarEntry struct {
	ID          uint64     // availability_calendar.id
	PropertyID  uint64     // availability_calendar.property_id
	Date        time.Time  // availability_calendar.date
	IsAvailable bool       // availability_calendar.is_available
	BookingID   *uint64    // availability_calendar.booking_id (nullable)
	CreatedAt   time.Time  // availability_calendar.created_at
	UpdatedAt   time.Time  // availability_calendar.updated_at
}

// DaysIn expands a half-open [start, end) range into its component
// days.  The checkout day is excluded.  An inverted or empty range
// yields nil.
func DaysIn(start, end time.Time) []time.Time {
	if !start.Before(end) {
		return nil
	}
	var days []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
