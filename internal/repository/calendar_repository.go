package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rentease/rentease-server/internal/model"
)

// CalendarRepo manages the 'availability_calendar' table, the
// per-day materialization of confirmed bookings.  Rows are only ever
// written inside the same transaction that changes the owning
// booking, so the calendar cannot drift from the bookings table.
type CalendarRepo struct{ DB *sql.DB }

func NewCalendarRepo(db *sql.DB) *CalendarRepo { return &CalendarRepo{DB: db} }

// BlockRangeTx marks every day of [start, end) unavailable for the
// property, attributing each day to the booking.  (property_id, date)
// is unique; re-confirming after a freed cancellation reuses the rows
// via the upsert.
func (r *CalendarRepo) BlockRangeTx(ctx context.Context, tx *sql.Tx, propertyID, bookingID uint64, start, end time.Time) error {
	for _, day := range model.DaysIn(start, end) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO availability_calendar (property_id, date, is_available, booking_id)
			 VALUES (?,?,0,?)
			 ON DUPLICATE KEY UPDATE is_available=0, booking_id=VALUES(booking_id)`,
			propertyID, day, bookingID)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReleaseByBookingTx frees every day attributed to the booking.  Used
// when a confirmed booking is cancelled.
func (r *CalendarRepo) ReleaseByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE availability_calendar SET is_available=1, booking_id=NULL WHERE booking_id=?`,
		bookingID)
	return err
}

// Range returns the calendar rows for a property between two dates
// inclusive, oldest first.  Days with no row are implicitly free.
func (r *CalendarRepo) Range(ctx context.Context, propertyID uint64, from, to time.Time) ([]model.CalendarEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, property_id, date, is_available, booking_id, created_at, updated_at
		 FROM availability_calendar
		 WHERE property_id = ? AND date >= ? AND date <= ?
		 ORDER BY date`, propertyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.CalendarEntry, 0)
	for rows.Next() {
		var e model.CalendarEntry
		if err := rows.Scan(&e.ID, &e.PropertyID, &e.Date, &e.IsAvailable,
			&e.BookingID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
