package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rentease/rentease-server/internal/model"
)

// BookingRepo manages rows in the 'bookings' table.  Methods with a
// Tx suffix run inside a caller-provided transaction; the rest use
// the pooled handle directly.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingCols = `id, property_id, tenant_id, owner_id, start_date, end_date,
       total_price, tenant_message, owner_response, status, payment_status,
       created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (model.Booking, error) {
	var b model.Booking
	var status, payState string
	err := row.Scan(&b.ID, &b.PropertyID, &b.TenantID, &b.OwnerID, &b.StartDate,
		&b.EndDate, &b.TotalPrice, &b.TenantMessage, &b.OwnerResponse,
		&status, &payState, &b.CreatedAt, &b.UpdatedAt)
	b.Status = model.BookingStatus(status)
	b.PaymentStatus = model.PaymentState(payState)
	return b, err
}

// GetByID fetches a booking.  Returns ErrBookingNotFound when absent.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// GetByIDTx fetches a booking inside tx with a row lock, so that the
// status re-check before a transition sees committed truth and
// concurrent transitions on the same booking serialize.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Booking, error) {
	b, err := scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id=? LIMIT 1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// CreateTx inserts a booking inside tx and assigns the generated ID.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings
		 (property_id, tenant_id, owner_id, start_date, end_date, total_price,
		  tenant_message, status, payment_status)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		b.PropertyID, b.TenantID, b.OwnerID, b.StartDate, b.EndDate, b.TotalPrice,
		b.TenantMessage, string(b.Status), string(b.PaymentStatus))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// OverlapCount counts blocking bookings (pending or confirmed) whose
// half-open range intersects [start, end) on the property.  excludeID
// skips one booking, used when re-confirming a pending request so it
// does not conflict with itself.  Two ranges are disjoint exactly when
// one ends on or before the other starts, hence the negated predicate.
func (r *BookingRepo) OverlapCount(ctx context.Context, propertyID uint64, start, end time.Time, excludeID uint64) (int, error) {
	return overlapCount(ctx, r.DB, propertyID, start, end, excludeID)
}

// OverlapCountTx is OverlapCount inside a caller-provided transaction.
// Under REPEATABLE READ the authoritative check must run here, after
// the booking row lock is held.
func (r *BookingRepo) OverlapCountTx(ctx context.Context, tx *sql.Tx, propertyID uint64, start, end time.Time, excludeID uint64) (int, error) {
	return overlapCount(ctx, tx, propertyID, start, end, excludeID)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func overlapCount(ctx context.Context, q rowQuerier, propertyID uint64, start, end time.Time, excludeID uint64) (int, error) {
	query := `SELECT COUNT(*) FROM bookings
	          WHERE property_id = ?
	            AND status IN ('pending','confirmed')
	            AND NOT (end_date <= ? OR start_date >= ?)`
	args := []interface{}{propertyID, start, end}
	if excludeID != 0 {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}
	var n int
	err := q.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// BookedRanges returns the date ranges of blocking bookings for a
// property so clients can grey out a calendar without seeing who
// booked what.
func (r *BookingRepo) BookedRanges(ctx context.Context, propertyID uint64) ([]model.DateRange, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT start_date, end_date FROM bookings
		 WHERE property_id = ? AND status IN ('pending','confirmed')
		 ORDER BY start_date`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.DateRange, 0)
	for rows.Next() {
		var dr model.DateRange
		if err := rows.Scan(&dr.Start, &dr.End); err != nil {
			return nil, err
		}
		out = append(out, dr)
	}
	return out, rows.Err()
}

// SetStatusTx updates status and owner_response inside tx.
func (r *BookingRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.BookingStatus, ownerResponse *string) error {
	if ownerResponse != nil {
		_, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status=?, owner_response=? WHERE id=?`,
			string(status), ownerResponse, id)
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status=? WHERE id=?`, string(status), id)
	return err
}

// SetPaymentStateTx marks the booking's payment_status inside tx.
// Used when an admin verifies a payment intent so booking and intent
// flip in the same commit.
func (r *BookingRepo) SetPaymentStateTx(ctx context.Context, tx *sql.Tx, id uint64, state model.PaymentState) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET payment_status=? WHERE id=?`, string(state), id)
	return err
}

// ListByTenant returns a tenant's bookings, newest first, with an
// optional status filter.
func (r *BookingRepo) ListByTenant(ctx context.Context, tenantID uint64, status model.BookingStatus) ([]model.Booking, error) {
	return r.list(ctx, "tenant_id", tenantID, status)
}

// ListByOwner returns bookings across all of an owner's properties.
func (r *BookingRepo) ListByOwner(ctx context.Context, ownerID uint64, status model.BookingStatus) ([]model.Booking, error) {
	return r.list(ctx, "owner_id", ownerID, status)
}

// ListByProperty returns bookings on one property.
func (r *BookingRepo) ListByProperty(ctx context.Context, propertyID uint64, status model.BookingStatus) ([]model.Booking, error) {
	return r.list(ctx, "property_id", propertyID, status)
}

func (r *BookingRepo) list(ctx context.Context, col string, id uint64, status model.BookingStatus) ([]model.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE ` + col + ` = ?`
	args := []interface{}{id}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// HasStayedAt reports whether the user holds a completed booking on
// the property, or a confirmed one whose stay has already ended.  It
// gates review creation.
func (r *BookingRepo) HasStayedAt(ctx context.Context, userID, propertyID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE tenant_id = ? AND property_id = ?
		   AND (status = 'completed' OR (status = 'confirmed' AND end_date <= CURDATE()))`,
		userID, propertyID).Scan(&n)
	return n > 0, err
}
