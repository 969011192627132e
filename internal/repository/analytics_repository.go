package repository

import (
	"context"
	"database/sql"
)

// PlatformStats is the admin dashboard rollup.  Revenue counts only
// verified payments; booking counts include every lifecycle state.
type PlatformStats struct {
	TotalUsers       int     `json:"total_users"`
	TotalOwners      int     `json:"total_owners"`
	TotalTenants     int     `json:"total_tenants"`
	TotalProperties  int     `json:"total_properties"`
	PublishedCount   int     `json:"published_properties"`
	TotalBookings    int     `json:"total_bookings"`
	PendingBookings  int     `json:"pending_bookings"`
	ActiveBookings   int     `json:"active_bookings"`
	TotalRevenue     float64 `json:"total_revenue"`
	PendingPayments  int     `json:"pending_payments"`
	VerifiedPayments int     `json:"verified_payments"`
}

// OwnerStats is the per-owner dashboard rollup.
type OwnerStats struct {
	PropertyCount   int     `json:"property_count"`
	TotalBookings   int     `json:"total_bookings"`
	PendingBookings int     `json:"pending_bookings"`
	ActiveBookings  int     `json:"active_bookings"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalViews      int     `json:"total_views"`
	AverageRating   float64 `json:"average_rating"`
}

// AnalyticsRepo computes read-only aggregates.  Everything here is
// derived from the primary tables; nothing is materialized.
type AnalyticsRepo struct{ DB *sql.DB }

func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{DB: db} }

// Platform gathers the platform-wide rollup for admins.
func (r *AnalyticsRepo) Platform(ctx context.Context) (PlatformStats, error) {
	var s PlatformStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM users),
		  (SELECT COUNT(*) FROM users WHERE role='OWNER'),
		  (SELECT COUNT(*) FROM users WHERE role='TENANT'),
		  (SELECT COUNT(*) FROM properties WHERE deleted_at IS NULL),
		  (SELECT COUNT(*) FROM properties WHERE deleted_at IS NULL AND status=1),
		  (SELECT COUNT(*) FROM bookings),
		  (SELECT COUNT(*) FROM bookings WHERE status='pending'),
		  (SELECT COUNT(*) FROM bookings WHERE status='confirmed'),
		  (SELECT COALESCE(SUM(amount),0) FROM payments WHERE status='verified'),
		  (SELECT COUNT(*) FROM payments WHERE status='pending_verification'),
		  (SELECT COUNT(*) FROM payments WHERE status='verified')`).
		Scan(&s.TotalUsers, &s.TotalOwners, &s.TotalTenants, &s.TotalProperties,
			&s.PublishedCount, &s.TotalBookings, &s.PendingBookings, &s.ActiveBookings,
			&s.TotalRevenue, &s.PendingPayments, &s.VerifiedPayments)
	return s, err
}

// Owner gathers the rollup across one owner's properties.
func (r *AnalyticsRepo) Owner(ctx context.Context, ownerID uint64) (OwnerStats, error) {
	var s OwnerStats
	var avg sql.NullFloat64
	err := r.DB.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM properties WHERE owner_id=? AND deleted_at IS NULL),
		  (SELECT COUNT(*) FROM bookings WHERE owner_id=?),
		  (SELECT COUNT(*) FROM bookings WHERE owner_id=? AND status='pending'),
		  (SELECT COUNT(*) FROM bookings WHERE owner_id=? AND status='confirmed'),
		  (SELECT COALESCE(SUM(p.amount),0) FROM payments p
		     JOIN bookings b ON b.id = p.booking_id
		     WHERE b.owner_id=? AND p.status='verified'),
		  (SELECT COALESCE(SUM(view_count),0) FROM properties WHERE owner_id=? AND deleted_at IS NULL),
		  (SELECT AVG(r.rating) FROM reviews r
		     JOIN properties pr ON pr.id = r.property_id
		     WHERE pr.owner_id=?)`,
		ownerID, ownerID, ownerID, ownerID, ownerID, ownerID, ownerID).
		Scan(&s.PropertyCount, &s.TotalBookings, &s.PendingBookings, &s.ActiveBookings,
			&s.TotalRevenue, &s.TotalViews, &avg)
	s.AverageRating = avg.Float64
	return s, err
}

// MonthlyRevenue is one month's verified payment volume.
type MonthlyRevenue struct {
	Month   string  `json:"month"` // YYYY-MM
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}

// TopProperty is one row of the most-booked listings ranking.
type TopProperty struct {
	PropertyID uint64  `json:"property_id"`
	Title      string  `json:"title"`
	Bookings   int     `json:"bookings"`
	Revenue    float64 `json:"revenue"`
}

// TopProperties ranks listings by booking volume over the trailing
// window.  days <= 0 means all time; limit defaults to 10, capped at 50.
func (r *AnalyticsRepo) TopProperties(ctx context.Context, days, limit int) ([]TopProperty, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	q := `
		SELECT p.id, p.title, COUNT(DISTINCT b.id),
		       COALESCE(SUM(CASE WHEN pay.status='verified' THEN pay.amount END), 0)
		FROM properties p
		JOIN bookings b ON b.property_id = p.id
		LEFT JOIN payments pay ON pay.booking_id = b.id
		WHERE p.deleted_at IS NULL`
	args := []interface{}{}
	if days > 0 {
		q += ` AND b.created_at >= DATE_SUB(CURDATE(), INTERVAL ? DAY)`
		args = append(args, days)
	}
	q += ` GROUP BY p.id, p.title ORDER BY COUNT(DISTINCT b.id) DESC, p.id LIMIT ?`
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TopProperty, 0, limit)
	for rows.Next() {
		var t TopProperty
		if err := rows.Scan(&t.PropertyID, &t.Title, &t.Bookings, &t.Revenue); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RevenueByMonth returns verified payment totals grouped by calendar
// month, most recent first, capped at the given number of months.
func (r *AnalyticsRepo) RevenueByMonth(ctx context.Context, months int) ([]MonthlyRevenue, error) {
	if months <= 0 || months > 36 {
		months = 12
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DATE_FORMAT(verified_at, '%Y-%m') AS month, SUM(amount), COUNT(*)
		FROM payments
		WHERE status='verified' AND verified_at IS NOT NULL
		GROUP BY month ORDER BY month DESC LIMIT ?`, months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MonthlyRevenue, 0, months)
	for rows.Next() {
		var m MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.Revenue, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
