package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rentease/rentease-server/internal/model"
)

// WishlistRepo manages the 'wishlist' table.  (user_id, property_id)
// is unique; adding twice is treated as idempotent.
type WishlistRepo struct{ DB *sql.DB }

func NewWishlistRepo(db *sql.DB) *WishlistRepo { return &WishlistRepo{DB: db} }

// Add saves a property to a user's wishlist.  A duplicate insert is
// swallowed so the endpoint stays idempotent.
func (r *WishlistRepo) Add(ctx context.Context, userID, propertyID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO wishlist (user_id, property_id) VALUES (?,?)`, userID, propertyID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return nil
	}
	return err
}

// Remove deletes a wishlist entry.  Removing an absent entry is not
// an error.
func (r *WishlistRepo) Remove(ctx context.Context, userID, propertyID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM wishlist WHERE user_id=? AND property_id=?`, userID, propertyID)
	return err
}

// Contains reports whether the property is on the user's wishlist.
func (r *WishlistRepo) Contains(ctx context.Context, userID, propertyID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wishlist WHERE user_id=? AND property_id=?`,
		userID, propertyID).Scan(&n)
	return n > 0, err
}

// ListProperties returns the live properties a user has saved,
// newest save first.  Soft-deleted properties fall out of the join.
func (r *WishlistRepo) ListProperties(ctx context.Context, userID uint64) ([]model.Property, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT p.id, p.owner_id, p.title, p.description, p.address, p.city,
		        p.property_type, p.price, p.bedrooms, p.bathrooms, p.is_available,
		        p.instant_booking, p.status, p.view_count, p.deleted_at,
		        p.created_at, p.updated_at
		 FROM wishlist w
		 JOIN properties p ON p.id = w.property_id AND p.deleted_at IS NULL
		 WHERE w.user_id = ?
		 ORDER BY w.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
