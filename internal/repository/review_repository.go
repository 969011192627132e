package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rentease/rentease-server/internal/model"
)

// ReviewRepo manages the 'reviews' table.  One review per
// (property_id, user_id) pair, enforced by a unique key.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

var ErrAlreadyReviewed = errors.New("property already reviewed by this user")

// Create inserts a review and assigns the generated ID.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO reviews (property_id, user_id, booking_id, rating, comment)
		 VALUES (?,?,?,?,?)`,
		rv.PropertyID, rv.UserID, rv.BookingID, rv.Rating, rv.Comment)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrAlreadyReviewed
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// ListByProperty returns a property's reviews, newest first.
func (r *ReviewRepo) ListByProperty(ctx context.Context, propertyID uint64) ([]model.Review, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, property_id, user_id, booking_id, rating, comment, created_at
		 FROM reviews WHERE property_id=? ORDER BY created_at DESC`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Review, 0)
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.PropertyID, &rv.UserID, &rv.BookingID,
			&rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// AverageRating returns the mean rating and review count for a
// property.  A property with no reviews yields (0, 0).
func (r *ReviewRepo) AverageRating(ctx context.Context, propertyID uint64) (float64, int, error) {
	var avg sql.NullFloat64
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(*) FROM reviews WHERE property_id=?`,
		propertyID).Scan(&avg, &count)
	return avg.Float64, count, err
}

// Delete removes a review.  Non-admins may only delete their own.
func (r *ReviewRepo) Delete(ctx context.Context, actorID uint64, adminOverride bool, id uint64) error {
	var ownerID uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id FROM reviews WHERE id=?`, id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return err
	}
	if !adminOverride && ownerID != actorID {
		return ErrForbidden
	}
	_, err = r.DB.ExecContext(ctx, `DELETE FROM reviews WHERE id=?`, id)
	return err
}
