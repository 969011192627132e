// Package repository contains data access logic for the rental domain.
// This file implements persistence for properties. A Property is a
// rental listing owned by an owner user; soft-deleted rows keep their
// data but are filtered out of every non-admin query.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB interfaces
	"errors"       // errors for sentinel comparisons
	"strings"      // strings for dynamic filter assembly
	"time"         // time for soft-delete timestamps

	"github.com/rentease/rentease-server/internal/model"
)

// PropertyRepo manages persistence for properties.
type PropertyRepo struct {
	db *sql.DB
}

// NewPropertyRepo constructs a PropertyRepo with the given DB handle.
func NewPropertyRepo(db *sql.DB) *PropertyRepo {
	return &PropertyRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *PropertyRepo) DB() *sql.DB { return r.db }

const propertyCols = `id, owner_id, title, description, address, city, property_type,
       price, bedrooms, bathrooms, is_available, instant_booking, status,
       view_count, deleted_at, created_at, updated_at`

// scanProperty reads one property row from the given scanner.
func scanProperty(row interface{ Scan(...interface{}) error }) (model.Property, error) {
	var p model.Property
	var status int
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Address, &p.City,
		&p.PropertyType, &p.Price, &p.Bedrooms, &p.Bathrooms, &p.IsAvailable,
		&p.InstantBooking, &status, &p.ViewCount, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Property{}, err
	}
	p.Status = model.PropertyStatus(status)
	return p, nil
}

// Create inserts a new property and assigns the generated ID back to
// the struct.  Status defaults to draft unless the caller sets it;
// view_count starts at zero via the DB default.
func (r *PropertyRepo) Create(ctx context.Context, p *model.Property) error {
	const q = `INSERT INTO properties
	           (owner_id, title, description, address, city, property_type,
	            price, bedrooms, bathrooms, is_available, instant_booking, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.OwnerID, p.Title, p.Description, p.Address,
		p.City, p.PropertyType, p.Price, p.Bedrooms, p.Bathrooms,
		p.IsAvailable, p.InstantBooking, int(p.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT ` + propertyCols + ` FROM properties WHERE id = ?`
	got, err := scanProperty(r.db.QueryRowContext(ctx, sel, p.ID))
	if err != nil {
		return err
	}
	*p = got
	return nil
}

// GetByID retrieves a property by ID regardless of its publication
// state, excluding soft-deleted rows.  It returns ErrPropertyNotFound
// when no live row matches.
func (r *PropertyRepo) GetByID(ctx context.Context, id uint64) (model.Property, error) {
	const q = `SELECT ` + propertyCols + ` FROM properties WHERE id = ? AND deleted_at IS NULL`
	p, err := scanProperty(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Property{}, ErrPropertyNotFound
	}
	return p, err
}

// GetByIDAdmin retrieves a property by ID including soft-deleted rows.
// Only admin surfaces should use this.
func (r *PropertyRepo) GetByIDAdmin(ctx context.Context, id uint64) (model.Property, error) {
	const q = `SELECT ` + propertyCols + ` FROM properties WHERE id = ?`
	p, err := scanProperty(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Property{}, ErrPropertyNotFound
	}
	return p, err
}

// ListByOwner returns all live properties of one owner, newest first.
func (r *PropertyRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Property, error) {
	const q = `SELECT ` + propertyCols + ` FROM properties
	           WHERE owner_id = ? AND deleted_at IS NULL
	           ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
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

// SearchFilters captures the optional predicates of a public property
// search.  Zero values mean "no filter".
type SearchFilters struct {
	City         string
	PropertyType string
	MinPrice     float64
	MaxPrice     float64
	Bedrooms     uint32
	SortBy       string // newest | price_asc | price_desc
	Limit        int
	Offset       int
}

// Search returns published, live, available properties matching the
// filters along with the total match count for pagination.  The WHERE
// clause is assembled dynamically the same way for both queries so
// the count always corresponds to the listing.
func (r *PropertyRepo) Search(ctx context.Context, f SearchFilters) ([]model.Property, int, error) {
	where := ` WHERE deleted_at IS NULL AND status = 1 AND is_available = 1`
	args := []interface{}{}
	if f.City != "" {
		where += ` AND city LIKE ?`
		args = append(args, "%"+f.City+"%")
	}
	if f.PropertyType != "" {
		where += ` AND property_type = ?`
		args = append(args, f.PropertyType)
	}
	if f.MinPrice > 0 {
		where += ` AND price >= ?`
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		where += ` AND price <= ?`
		args = append(args, f.MaxPrice)
	}
	if f.Bedrooms > 0 {
		where += ` AND bedrooms >= ?`
		args = append(args, f.Bedrooms)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := ` ORDER BY created_at DESC`
	switch strings.ToLower(f.SortBy) {
	case "price_asc":
		order = ` ORDER BY price ASC`
	case "price_desc":
		order = ` ORDER BY price DESC`
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + propertyCols + ` FROM properties` + where + order + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Property, 0, limit)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Update applies owner-editable fields to a live property.  It
// verifies ownership first and returns ErrForbidden when the caller
// does not own the row.
func (r *PropertyRepo) Update(ctx context.Context, ownerID uint64, p *model.Property) error {
	owner, err := r.ownerOf(ctx, p.ID)
	if err != nil {
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	const q = `UPDATE properties SET
	           title = ?, description = ?, address = ?, city = ?, property_type = ?,
	           price = ?, bedrooms = ?, bathrooms = ?, is_available = ?, instant_booking = ?
	           WHERE id = ? AND deleted_at IS NULL`
	_, err = r.db.ExecContext(ctx, q, p.Title, p.Description, p.Address, p.City,
		p.PropertyType, p.Price, p.Bedrooms, p.Bathrooms, p.IsAvailable,
		p.InstantBooking, p.ID)
	return err
}

// SetStatus toggles a property between draft and published.  Only the
// owner (or an admin, via adminOverride) may change it.
func (r *PropertyRepo) SetStatus(ctx context.Context, actorID uint64, adminOverride bool, id uint64, status model.PropertyStatus) error {
	if !adminOverride {
		owner, err := r.ownerOf(ctx, id)
		if err != nil {
			return err
		}
		if owner != actorID {
			return ErrForbidden
		}
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE properties SET status = ? WHERE id = ? AND deleted_at IS NULL`,
		int(status), id)
	return err
}

// SoftDelete marks a property deleted.  The row stays behind for
// admin views and historical bookings; all other queries skip it.
func (r *PropertyRepo) SoftDelete(ctx context.Context, actorID uint64, adminOverride bool, id uint64) error {
	if !adminOverride {
		owner, err := r.ownerOf(ctx, id)
		if err != nil {
			return err
		}
		if owner != actorID {
			return ErrForbidden
		}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE properties SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

// IncrementViews bumps the public view counter.  Best effort; errors
// are returned but callers typically ignore them.
func (r *PropertyRepo) IncrementViews(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE properties SET view_count = view_count + 1 WHERE id = ? AND deleted_at IS NULL`, id)
	return err
}

// ownerOf returns the owner_id of a live property or
// ErrPropertyNotFound.
func (r *PropertyRepo) ownerOf(ctx context.Context, id uint64) (uint64, error) {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT owner_id FROM properties WHERE id = ? AND deleted_at IS NULL`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrPropertyNotFound
	}
	return owner, err
}
