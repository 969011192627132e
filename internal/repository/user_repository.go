package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rentease/rentease-server/internal/model"
	"github.com/rentease/rentease-server/internal/utils"
)

// UserRepo manages rows in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userCols = "id, name, email, phone, password_hash, role, is_active, created_at, updated_at"

func scanUser(row interface{ Scan(...interface{}) error }) (model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash,
		&role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	u.Role = model.Role(role)
	return u, err
}

// Create hashes the password and inserts a user, returning its ID.
// Emails are normalized to lower case before insert and lookup.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, phone *string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, phone, password_hash, role) VALUES (?,?,?,?,?)",
		name, email, phone, hash, string(role))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns all users, optionally filtered by role.  Admin-only.
func (r *UserRepo) List(ctx context.Context, role model.Role) ([]model.User, error) {
	q := "SELECT " + userCols + " FROM users"
	args := []interface{}{}
	if role != "" {
		q += " WHERE role=?"
		args = append(args, string(role))
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetActive flips the is_active flag.  Deactivated users fail the
// JWT middleware's liveness check on their next request.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateProfile changes a user's own name and phone.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name string, phone *string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, phone=? WHERE id=?", name, phone, id)
	return err
}
