package model

import "time"

// User mirrors the `users` table.  Role is one of TENANT, OWNER or
// ADMIN and is embedded in issued access tokens.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email (unique)
	Phone        *string   // users.phone (nullable)
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
