// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. For example, ErrForbidden indicates that the current
// user is not authorized to operate on a resource owned by someone
// else, while ErrConflict signals that an operation cannot proceed
// because of conflicting state (e.g. an overlapping booking range).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed
// because of conflicting state, such as confirming a booking whose
// date range is already occupied. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrPropertyNotFound indicates that a property was not located in
// the DB, or that it is soft-deleted and hidden from the caller.
var ErrPropertyNotFound = errors.New("property not found")

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")

// ErrPaymentNotFound indicates that a payment intent was not located
// in the DB.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrDuplicateIntent is returned when a booking already has an
// active, unexpired payment intent. Handlers should translate this
// into an HTTP 409 response.
var ErrDuplicateIntent = errors.New("active payment intent already exists")

// ErrExpired is returned when a payment intent's TTL has elapsed
// before proof was submitted.
var ErrExpired = errors.New("payment expired")
