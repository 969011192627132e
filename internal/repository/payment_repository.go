package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rentease/rentease-server/internal/model"
)

// PaymentRepo manages rows in the 'payments' table.  Intents carry a
// TTL; expiry is evaluated lazily on read instead of by a background
// sweeper, so a row may sit in 'pending' past its expires_at until
// something looks at it.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

const paymentCols = `id, payment_id, booking_id, amount, payment_method, status,
       transaction_id, payment_proof, admin_notes, qr_payload,
       expires_at, verified_at, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (model.Payment, error) {
	var p model.Payment
	var status string
	err := row.Scan(&p.ID, &p.PaymentID, &p.BookingID, &p.Amount, &p.PaymentMethod,
		&status, &p.TransactionID, &p.PaymentProof, &p.AdminNotes, &p.QRPayload,
		&p.ExpiresAt, &p.VerifiedAt, &p.CreatedAt, &p.UpdatedAt)
	p.Status = model.PaymentStatus(status)
	return p, err
}

// Create inserts a payment intent and assigns the generated row ID.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO payments
		 (payment_id, booking_id, amount, payment_method, status, qr_payload, expires_at)
		 VALUES (?,?,?,?,?,?,?)`,
		p.PaymentID, p.BookingID, p.Amount, p.PaymentMethod, string(p.Status),
		p.QRPayload, p.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByPaymentID fetches an intent by its opaque external identifier.
func (r *PaymentRepo) GetByPaymentID(ctx context.Context, paymentID string) (model.Payment, error) {
	p, err := scanPayment(r.DB.QueryRowContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE payment_id=? LIMIT 1`, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Payment{}, ErrPaymentNotFound
	}
	return p, err
}

// GetByPaymentIDTx fetches an intent inside tx with a row lock so
// verification and expiry cannot race.
func (r *PaymentRepo) GetByPaymentIDTx(ctx context.Context, tx *sql.Tx, paymentID string) (model.Payment, error) {
	p, err := scanPayment(tx.QueryRowContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE payment_id=? LIMIT 1 FOR UPDATE`, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Payment{}, ErrPaymentNotFound
	}
	return p, err
}

// LatestByBooking returns the most recent intent for a booking, or
// ErrPaymentNotFound when the booking has none.
func (r *PaymentRepo) LatestByBooking(ctx context.Context, bookingID uint64) (model.Payment, error) {
	p, err := scanPayment(r.DB.QueryRowContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE booking_id=? ORDER BY id DESC LIMIT 1`,
		bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Payment{}, ErrPaymentNotFound
	}
	return p, err
}

// ListByBooking returns every intent ever issued for a booking,
// newest first.
func (r *PaymentRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Payment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE booking_id=? ORDER BY id DESC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

// ListByStatus returns intents in one status, oldest first, for the
// admin verification queue.  Empty status lists everything.
func (r *PaymentRepo) ListByStatus(ctx context.Context, status model.PaymentStatus) ([]model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE status=?`
		args = append(args, string(status))
	}
	q += ` ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func collectPayments(rows *sql.Rows) ([]model.Payment, error) {
	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkExpired flips a still-pending intent past its TTL to expired.
// The status and expires_at guards make it a no-op when proof arrived
// first or another reader already expired it.
func (r *PaymentRepo) MarkExpired(ctx context.Context, id uint64, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE payments SET status='expired' WHERE id=? AND status='pending' AND expires_at < ?`,
		id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AttachProof records the tenant's proof and moves the intent to
// pending_verification.  The status guard keeps a late submission
// from resurrecting an expired or decided intent.
func (r *PaymentRepo) AttachProof(ctx context.Context, id uint64, transactionID string, proof *string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE payments SET status='pending_verification', transaction_id=?, payment_proof=?
		 WHERE id=? AND status='pending'`,
		transactionID, proof, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetDecisionTx records the admin's verdict inside tx.  verified_at
// is stamped only on acceptance.
func (r *PaymentRepo) SetDecisionTx(ctx context.Context, tx *sql.Tx, id uint64, status model.PaymentStatus, notes *string, decidedAt time.Time) error {
	if status == model.PaymentVerified {
		_, err := tx.ExecContext(ctx,
			`UPDATE payments SET status=?, admin_notes=?, verified_at=? WHERE id=?`,
			string(status), notes, decidedAt, id)
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE payments SET status=?, admin_notes=? WHERE id=?`,
		string(status), notes, id)
	return err
}
