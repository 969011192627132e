package model

import "time"

// PaymentStatus is a closed enumeration of payment intent states.
// pending and pending_verification are the only active states; the
// rest are terminal.
type PaymentStatus string

const (
	PaymentPending      PaymentStatus = "pending"              // QR issued, waiting for proof
	PaymentPendingCheck PaymentStatus = "pending_verification" // proof submitted, awaiting admin
	PaymentVerified     PaymentStatus = "verified"             // admin accepted the proof
	PaymentRejected     PaymentStatus = "rejected"             // admin declined the proof
	PaymentExpired      PaymentStatus = "expired"              // TTL elapsed before proof
)

// Active reports whether an intent in this status still occupies its
// booking's single-active-intent slot.  Expiry is evaluated
// separately against ExpiresAt.
func (s PaymentStatus) Active() bool {
	return s == PaymentPending || s == PaymentPendingCheck
}

// Terminal reports whether the status can never change again.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentVerified || s == PaymentRejected || s == PaymentExpired
}

// Payment is a time-boxed intent representing an expected manual
// payment for one booking.  The tenant scans the QR payload, pays out
// of band and submits proof; an admin then verifies or rejects it.
// At most one active, unexpired intent may exist per booking.
//
// PaymentID is the opaque external identifier embedded in the QR
// payload.  It is high-entropy and globally unique so that intent
// identifiers cannot be enumerated.
type Payment struct {
	ID            uint64        // payments.id
	PaymentID     string        // payments.payment_id (opaque, unique)
	BookingID     uint64        // payments.booking_id
	Amount        float64       // payments.amount, equals booking.total_price
	PaymentMethod string        // payments.payment_method (esewa, khalti, bank)
	Status        PaymentStatus // payments.status
	TransactionID *string       // payments.transaction_id (nullable, from proof)
	PaymentProof  *string       // payments.payment_proof (nullable, artifact ref)
	AdminNotes    *string       // payments.admin_notes (nullable)
	QRPayload     *string       // payments.qr_payload (nullable, data URL)
	ExpiresAt     time.Time     // payments.expires_at
	VerifiedAt    *time.Time    // payments.verified_at (nullable)
	CreatedAt     time.Time     // payments.created_at
	UpdatedAt     time.Time     // payments.updated_at
}

// ExpiredBy reports whether the intent's TTL has elapsed at the given
// instant while the intent is still waiting for proof.  Intents that
// already carry proof (pending_verification) do not expire; the admin
// decision stands regardless of when it is made.
func (p *Payment) ExpiredBy(now time.Time) bool {
	return p.Status == PaymentPending && now.After(p.ExpiresAt)
}
