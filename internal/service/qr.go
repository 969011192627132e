package service

import (
	"encoding/base64"
	"encoding/json"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// PlatformAccount identifies the receiving account embedded in every
// payment QR code.  Payments are manual: the tenant transfers to this
// account out of band and submits the transaction reference as proof.
type PlatformAccount struct {
	Number       string
	MerchantName string
}

// qrPayload is the JSON document encoded into the QR image.  Mobile
// wallet apps read it to prefill the transfer.
type qrPayload struct {
	PaymentID       string  `json:"payment_id"`
	BookingID       uint64  `json:"booking_id"`
	Amount          float64 `json:"amount"`
	PlatformAccount string  `json:"platform_account"`
	MerchantName    string  `json:"merchant_name"`
	ExpiresAt       string  `json:"expires_at"`
}

// buildQR renders the payment QR as a base64 PNG data URL ready to be
// dropped into an <img> tag.
func buildQR(paymentID string, bookingID uint64, amount float64, account PlatformAccount, expiresAt time.Time) (string, error) {
	payload, err := json.Marshal(qrPayload{
		PaymentID:       paymentID,
		BookingID:       bookingID,
		Amount:          amount,
		PlatformAccount: account.Number,
		MerchantName:    account.MerchantName,
		ExpiresAt:       expiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
