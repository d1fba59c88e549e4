package payment

import "context"

const (
	// Remote payment statuses as reported by the gateway.
	StatusCaptured = "captured"
	StatusFailed   = "failed"
)

// RemotePayment is the gateway's record of a payment attempt. Amount is in
// rupees (the gateway itself reports paise).
type RemotePayment struct {
	ID       string
	Status   string
	Amount   float64
	Method   string
	Currency string
}

// Gateway is the payment processor as seen by checkout and reconciliation.
// Implementations must treat receipt as an idempotency key: creating a second
// intent with the same receipt must not double-charge.
type Gateway interface {
	CreateIntent(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (string, error)
	FetchPayment(ctx context.Context, paymentID string) (RemotePayment, error)
	VerifyWebhookSignature(rawBody []byte, signature string) bool
}
