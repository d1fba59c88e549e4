package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"
)

// RazorpayGateway talks to the Razorpay REST API. Amounts cross the wire in
// paise; callers of this package always deal in rupees.
type RazorpayGateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

// NewRazorpayFromEnv reads the gateway configuration from the environment.
func NewRazorpayFromEnv() (*RazorpayGateway, error) {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	webhookSecret := os.Getenv("RAZORPAY_WEBHOOK_SECRET")
	if keyID == "" || keySecret == "" || webhookSecret == "" {
		return nil, fmt.Errorf("razorpay configuration missing")
	}

	baseURL := os.Getenv("RAZORPAY_API_URL")
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}

	timeout := 10 * time.Second
	if v := os.Getenv("RAZORPAY_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			timeout = d
		}
	}

	return &RazorpayGateway{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		client:        &http.Client{Timeout: timeout},
	}, nil
}

type razorpayOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error,omitempty"`
}

// CreateIntent creates a remote order with the gateway and returns its id.
// The receipt key makes retried calls for the same order safe.
func (g *RazorpayGateway) CreateIntent(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (string, error) {
	payload := map[string]interface{}{
		// Round, don't truncate: 19.90 * 100 is 1989.999... in binary.
		"amount":   int64(math.Round(amount * 100)),
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}

	jsonData, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach razorpay: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("razorpay API error (%d): %s", resp.StatusCode, string(body))
	}

	var orderResp razorpayOrderResponse
	if err := json.Unmarshal(body, &orderResp); err != nil {
		return "", fmt.Errorf("failed to parse razorpay response: %w", err)
	}
	if orderResp.Error != nil {
		return "", fmt.Errorf("razorpay error: %s", orderResp.Error.Description)
	}
	if orderResp.ID == "" {
		return "", fmt.Errorf("razorpay returned empty order id")
	}

	return orderResp.ID, nil
}

type razorpayPaymentResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"` // paise
	Method   string `json:"method"`
	Currency string `json:"currency"`
}

// FetchPayment fetches the authoritative payment record by id.
func (g *RazorpayGateway) FetchPayment(ctx context.Context, paymentID string) (RemotePayment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/"+paymentID, nil)
	if err != nil {
		return RemotePayment{}, err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return RemotePayment{}, fmt.Errorf("failed to reach razorpay: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return RemotePayment{}, fmt.Errorf("razorpay API error (%d): %s", resp.StatusCode, string(body))
	}

	var payResp razorpayPaymentResponse
	if err := json.Unmarshal(body, &payResp); err != nil {
		return RemotePayment{}, fmt.Errorf("failed to parse razorpay payment: %w", err)
	}

	return RemotePayment{
		ID:       payResp.ID,
		Status:   payResp.Status,
		Amount:   float64(payResp.Amount) / 100,
		Method:   payResp.Method,
		Currency: payResp.Currency,
	}, nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature over the raw,
// byte-exact webhook body. The body must not be re-serialized before the
// check.
func (g *RazorpayGateway) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
