// Package gateway is the payment gateway contract consumed by the
// reservation pipeline.
package gateway

import (
	"context"
	"strings"
)

// PaymentGateway charges a payment method. Implementations must bound every
// call with their own timeout and report failure rather than hang.
type PaymentGateway interface {
	// Charge resolves to a successful or failed ChargeResponse; a non-nil
	// error means the outcome is unknown (transport failure, timeout).
	Charge(ctx context.Context, req ChargeRequest) (ChargeResponse, error)

	// GetTransaction looks a charge up by its idempotency key.
	GetTransaction(ctx context.Context, idempotencyKey string) (TransactionInfo, bool, error)

	Name() string
}

type ChargeRequest struct {
	IdempotencyKey string
	Amount         int64
	Currency       string
	Method         Method
	Description    string
	Metadata       map[string]string
}

type ChargeResponse struct {
	Success       bool
	TransactionID string
	Status        string
	FailureReason string
}

type TransactionInfo struct {
	TransactionID  string
	IdempotencyKey string
	Status         string
	Amount         int64
	Method         Method
	FailureReason  string
}

// Method is a normalized payment method.
type Method string

const (
	MethodCard   Method = "card"
	MethodBank   Method = "bank"
	MethodMobile Method = "mobile"
)

// ParseMethod accepts the canonical names and the labels the web client
// sends ("Credit Card", "Bank Transfer", "Mobile Payment - telebirr").
func ParseMethod(raw string) (Method, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "card", strings.Contains(s, "card"):
		return MethodCard, true
	case s == "bank", strings.HasPrefix(s, "bank"):
		return MethodBank, true
	case s == "mobile", strings.HasPrefix(s, "mobile"):
		return MethodMobile, true
	default:
		return "", false
	}
}
