package adapter

import (
	"context"
	"fmt"
	"time"
)

// SessionLine is one payment-processor line item: a price reference bought
// once. Quantity is always 1 for course purchases.
type SessionLine struct {
	PriceID  string
	Quantity int64
}

// CheckoutParams carries everything needed to open a hosted checkout
// session. Metadata is a flat string map with provider-side size limits; the
// order document is serialized into it by the caller.
type CheckoutParams struct {
	Lines             []SessionLine
	CustomerEmail     string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
	Metadata          map[string]string
	ExpiresAt         time.Time
}

type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentGateway is the hex port for the payment processor.
type PaymentGateway interface {
	Name() string
	// CreateCheckoutSession opens a hosted checkout session and returns its
	// id and redirect URL. No local state is written by this call.
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
}

// ErrorKind is the closed set of provider error categories. The mapping from
// provider-specific error types is built once at the client boundary; call
// sites branch on kinds only.
type ErrorKind string

const (
	ErrKindInvalidRequest ErrorKind = "invalid_request"
	ErrKindAuth           ErrorKind = "auth"
	ErrKindRateLimited    ErrorKind = "rate_limited"
	ErrKindUnavailable    ErrorKind = "unavailable"
	ErrKindUnknown        ErrorKind = "unknown"
)

// GatewayError wraps a provider failure with its category. Raw provider
// detail stays server-side; only Kind drives the user-visible status.
type GatewayError struct {
	Kind ErrorKind
	Code string // provider error code, for logs
	Msg  string // provider message, for logs
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s (%s): %s", e.Kind, e.Code, e.Msg)
}
