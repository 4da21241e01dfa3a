package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/adapter"
)

const stripeAPIBase = "https://api.stripe.com/v1"

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway implements adapter.PaymentGateway against the Stripe
// Checkout Sessions REST API.
type StripeGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{
		secretKey: secretKey,
		baseURL:   stripeAPIBase,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

// stripeSessionResponse is the subset of the session object we use.
type stripeSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCheckoutSession opens a hosted checkout session. Stripe takes
// form-encoded bodies, not JSON.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (*adapter.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("customer_email", p.CustomerEmail)
	form.Set("client_reference_id", p.ClientReferenceID)
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	if !p.ExpiresAt.IsZero() {
		form.Set("expires_at", strconv.FormatInt(p.ExpiresAt.Unix(), 10))
	}
	for i, line := range p.Lines {
		form.Set(fmt.Sprintf("line_items[%d][price]", i), line.PriceID)
		form.Set(fmt.Sprintf("line_items[%d][quantity]", i), strconv.FormatInt(line.Quantity, 10))
	}
	for k, v := range p.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &adapter.GatewayError{Kind: adapter.ErrKindUnavailable, Msg: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &adapter.GatewayError{Kind: adapter.ErrKindUnavailable, Msg: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyError(resp.StatusCode, body)
	}

	var session stripeSessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, &adapter.GatewayError{Kind: adapter.ErrKindUnknown, Msg: fmt.Sprintf("unmarshal session: %v", err)}
	}
	if session.ID == "" || session.URL == "" {
		return nil, &adapter.GatewayError{Kind: adapter.ErrKindUnknown, Msg: "session response missing id or url"}
	}
	return &adapter.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// classifyError folds Stripe error types and HTTP status into the closed
// ErrorKind set.
func classifyError(status int, body []byte) *adapter.GatewayError {
	var er stripeErrorResponse
	_ = json.Unmarshal(body, &er)

	kind := adapter.ErrKindUnknown
	switch er.Error.Type {
	case "invalid_request_error", "card_error", "idempotency_error":
		kind = adapter.ErrKindInvalidRequest
	case "authentication_error":
		kind = adapter.ErrKindAuth
	case "rate_limit_error":
		kind = adapter.ErrKindRateLimited
	case "api_error":
		kind = adapter.ErrKindUnavailable
	default:
		switch {
		case status == http.StatusTooManyRequests:
			kind = adapter.ErrKindRateLimited
		case status == http.StatusUnauthorized:
			kind = adapter.ErrKindAuth
		case status >= 500:
			kind = adapter.ErrKindUnavailable
		case status >= 400:
			kind = adapter.ErrKindInvalidRequest
		}
	}
	msg := er.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("http status %d", status)
	}
	return &adapter.GatewayError{Kind: kind, Code: er.Error.Code, Msg: msg}
}
