package model

import (
	"encoding/json"
	"fmt"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
)

// Order is the cross-process contract embedded in the payment session
// metadata. It is a single JSON document keyed by stable per-line ids, so the
// webhook handler can reconstruct the purchase from the event payload alone
// even if the local catalog has drifted since session creation.
type Order struct {
	UserID    string      `json:"userId"` // identity-provider id
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	ItemCount int         `json:"itemCount"`
	Lines     []OrderLine `json:"lines"`
}

type OrderLine struct {
	LineID        string    `json:"lineId"`
	ProductID     string    `json:"productId"`
	ProductName   string    `json:"productName"`
	PlanLabel     PlanLabel `json:"planLabel"`
	Category      Category  `json:"category"`
	Price         int64     `json:"price"`
	EnrollmentID  string    `json:"enrollmentId"`
	StripePriceID string    `json:"stripePriceId"`
	AccessURL     string    `json:"accessUrl"`
}

// NewOrder builds the metadata document from processed lines.
func NewOrder(userID, email, name string, lines []ProcessedLine) *Order {
	o := &Order{UserID: userID, Email: email, Name: name, ItemCount: len(lines)}
	for _, l := range lines {
		o.Lines = append(o.Lines, OrderLine{
			LineID:        l.LineID,
			ProductID:     l.ProductID,
			ProductName:   l.ProductName,
			PlanLabel:     l.PlanLabel,
			Category:      l.Category,
			Price:         l.Price,
			EnrollmentID:  l.EnrollmentID,
			StripePriceID: l.StripePriceID,
			AccessURL:     l.AccessURL,
		})
	}
	return o
}

func (o *Order) Total() int64 {
	var sum int64
	for _, l := range o.Lines {
		sum += l.Price
	}
	return sum
}

func (o *Order) EnrollmentIDs() []string {
	ids := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		ids = append(ids, l.EnrollmentID)
	}
	return ids
}

func (o *Order) Encode() (string, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeOrder parses and validates the metadata document field by field.
// A payload that fails here can never be processed and must not be retried.
func DecodeOrder(raw string) (*Order, error) {
	if raw == "" {
		return nil, fmt.Errorf("order metadata: %w", domain.ErrInvalidArgument)
	}
	var o Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return nil, fmt.Errorf("order metadata: %w", err)
	}
	if o.UserID == "" || o.Email == "" {
		return nil, fmt.Errorf("order metadata missing user identity: %w", domain.ErrInvalidArgument)
	}
	if len(o.Lines) == 0 || o.ItemCount != len(o.Lines) {
		return nil, fmt.Errorf("order metadata item count %d does not match %d lines: %w",
			o.ItemCount, len(o.Lines), domain.ErrInvalidArgument)
	}
	for i, l := range o.Lines {
		if l.LineID == "" || l.ProductID == "" || l.EnrollmentID == "" {
			return nil, fmt.Errorf("order line %d missing identifiers: %w", i, domain.ErrInvalidArgument)
		}
		if l.PlanLabel == "" || l.Price < 0 {
			return nil, fmt.Errorf("order line %d invalid plan/price: %w", i, domain.ErrInvalidArgument)
		}
	}
	return &o, nil
}
