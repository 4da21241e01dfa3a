package model

import (
	"time"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"   // session confirmed by webhook, enrollment in flight
	PurchaseStatusCompleted PurchaseStatus = "completed" // all items attempted; immutable from here on
)

// Purchase records one confirmed checkout. SessionID is the payment-session
// id and the natural idempotency key: redelivered webhooks for the same
// session must not produce a second row.
type Purchase struct {
	ID              string
	UserID          string // local user id
	SessionID       string
	PaymentIntentID string
	Amount          int64
	Currency        string
	Status          PurchaseStatus
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

func NewPurchase(userID, sessionID, paymentIntentID string, amount int64, currency string) *Purchase {
	return &Purchase{
		ID:              uuid.NewString(),
		UserID:          userID,
		SessionID:       sessionID,
		PaymentIntentID: paymentIntentID,
		Amount:          amount,
		Currency:        currency,
		Status:          PurchaseStatusPending,
		CreatedAt:       time.Now(),
	}
}

// PurchaseItem denormalizes product and plan identity at purchase time so
// price history survives later catalog changes. Immutable once created.
type PurchaseItem struct {
	ID           string
	PurchaseID   string
	LineID       string
	ProductID    string
	ProductName  string
	PlanLabel    PlanLabel
	Category     Category
	Price        int64
	EnrollmentID string
	AccessURL    string
	CreatedAt    time.Time
}

func NewPurchaseItem(purchaseID string, line OrderLine) *PurchaseItem {
	return &PurchaseItem{
		ID:           uuid.NewString(),
		PurchaseID:   purchaseID,
		LineID:       line.LineID,
		ProductID:    line.ProductID,
		ProductName:  line.ProductName,
		PlanLabel:    line.PlanLabel,
		Category:     line.Category,
		Price:        line.Price,
		EnrollmentID: line.EnrollmentID,
		AccessURL:    line.AccessURL,
		CreatedAt:    time.Now(),
	}
}
