package model

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusExpired   EnrollmentStatus = "expired"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment is the user's access grant for one purchased item.
type Enrollment struct {
	ID             string
	UserID         string
	PurchaseItemID string
	ProductID      string
	ProductName    string
	AccessURL      string
	PlanLabel      PlanLabel
	ExternalID     string // id in the learning platform
	Status         EnrollmentStatus
	EnrolledAt     time.Time
	ExpiresAt      time.Time
	LastAccessedAt *time.Time
}

// ExpiryFor computes access expiry from the plan label: the trial plan grants
// 7 days, the full plan 6 calendar months.
func ExpiryFor(label PlanLabel, from time.Time) time.Time {
	if label == PlanLabel7Day {
		return from.AddDate(0, 0, 7)
	}
	return from.AddDate(0, 6, 0)
}

func NewEnrollment(userID string, item *PurchaseItem, at time.Time) *Enrollment {
	return &Enrollment{
		ID:             uuid.NewString(),
		UserID:         userID,
		PurchaseItemID: item.ID,
		ProductID:      item.ProductID,
		ProductName:    item.ProductName,
		AccessURL:      item.AccessURL,
		PlanLabel:      item.PlanLabel,
		ExternalID:     item.EnrollmentID,
		Status:         EnrollmentStatusActive,
		EnrolledAt:     at,
		ExpiresAt:      ExpiryFor(item.PlanLabel, at),
	}
}
