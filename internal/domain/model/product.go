package model

import (
	"regexp"
	"time"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
)

type PlanLabel string

const (
	PlanLabel7Day   PlanLabel = "7day" // short trial access
	PlanLabel6Month PlanLabel = "6mo"  // full access
)

type Category string

const (
	CategoryCourse Category = "course"
	CategoryBundle Category = "bundle"
)

type MonetaryType string

const (
	MonetaryPaid MonetaryType = "paid"
	MonetaryFree MonetaryType = "free"
)

// stripePriceIDRe matches the provider's price-id shape. Zero-price plans
// still carry a real price reference, so the check applies uniformly.
var stripePriceIDRe = regexp.MustCompile(`^price_[A-Za-z0-9]+$`)

// Plan is one purchasable pricing option of a Product. Price is in the
// smallest currency unit.
type Plan struct {
	Label         PlanLabel    `json:"label"`
	Category      Category     `json:"category"`
	Monetary      MonetaryType `json:"monetary"`
	Price         int64        `json:"price"`
	EnrollmentID  string       `json:"enrollmentId"`
	StripePriceID string       `json:"stripePriceId"`
	AccessURL     string       `json:"accessUrl"`
}

func (p *Plan) HasValidPriceRef() bool { return stripePriceIDRe.MatchString(p.StripePriceID) }

// Validate enforces plan invariants: price == 0 iff monetary type is free.
func (p *Plan) Validate() error {
	if p.Label == "" || p.EnrollmentID == "" || p.Price < 0 {
		return domain.ErrInvalidArgument
	}
	if (p.Price == 0) != (p.Monetary == MonetaryFree) {
		return domain.ErrInvalidArgument
	}
	return nil
}

// Product is a purchasable item: a standalone course or a bundle whose
// PackageIDs reference existing standalone products. The id is the stable
// cross-system join key.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsBundle    bool      `json:"isBundle"`
	PackageIDs  []string  `json:"packageIds,omitempty"`
	Plans       []Plan    `json:"plans"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (p *Product) IsZero() bool { return p == nil || p.ID == "" }

// PlanByLabel returns the plan with the given label, if any.
func (p *Product) PlanByLabel(label PlanLabel) (*Plan, bool) {
	for i := range p.Plans {
		if p.Plans[i].Label == label {
			return &p.Plans[i], true
		}
	}
	return nil, false
}

// ContainsMember reports whether a bundle's package includes productID.
func (p *Product) ContainsMember(productID string) bool {
	if !p.IsBundle {
		return false
	}
	for _, id := range p.PackageIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// NewProduct validates and constructs a product.
func NewProduct(id, name, description string, isBundle bool, packageIDs []string, plans []Plan) (*Product, error) {
	if id == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if isBundle && len(packageIDs) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	for i := range plans {
		if err := plans[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		IsBundle:    isBundle,
		PackageIDs:  packageIDs,
		Plans:       plans,
		CreatedAt:   time.Now(),
	}, nil
}
