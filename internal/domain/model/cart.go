package model

// CartLine is a client-held cart entry. Everything denormalized here is
// untrusted and re-derived from the catalog during checkout validation.
type CartLine struct {
	ProductID     string    `json:"courseId"`
	ProductName   string    `json:"courseName"`
	PlanLabel     PlanLabel `json:"planLabel"`
	Price         int64     `json:"price"`
	EnrollmentID  string    `json:"enrollmentId"`
	StripePriceID string    `json:"stripePriceId"`
}

// ProcessedLine is a cart line after validation: price and identifiers come
// from the catalog, never from the client. LineID is assigned server-side.
type ProcessedLine struct {
	LineID        string
	ProductID     string
	ProductName   string
	PlanLabel     PlanLabel
	Category      Category
	Price         int64
	EnrollmentID  string
	StripePriceID string
	AccessURL     string
}

type ConflictReason string

const (
	// Line's product is owned outright.
	ConflictOwned ConflictReason = "owned"
	// Line is a bundle and at least one of its members is owned.
	ConflictBundleMemberOwned ConflictReason = "bundle-member-owned"
	// Line is a standalone course contained in an owned bundle's package.
	ConflictInOwnedBundle ConflictReason = "in-owned-bundle"
)

// ConflictingLine reports one cart line that collides with existing
// ownership. Via* fields name the owned product that triggered the conflict
// when it is not the line's own product.
type ConflictingLine struct {
	ProductID      string         `json:"courseId"`
	ProductName    string         `json:"courseName"`
	Reason         ConflictReason `json:"reason"`
	ViaProductID   string         `json:"viaProductId,omitempty"`
	ViaProductName string         `json:"viaProductName,omitempty"`
}

// DisplayName is the name surfaced to the shopper: the owned bundle when the
// conflict is indirect, the line's own name otherwise.
func (c ConflictingLine) DisplayName() string {
	if c.ViaProductName != "" {
		return c.ViaProductName
	}
	return c.ProductName
}

// ConflictReport lists conflicts in cart order, one entry per line.
type ConflictReport struct {
	HasConflicts bool              `json:"hasConflicts"`
	Lines        []ConflictingLine `json:"conflictingLines,omitempty"`
}

// ConflictNames returns the display names for user-facing messages.
func (r ConflictReport) ConflictNames() []string {
	names := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		names = append(names, l.DisplayName())
	}
	return names
}
