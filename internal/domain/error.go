package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// ValidationCode identifies why a checkout cart was rejected.
// Codes are machine-checkable and stable across releases.
type ValidationCode string

const (
	CodeProductNotFound       ValidationCode = "ProductNotFound"
	CodePlanNotFound          ValidationCode = "PlanNotFound"
	CodePriceMismatch         ValidationCode = "PriceMismatch"
	CodeEnrollmentIDMismatch  ValidationCode = "EnrollmentIdMismatch"
	CodeInvalidPriceReference ValidationCode = "InvalidPriceReference"
	CodeAlreadyOwned          ValidationCode = "AlreadyOwned"
)

// ValidationError rejects a whole cart: the first failing line aborts the
// request, there are no partial carts.
type ValidationError struct {
	Code      ValidationCode
	ProductID string
	PlanLabel string
	Conflicts []string // conflicting display names, set for AlreadyOwned
}

func (e *ValidationError) Error() string {
	if e.Code == CodeAlreadyOwned {
		return fmt.Sprintf("%s: %s", e.Code, strings.Join(e.Conflicts, ", "))
	}
	if e.PlanLabel != "" {
		return fmt.Sprintf("%s: product=%s plan=%s", e.Code, e.ProductID, e.PlanLabel)
	}
	return fmt.Sprintf("%s: product=%s", e.Code, e.ProductID)
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
