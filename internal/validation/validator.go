package validation

import (
	"errors"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// Reasons reported to callers. The client shows them verbatim, so they are
// part of the HTTP contract.
const (
	ReasonMissingFields   = "Missing required fields"
	ReasonNoProducts      = "At least one product is required"
	ReasonProductFields   = "Each product must have a name and quantity"
	ReasonProductName     = "Product name is required"
	ReasonProductQuantity = "Quantity is required"
)

// Violation is the first rule a request broke.
type Violation struct {
	Field  string
	Reason string
}

func (v *Violation) Error() string { return v.Reason }

// New returns a validator configured for purchase requests.
func New() *validatorv10.Validate {
	return validatorv10.New()
}

// Check runs the purchase request rules in order: scalar fields, product
// list, then each product. It returns nil or a *Violation for the first
// failure. Client and server both call it; neither trusts the other.
func Check(v *validatorv10.Validate, req PurchaseRequest) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return &Violation{Reason: ReasonMissingFields}
	}
	return violationFor(ve[0])
}

// CheckLineItem validates a single item before it joins the list.
func CheckLineItem(v *validatorv10.Validate, item LineItem) error {
	err := v.Struct(item)
	if err == nil {
		return nil
	}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 && ve[0].Field() == "Quantity" {
		return &Violation{Field: "Quantity", Reason: ReasonProductQuantity}
	}
	return &Violation{Field: "Name", Reason: ReasonProductName}
}

// violationFor maps a validator field error to the human readable reason.
// Errors arrive in struct field order, which is the rule order.
func violationFor(fe validatorv10.FieldError) *Violation {
	ns := fe.StructNamespace()
	switch {
	case strings.HasPrefix(ns, "PurchaseRequest.Products["):
		return &Violation{Field: ns, Reason: ReasonProductFields}
	case fe.Field() == "Products":
		return &Violation{Field: "Products", Reason: ReasonNoProducts}
	default:
		return &Violation{Field: fe.Field(), Reason: ReasonMissingFields}
	}
}
