package validation

// LineItem is one product or service entry in a purchase request.
// Quantity is free-form text ("1000kg", "3 cajas") and is never parsed.
type LineItem struct {
	Name          string `json:"name" dynamodbav:"name" validate:"required"`
	Quantity      string `json:"quantity" dynamodbav:"quantity" validate:"required"`
	Specification string `json:"specification,omitempty" dynamodbav:"specification,omitempty"`
}

// PurchaseRequest is the payload for POST /api/purchase-request.
// Field order matters: validation reports the first failing field.
type PurchaseRequest struct {
	Name          string     `json:"name" dynamodbav:"name" validate:"required"`
	Position      string     `json:"position" dynamodbav:"position" validate:"required"`
	Department    string     `json:"department" dynamodbav:"department" validate:"required"`
	Site          string     `json:"site" dynamodbav:"site" validate:"required"`
	RequestType   string     `json:"requestType" dynamodbav:"request_type" validate:"required"`
	Justification string     `json:"justification" dynamodbav:"justification" validate:"required"`
	Products      []LineItem `json:"products" dynamodbav:"products" validate:"required,min=1,dive"`
}
