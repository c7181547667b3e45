package fallback

import (
	"time"

	"github.com/google/uuid"
	"github.com/imrishuroy/go-purchase-intake/internal/validation"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Record is a purchase request stamped at the moment a relay was attempted.
// It is the body sent to the spreadsheet endpoint and the shape kept in the
// fallback store.
type Record struct {
	ID string `json:"id" dynamodbav:"id"` // PK in the archive table
	validation.PurchaseRequest
	Timestamp string `json:"timestamp" dynamodbav:"timestamp"`
}

// NewRecord copies req into a new Record with a fresh id and timestamp.
func NewRecord(req validation.PurchaseRequest, now time.Time) Record {
	products := make([]validation.LineItem, len(req.Products))
	copy(products, req.Products)
	req.Products = products

	return Record{
		ID:              uuid.NewString(),
		PurchaseRequest: req,
		Timestamp:       now.UTC().Format(TimestampLayout),
	}
}
