package order

import (
	"time"

	"github.com/google/uuid"
)

// Status is the internal order status vocabulary.
type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

// Valid reports whether s is one of the eight known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// providerStatusMap translates the payment provider's status vocabulary to
// the internal one. Anything not in the table maps to pending so an unknown
// provider state is never mistaken for a completed payment.
var providerStatusMap = map[string]Status{
	"approved":     StatusPaid,
	"pending":      StatusPending,
	"authorized":   StatusPending,
	"in_process":   StatusProcessing,
	"rejected":     StatusFailed,
	"cancelled":    StatusCancelled,
	"refunded":     StatusRefunded,
	"charged_back": StatusFailed,
}

// MapProviderStatus maps a provider payment status to an internal order status.
func MapProviderStatus(providerStatus string) Status {
	if s, ok := providerStatusMap[providerStatus]; ok {
		return s
	}
	return StatusPending
}

// ShippingProductID is the sentinel product id used for the shipping line
// item. Catalog products are always created with uuid.New(), which can never
// produce the nil UUID.
var ShippingProductID = uuid.Nil

// Item is a single billed line on an order. The persisted item list is the
// sole source of truth for what is charged; totals are never recomputed from
// live catalog prices.
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int32     `json:"quantity"`
}

// Customer holds the buyer contact and delivery details captured at checkout.
type Customer struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Department string `json:"department"`
}

// Order is the central persisted entity of the checkout flow.
type Order struct {
	ID          uuid.UUID `json:"id"`
	Reference   string    `json:"reference"`
	Items       []Item    `json:"items"`
	TotalAmount int64     `json:"total_amount"`
	Status      Status    `json:"status"`

	// PaymentID is the provider-assigned payment identifier, empty until the
	// provider reports it back. It is the sole lookup key for webhook
	// reconciliation.
	PaymentID    string `json:"payment_id,omitempty"`
	PreferenceID string `json:"preference_id,omitempty"`
	// PaymentStatus records the raw provider status string from the most
	// recent notification.
	PaymentStatus string `json:"payment_status,omitempty"`

	Customer      Customer `json:"customer"`
	CourierID     string   `json:"courier_id"`
	CourierName   string   `json:"courier_name"`
	ShippingPrice int64    `json:"shipping_price"`

	TrackingNumber string `json:"tracking_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Total returns the sum of all line totals. It always equals TotalAmount for
// orders built by this package.
func (o Order) Total() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.UnitPrice * int64(it.Quantity)
	}
	return sum
}
