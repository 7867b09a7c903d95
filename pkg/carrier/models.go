package carrier

import (
	"time"
)

// Preference selects which serviceable courier wins for a shipment.
type Preference string

const (
	// PreferCheapest picks the courier with the lowest quoted rate.
	PreferCheapest Preference = "cheapest"
	// PreferFastest picks the courier with the fewest estimated delivery days.
	PreferFastest Preference = "fastest"
)

// Address is a billing or shipping party on a host order.
type Address struct {
	Name       string
	Company    string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	CountryCode string
	Phone      string
	Email      string
}

// Variant carries the physical data of a purchasable item. Weight is grams,
// dimensions are centimeters. Pointers distinguish "absent" from zero: a
// variant with no recorded weight must fail shipment validation instead of
// shipping as 0 g.
type Variant struct {
	WeightGrams *float64
	LengthCM    *float64
	WidthCM     *float64
	HeightCM    *float64
	HSNCode     string
}

// OrderLine is a single purchasable line on a host order.
type OrderLine struct {
	ID        string
	SKU       string
	Title     string
	Quantity  int
	UnitPrice float64
	TaxCode   string
	Variant   *Variant
}

// Order is the host-side order a shipment originates from.
type Order struct {
	ID         string
	CustomerID string
	Email      string
	Billing    Address
	Shipping   Address
	Lines      []OrderLine
	PaymentCOD bool
}

// FulfillmentItem is one line of a fulfillment request, referencing an order
// line by id with the quantity to ship.
type FulfillmentItem struct {
	LineID   string
	Quantity int
}

// CourierOption is one serviceable courier returned by the carrier's
// serviceability check.
type CourierOption struct {
	ID           int
	Name         string
	Rate         float64
	EstimatedDays string // carrier returns this as free text, may be unparsable
	ETD          string
	IsSurface    bool
	CODAvailable bool
}

// Estimate is the outcome of a serviceability check for a postcode pair.
// An unserviceable lane is a valid estimate, not an error.
type Estimate struct {
	Serviceable bool
	Courier     *CourierOption // selected per preference, nil when unserviceable
	Considered  int            // number of serviceable couriers examined
}

// Shipment is the result of a successful shipment creation: the remote order,
// the carrier-assigned waybill, and the courier that will carry it.
type Shipment struct {
	OrderID       int64
	ShipmentID    int64
	ExternalOrderID string
	Waybill       string
	CourierID     int
	CourierName   string
	CreatedAt     time.Time
}

// Documents holds the shipping paperwork links generated for a shipment.
// Any field may be empty when generation failed or has not run yet.
type Documents struct {
	LabelURL    string
	InvoiceURL  string
	ManifestURL string
}
