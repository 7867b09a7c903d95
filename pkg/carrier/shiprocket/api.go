package shiprocket

import (
	"context"
)

// APIClient defines the raw Shiprocket API operations. The abstraction allows
// a mock implementation in tests and the HTTP implementation in production.
// Every method except Login expects a bearer token supplied by the caller;
// token lifecycle lives one level up, in Client.
type APIClient interface {
	// Login exchanges account credentials for a bearer token.
	// POST /auth/login
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)

	// CheckServiceability lists couriers able to carry a parcel between two
	// postcodes. GET /courier/serviceability/
	CheckServiceability(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error)

	// CreateOrder registers an ad-hoc order with the carrier.
	// POST /orders/create/adhoc
	CreateOrder(ctx context.Context, token string, req *CreateOrderRequest) (*CreateOrderResponse, error)

	// AssignAWB requests a waybill for a shipment, optionally pinned to a
	// specific courier. POST /courier/assign/awb
	AssignAWB(ctx context.Context, token string, req *AssignAWBRequest) (*AssignAWBResponse, error)

	// GeneratePickup schedules a pickup for shipments.
	// POST /courier/generate/pickup
	GeneratePickup(ctx context.Context, token string, shipmentIDs []int64) (*PickupResponse, error)

	// GenerateLabel produces a shipping label for shipments.
	// POST /courier/generate/label
	GenerateLabel(ctx context.Context, token string, shipmentIDs []int64) (*LabelResponse, error)

	// PrintInvoice produces an invoice for orders.
	// POST /orders/print/invoice
	PrintInvoice(ctx context.Context, token string, orderIDs []int64) (*InvoiceResponse, error)

	// GenerateManifest produces a manifest for shipments.
	// POST /manifests/generate
	GenerateManifest(ctx context.Context, token string, shipmentIDs []int64) (*ManifestResponse, error)

	// Track fetches the current tracking snapshot for a waybill.
	// GET /courier/track/awb/{awb}
	Track(ctx context.Context, token, awb string) (*TrackResponse, error)

	// CancelOrders cancels remote orders. POST /orders/cancel
	CancelOrders(ctx context.Context, token string, orderIDs []int64) (*CancelResponse, error)
}

// ============================================================================
// API Request/Response Types (match Shiprocket REST API v1 structure)
// ============================================================================

// LoginRequest is the credential exchange payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token. The carrier keeps tokens valid for
// ten days; expiry bookkeeping is the caller's concern.
type LoginResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// ServiceabilityRequest describes a prospective parcel lane.
type ServiceabilityRequest struct {
	PickupPostcode   string
	DeliveryPostcode string
	WeightKG         float64
	COD              bool
}

// ServiceabilityResponse lists courier companies able to serve the lane.
type ServiceabilityResponse struct {
	Status int `json:"status"`
	Data   struct {
		AvailableCourierCompanies []CourierCompany `json:"available_courier_companies"`
		RecommendedCourierID      int              `json:"recommended_courier_company_id"`
	} `json:"data"`
}

// CourierCompany is one serviceable courier quote.
type CourierCompany struct {
	CourierCompanyID int     `json:"courier_company_id"`
	CourierName      string  `json:"courier_name"`
	Rate             float64 `json:"rate"`
	// EstimatedDeliveryDays arrives as free text ("2", "4-5", sometimes blank).
	EstimatedDeliveryDays string `json:"estimated_delivery_days"`
	ETD                   string `json:"etd"`
	IsSurface             bool   `json:"is_surface"`
	COD                   int    `json:"cod"`
}

// CreateOrderRequest is the ad-hoc order creation payload.
type CreateOrderRequest struct {
	OrderID        string `json:"order_id"`
	OrderDate      string `json:"order_date"`
	PickupLocation string `json:"pickup_location"`
	Comment        string `json:"comment,omitempty"`

	BillingCustomerName string `json:"billing_customer_name"`
	BillingLastName     string `json:"billing_last_name"`
	BillingAddress      string `json:"billing_address"`
	BillingAddress2     string `json:"billing_address_2,omitempty"`
	BillingCity         string `json:"billing_city"`
	BillingPincode      string `json:"billing_pincode"`
	BillingState        string `json:"billing_state"`
	BillingCountry      string `json:"billing_country"`
	BillingEmail        string `json:"billing_email,omitempty"`
	BillingPhone        string `json:"billing_phone"`

	ShippingIsBilling   bool   `json:"shipping_is_billing"`
	ShippingCustomerName string `json:"shipping_customer_name,omitempty"`
	ShippingLastName    string `json:"shipping_last_name,omitempty"`
	ShippingAddress     string `json:"shipping_address,omitempty"`
	ShippingAddress2    string `json:"shipping_address_2,omitempty"`
	ShippingCity        string `json:"shipping_city,omitempty"`
	ShippingPincode     string `json:"shipping_pincode,omitempty"`
	ShippingState       string `json:"shipping_state,omitempty"`
	ShippingCountry     string `json:"shipping_country,omitempty"`
	ShippingEmail       string `json:"shipping_email,omitempty"`
	ShippingPhone       string `json:"shipping_phone,omitempty"`

	OrderItems    []OrderItem `json:"order_items"`
	PaymentMethod string      `json:"payment_method"` // "COD" or "Prepaid"
	SubTotal      float64     `json:"sub_total"`

	// Aggregate physical metrics. Dimensions cm, weight kg.
	Length  float64 `json:"length"`
	Breadth float64 `json:"breadth"`
	Height  float64 `json:"height"`
	Weight  float64 `json:"weight"`
}

// OrderItem is one itemized line of a carrier order.
type OrderItem struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Units        int    `json:"units"`
	SellingPrice int    `json:"selling_price"` // carrier wants whole currency units
	HSN          string `json:"hsn,omitempty"`
	Tax          string `json:"tax,omitempty"`
}

// CreateOrderResponse carries the remote order and shipment identifiers.
type CreateOrderResponse struct {
	OrderID     int64  `json:"order_id"`
	ShipmentID  int64  `json:"shipment_id"`
	Status      string `json:"status"`
	StatusCode  int    `json:"status_code"`
	AWBCode     string `json:"awb_code"`
	CourierID   string `json:"courier_company_id"`
	CourierName string `json:"courier_name"`
}

// AssignAWBRequest requests a waybill for a shipment. CourierID zero lets the
// carrier pick.
type AssignAWBRequest struct {
	ShipmentID int64 `json:"shipment_id"`
	CourierID  int   `json:"courier_id,omitempty"`
}

// AssignAWBResponse carries the assigned waybill.
type AssignAWBResponse struct {
	AWBAssignStatus int `json:"awb_assign_status"`
	Response        struct {
		Data struct {
			AWBCode          string `json:"awb_code"`
			CourierCompanyID int    `json:"courier_company_id"`
			CourierName      string `json:"courier_name"`
			AssignedDateTime struct {
				Date string `json:"date"`
			} `json:"assigned_date_time"`
			PickupScheduledDate string `json:"pickup_scheduled_date"`
		} `json:"data"`
	} `json:"response"`
}

// PickupResponse acknowledges a pickup request.
type PickupResponse struct {
	PickupStatus     int    `json:"pickup_status"`
	PickupTokenNumber string `json:"pickup_token_number"`
	Response         struct {
		PickupScheduledDate string `json:"pickup_scheduled_date"`
	} `json:"response"`
}

// LabelResponse carries the generated label link.
type LabelResponse struct {
	LabelCreated int    `json:"label_created"`
	LabelURL     string `json:"label_url"`
}

// InvoiceResponse carries the generated invoice link.
type InvoiceResponse struct {
	IsInvoiceCreated bool   `json:"is_invoice_created"`
	InvoiceURL       string `json:"invoice_url"`
}

// ManifestResponse carries the generated manifest link.
type ManifestResponse struct {
	Status      int    `json:"status"`
	ManifestURL string `json:"manifest_url"`
}

// TrackResponse is the tracking snapshot for a waybill.
type TrackResponse struct {
	TrackingData TrackingData `json:"tracking_data"`
}

// TrackingData mirrors the carrier's tracking payload. Status fields sometimes
// carry a numeric code where a label is expected; normalization happens in the
// reconciliation layer, not here.
type TrackingData struct {
	TrackStatus    int             `json:"track_status"`
	ShipmentStatus int             `json:"shipment_status"`
	ShipmentTrack  []ShipmentTrack `json:"shipment_track"`
	ShipmentTrackActivities []TrackActivity `json:"shipment_track_activities"`
	TrackURL string `json:"track_url"`
	ETD      string `json:"etd"`
	Error    string `json:"error,omitempty"`
}

// ShipmentTrack is the summary row of a tracking snapshot.
type ShipmentTrack struct {
	ID            int64  `json:"id"`
	AWBCode       string `json:"awb_code"`
	CourierCompanyID int `json:"courier_company_id"`
	ShipmentID    int64  `json:"shipment_id"`
	OrderID       int64  `json:"order_id"`
	CurrentStatus string `json:"current_status"`
	DeliveredDate string `json:"delivered_date"`
	Destination   string `json:"destination"`
	Origin        string `json:"origin"`
	CourierName   string `json:"courier_name"`
	EDD           string `json:"edd"`
	PODStatus     string `json:"pod_status"`
	POD           string `json:"pod"`
}

// TrackActivity is a single scan event in a shipment's history.
type TrackActivity struct {
	Date     string `json:"date"`
	Status   string `json:"status"`
	Activity string `json:"activity"`
	Location string `json:"location"`
	SRStatus string `json:"sr-status"`
}

// CancelResponse acknowledges an order cancellation.
type CancelResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}
