package shiprocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parceldesk/shipbridge/pkg/carrier"
)

// MockAPIClient is a mock implementation of APIClient for testing.
// Each operation can be overridden with an OnX hook; otherwise canned data is
// returned. Call counts are recorded so tests can assert how many times the
// carrier was actually hit.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnLogin               func(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	OnCheckServiceability func(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error)
	OnCreateOrder         func(ctx context.Context, token string, req *CreateOrderRequest) (*CreateOrderResponse, error)
	OnAssignAWB           func(ctx context.Context, token string, req *AssignAWBRequest) (*AssignAWBResponse, error)
	OnGeneratePickup      func(ctx context.Context, token string, shipmentIDs []int64) (*PickupResponse, error)
	OnGenerateLabel       func(ctx context.Context, token string, shipmentIDs []int64) (*LabelResponse, error)
	OnPrintInvoice        func(ctx context.Context, token string, orderIDs []int64) (*InvoiceResponse, error)
	OnGenerateManifest    func(ctx context.Context, token string, shipmentIDs []int64) (*ManifestResponse, error)
	OnTrack               func(ctx context.Context, token, awb string) (*TrackResponse, error)
	OnCancelOrders        func(ctx context.Context, token string, orderIDs []int64) (*CancelResponse, error)

	mu    sync.Mutex
	calls map[string]int
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{calls: make(map[string]int)}
}

// CallCount returns how many times the named operation was invoked.
func (m *MockAPIClient) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockAPIClient) record(op string) error {
	m.mu.Lock()
	m.calls[op]++
	m.mu.Unlock()

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return carrier.NewError(carrier.KindUnavailable, op, "simulated API error")
	}
	return nil
}

// Login returns a mock bearer token.
func (m *MockAPIClient) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := m.record("login"); err != nil {
		return nil, err
	}
	if m.OnLogin != nil {
		return m.OnLogin(ctx, req)
	}
	return &LoginResponse{
		ID:    1,
		Email: req.Email,
		Token: "mock-token-" + uuid.New().String()[:8],
	}, nil
}

// CheckServiceability returns three mock couriers.
func (m *MockAPIClient) CheckServiceability(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error) {
	if err := m.record("serviceability"); err != nil {
		return nil, err
	}
	if m.OnCheckServiceability != nil {
		return m.OnCheckServiceability(ctx, token, req)
	}

	etd := time.Now().AddDate(0, 0, 3).Format("Jan 02, 2006")
	resp := &ServiceabilityResponse{Status: 200}
	resp.Data.RecommendedCourierID = 21
	resp.Data.AvailableCourierCompanies = []CourierCompany{
		{CourierCompanyID: 21, CourierName: "Mock Express", Rate: 65, EstimatedDeliveryDays: "2", ETD: etd, IsSurface: false, COD: 1},
		{CourierCompanyID: 34, CourierName: "Mock Surface", Rate: 42, EstimatedDeliveryDays: "5", ETD: etd, IsSurface: true, COD: 1},
		{CourierCompanyID: 55, CourierName: "Mock Air", Rate: 88, EstimatedDeliveryDays: "1", ETD: etd, IsSurface: false, COD: 0},
	}
	return resp, nil
}

// CreateOrder creates a mock remote order.
func (m *MockAPIClient) CreateOrder(ctx context.Context, token string, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	if err := m.record("create_order"); err != nil {
		return nil, err
	}
	if m.OnCreateOrder != nil {
		return m.OnCreateOrder(ctx, token, req)
	}
	now := time.Now().UnixNano()
	return &CreateOrderResponse{
		OrderID:    400000000 + now%1000000,
		ShipmentID: 500000000 + now%1000000,
		Status:     "NEW",
		StatusCode: 1,
	}, nil
}

// AssignAWB assigns a mock waybill.
func (m *MockAPIClient) AssignAWB(ctx context.Context, token string, req *AssignAWBRequest) (*AssignAWBResponse, error) {
	if err := m.record("assign_awb"); err != nil {
		return nil, err
	}
	if m.OnAssignAWB != nil {
		return m.OnAssignAWB(ctx, token, req)
	}

	resp := &AssignAWBResponse{AWBAssignStatus: 1}
	resp.Response.Data.AWBCode = fmt.Sprintf("MOCK%012d", time.Now().UnixNano()%1000000000000)
	resp.Response.Data.CourierCompanyID = req.CourierID
	if resp.Response.Data.CourierCompanyID == 0 {
		resp.Response.Data.CourierCompanyID = 21
	}
	resp.Response.Data.CourierName = "Mock Express"
	resp.Response.Data.AssignedDateTime.Date = time.Now().Format("2006-01-02 15:04:05")
	return resp, nil
}

// GeneratePickup acknowledges a mock pickup request.
func (m *MockAPIClient) GeneratePickup(ctx context.Context, token string, shipmentIDs []int64) (*PickupResponse, error) {
	if err := m.record("generate_pickup"); err != nil {
		return nil, err
	}
	if m.OnGeneratePickup != nil {
		return m.OnGeneratePickup(ctx, token, shipmentIDs)
	}
	resp := &PickupResponse{PickupStatus: 1, PickupTokenNumber: "mock-pickup-" + uuid.New().String()[:8]}
	resp.Response.PickupScheduledDate = time.Now().AddDate(0, 0, 1).Format("2006-01-02 15:04:05")
	return resp, nil
}

// GenerateLabel returns a mock label link.
func (m *MockAPIClient) GenerateLabel(ctx context.Context, token string, shipmentIDs []int64) (*LabelResponse, error) {
	if err := m.record("generate_label"); err != nil {
		return nil, err
	}
	if m.OnGenerateLabel != nil {
		return m.OnGenerateLabel(ctx, token, shipmentIDs)
	}
	return &LabelResponse{LabelCreated: 1, LabelURL: "https://mock.example/labels/" + uuid.New().String() + ".pdf"}, nil
}

// PrintInvoice returns a mock invoice link.
func (m *MockAPIClient) PrintInvoice(ctx context.Context, token string, orderIDs []int64) (*InvoiceResponse, error) {
	if err := m.record("print_invoice"); err != nil {
		return nil, err
	}
	if m.OnPrintInvoice != nil {
		return m.OnPrintInvoice(ctx, token, orderIDs)
	}
	return &InvoiceResponse{IsInvoiceCreated: true, InvoiceURL: "https://mock.example/invoices/" + uuid.New().String() + ".pdf"}, nil
}

// GenerateManifest returns a mock manifest link.
func (m *MockAPIClient) GenerateManifest(ctx context.Context, token string, shipmentIDs []int64) (*ManifestResponse, error) {
	if err := m.record("generate_manifest"); err != nil {
		return nil, err
	}
	if m.OnGenerateManifest != nil {
		return m.OnGenerateManifest(ctx, token, shipmentIDs)
	}
	return &ManifestResponse{Status: 1, ManifestURL: "https://mock.example/manifests/" + uuid.New().String() + ".pdf"}, nil
}

// Track returns a mock in-transit tracking snapshot.
func (m *MockAPIClient) Track(ctx context.Context, token, awb string) (*TrackResponse, error) {
	if err := m.record("track"); err != nil {
		return nil, err
	}
	if m.OnTrack != nil {
		return m.OnTrack(ctx, token, awb)
	}

	resp := &TrackResponse{}
	resp.TrackingData.TrackStatus = 1
	resp.TrackingData.ShipmentStatus = 18
	resp.TrackingData.ETD = time.Now().AddDate(0, 0, 2).Format("2006-01-02 15:04:05")
	resp.TrackingData.ShipmentTrack = []ShipmentTrack{{
		AWBCode:       awb,
		CurrentStatus: "In Transit",
		CourierName:   "Mock Express",
		Origin:        "Mumbai",
		Destination:   "Bengaluru",
		EDD:           resp.TrackingData.ETD,
	}}
	resp.TrackingData.ShipmentTrackActivities = []TrackActivity{
		{Date: time.Now().Format("2006-01-02 15:04:05"), Status: "IT", Activity: "Shipment in transit", Location: "Mumbai Hub"},
	}
	return resp, nil
}

// CancelOrders acknowledges a mock cancellation.
func (m *MockAPIClient) CancelOrders(ctx context.Context, token string, orderIDs []int64) (*CancelResponse, error) {
	if err := m.record("cancel_orders"); err != nil {
		return nil, err
	}
	if m.OnCancelOrders != nil {
		return m.OnCancelOrders(ctx, token, orderIDs)
	}
	return &CancelResponse{Status: 200, Message: "Order cancelled successfully"}, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
