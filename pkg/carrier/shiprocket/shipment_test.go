package shiprocket_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/shipbridge/pkg/carrier"
	"github.com/parceldesk/shipbridge/pkg/carrier/shiprocket"
)

func f64(v float64) *float64 { return &v }

func testOrder() *carrier.Order {
	return &carrier.Order{
		ID:         "ord-42",
		CustomerID: "cust-7",
		Email:      "buyer@example.com",
		Billing: carrier.Address{
			Name:       "A Buyer",
			Line1:      "12 MG Road",
			City:       "New Delhi",
			State:      "Delhi",
			PostalCode: "110001",
			Phone:      "+91 98765 43210",
		},
		Shipping: carrier.Address{
			Name:       "A Buyer",
			Line1:      "4 Residency Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
			Phone:      "9876543210",
		},
		Lines: []carrier.OrderLine{
			{
				ID: "line-a", SKU: "SKU-A", Title: "Widget", Quantity: 1, UnitPrice: 100,
				Variant: &carrier.Variant{WeightGrams: f64(200), LengthCM: f64(10), WidthCM: f64(8), HeightCM: f64(4)},
			},
			{
				ID: "line-b", SKU: "SKU-B", Title: "Gadget", Quantity: 2, UnitPrice: 250,
				Variant: &carrier.Variant{WeightGrams: f64(300), LengthCM: f64(12), WidthCM: f64(6), HeightCM: f64(5)},
			},
		},
		PaymentCOD: true,
	}
}

func TestCreateShipment_MissingDimensionFailsBeforeNetwork(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	client := newTestClient(mockAPI)

	order := testOrder()
	order.Lines[1].Variant.HeightCM = nil

	_, err := client.CreateShipment(context.Background(), []carrier.FulfillmentItem{
		{LineID: "line-a", Quantity: 1},
		{LineID: "line-b", Quantity: 2},
	}, order)

	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindInvalidData))
	assert.Contains(t, err.Error(), "height")
	assert.Contains(t, err.Error(), "line-b")

	// Validation failed locally; the carrier was never contacted.
	assert.Equal(t, 0, mockAPI.CallCount("login"))
	assert.Equal(t, 0, mockAPI.CallCount("create_order"))
}

func TestCreateShipment_AggregatesPhysicalData(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	var captured *shiprocket.CreateOrderRequest
	mockAPI.OnCreateOrder = func(ctx context.Context, token string, req *shiprocket.CreateOrderRequest) (*shiprocket.CreateOrderResponse, error) {
		captured = req
		return &shiprocket.CreateOrderResponse{OrderID: 9001, ShipmentID: 9002}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.CreateShipment(context.Background(), []carrier.FulfillmentItem{
		{LineID: "line-a", Quantity: 1},
		{LineID: "line-b", Quantity: 2},
	}, testOrder())

	require.NoError(t, err)
	require.NotNil(t, captured)

	// 200 g + 2 x 300 g, in kilograms.
	assert.InDelta(t, 0.8, captured.Weight, 0.0001)
	// Footprint takes the largest single item; height stacks.
	assert.Equal(t, 12.0, captured.Length)
	assert.Equal(t, 8.0, captured.Breadth)
	assert.Equal(t, 14.0, captured.Height)
	assert.InDelta(t, 600.0, captured.SubTotal, 0.0001)

	assert.True(t, strings.HasPrefix(captured.OrderID, "ord-42-"))
	assert.Equal(t, "COD", captured.PaymentMethod)
	assert.Equal(t, "9876543210", captured.BillingPhone)
	assert.Equal(t, "110001", captured.BillingPincode)
	assert.Equal(t, "India", captured.BillingCountry)
	require.Len(t, captured.OrderItems, 2)
	assert.Equal(t, 2, captured.OrderItems[1].Units)
	assert.Equal(t, 250, captured.OrderItems[1].SellingPrice)
}

func TestCreateShipment_Success(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	client := newTestClient(mockAPI)

	docsCh := make(chan carrier.Documents, 1)
	client.SetDocumentSink(func(_ carrier.Shipment, docs carrier.Documents) {
		docsCh <- docs
	})

	shipment, err := client.CreateShipment(context.Background(), []carrier.FulfillmentItem{
		{LineID: "line-a", Quantity: 1},
	}, testOrder())

	require.NoError(t, err)
	assert.NotEmpty(t, shipment.Waybill)
	assert.Equal(t, "Mock Express", shipment.CourierName)
	assert.NotZero(t, shipment.ShipmentID)
	assert.True(t, strings.HasPrefix(shipment.ExternalOrderID, "ord-42-"))

	select {
	case docs := <-docsCh:
		assert.NotEmpty(t, docs.LabelURL)
		assert.NotEmpty(t, docs.InvoiceURL)
		assert.NotEmpty(t, docs.ManifestURL)
	case <-time.After(2 * time.Second):
		t.Fatal("document sink was never invoked")
	}

	assert.Equal(t, 1, mockAPI.CallCount("generate_pickup"))
	assert.Equal(t, 1, mockAPI.CallCount("generate_label"))
	assert.Equal(t, 1, mockAPI.CallCount("print_invoice"))
	assert.Equal(t, 1, mockAPI.CallCount("generate_manifest"))
}

func TestCreateShipment_WaybillRejectionCancelsRemoteOrder(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	mockAPI.OnAssignAWB = func(ctx context.Context, token string, req *shiprocket.AssignAWBRequest) (*shiprocket.AssignAWBResponse, error) {
		return &shiprocket.AssignAWBResponse{AWBAssignStatus: 0}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.CreateShipment(context.Background(), []carrier.FulfillmentItem{
		{LineID: "line-a", Quantity: 1},
	}, testOrder())

	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindUnavailable))
	assert.Contains(t, err.Error(), "no courier available")

	// The orphaned remote order was cancelled to compensate.
	assert.Equal(t, 1, mockAPI.CallCount("cancel_orders"))
}

func TestCreateShipment_NoItems(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	client := newTestClient(mockAPI)

	_, err := client.CreateShipment(context.Background(), nil, testOrder())

	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindInvalidData))
}

func TestCreateShipment_UnknownLine(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	client := newTestClient(mockAPI)

	_, err := client.CreateShipment(context.Background(), []carrier.FulfillmentItem{
		{LineID: "line-zz", Quantity: 1},
	}, testOrder())

	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindInvalidData))
	assert.Contains(t, err.Error(), "line-zz")
}

func TestCancelShipment_AlreadyCancelledIsSuccess(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	mockAPI.OnCancelOrders = func(ctx context.Context, token string, orderIDs []int64) (*shiprocket.CancelResponse, error) {
		return nil, carrier.NewError(carrier.KindInvalidData, "cancel_orders", "This order cannot be cancelled")
	}
	client := newTestClient(mockAPI)

	err := client.CancelShipment(context.Background(), 9001)

	assert.NoError(t, err)
}

func TestGenerateDocuments_PartialFailure(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	mockAPI.OnGenerateLabel = func(ctx context.Context, token string, shipmentIDs []int64) (*shiprocket.LabelResponse, error) {
		return nil, carrier.FromStatusCode("generate_label", 500, "label service down")
	}
	client := newTestClient(mockAPI)

	docs := client.GenerateDocuments(context.Background(), 9002, 9001)

	// One failing document does not block the others.
	assert.Empty(t, docs.LabelURL)
	assert.NotEmpty(t, docs.InvoiceURL)
	assert.NotEmpty(t, docs.ManifestURL)
}
