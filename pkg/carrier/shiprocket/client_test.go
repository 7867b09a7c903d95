package shiprocket_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/parceldesk/shipbridge/pkg/carrier"
	"github.com/parceldesk/shipbridge/pkg/carrier/shiprocket"
)

func newTestClient(mockAPI *shiprocket.MockAPIClient) *shiprocket.Client {
	logger := otelzap.New(zap.NewNop())
	return shiprocket.NewWithAPIClient(
		shiprocket.Config{
			Email:          "ops@example.com",
			Password:       "secret",
			PickupLocation: "Primary",
		},
		mockAPI,
		logger,
	)
}

func TestClient_TokenRefreshCoalesced(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	mockAPI.SimulateLatency = 20 * time.Millisecond
	client := newTestClient(mockAPI)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.CheckServiceability(ctx, "110001", "560001", 1.0, false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Ten concurrent callers hit an empty token; exactly one login exchange
	// should have happened.
	assert.Equal(t, 1, mockAPI.CallCount("login"))
}

func TestClient_TokenReused(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	client := newTestClient(mockAPI)
	ctx := context.Background()

	_, err := client.CheckServiceability(ctx, "110001", "560001", 1.0, false)
	require.NoError(t, err)
	_, err = client.CheckServiceability(ctx, "110001", "400001", 1.0, false)
	require.NoError(t, err)

	assert.Equal(t, 1, mockAPI.CallCount("login"))
	assert.True(t, client.IsTokenValid())
}

func TestClient_MissingCredentials(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	logger := otelzap.New(zap.NewNop())
	client := shiprocket.NewWithAPIClient(shiprocket.Config{}, mockAPI, logger)

	_, err := client.CheckServiceability(context.Background(), "110001", "560001", 1.0, false)

	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindMisconfigured))
	assert.Equal(t, 0, mockAPI.CallCount("login"))
}

func TestClient_RetriesOnceAfterDeniedToken(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	denials := 0
	mockAPI.OnTrack = func(ctx context.Context, token, awb string) (*shiprocket.TrackResponse, error) {
		if denials == 0 {
			denials++
			return nil, carrier.FromStatusCode("track", 401, "token expired")
		}
		resp := &shiprocket.TrackResponse{}
		resp.TrackingData.TrackStatus = 1
		resp.TrackingData.ShipmentStatus = 18
		resp.TrackingData.ShipmentTrack = []shiprocket.ShipmentTrack{{AWBCode: awb, CurrentStatus: "In Transit"}}
		return resp, nil
	}
	client := newTestClient(mockAPI)

	data, err := client.Track(context.Background(), "AWB123")

	require.NoError(t, err)
	assert.Equal(t, 18, data.ShipmentStatus)
	assert.Equal(t, 2, mockAPI.CallCount("track"))
	// Initial login plus the forced refresh after the denial.
	assert.Equal(t, 2, mockAPI.CallCount("login"))
}

func TestClient_SecondDenialIsFatal(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	mockAPI.OnTrack = func(ctx context.Context, token, awb string) (*shiprocket.TrackResponse, error) {
		return nil, carrier.FromStatusCode("track", 401, "token expired")
	}
	client := newTestClient(mockAPI)

	_, err := client.Track(context.Background(), "AWB123")

	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindUnauthorized))
	// Exactly one retry, then give up. No retry loop.
	assert.Equal(t, 2, mockAPI.CallCount("track"))
}

func TestCheckServiceability_CachesResult(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	client := newTestClient(mockAPI)
	ctx := context.Background()

	first, err := client.CheckServiceability(ctx, "110001", "560001", 1.5, false)
	require.NoError(t, err)
	second, err := client.CheckServiceability(ctx, "110001", "560001", 1.5, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, mockAPI.CallCount("serviceability"))

	// A different weight is a different lane quote.
	_, err = client.CheckServiceability(ctx, "110001", "560001", 2.5, false)
	require.NoError(t, err)
	assert.Equal(t, 2, mockAPI.CallCount("serviceability"))
}

func TestCheckServiceability_PrefersCheapest(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	client := newTestClient(mockAPI)

	est, err := client.CheckServiceability(context.Background(), "110001", "560001", 1.0, false)

	require.NoError(t, err)
	require.True(t, est.Serviceable)
	require.NotNil(t, est.Courier)
	assert.Equal(t, 34, est.Courier.ID) // Mock Surface, rate 42
	assert.Equal(t, 3, est.Considered)
}

func TestCheckServiceability_PrefersFastest(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	logger := otelzap.New(zap.NewNop())
	client := shiprocket.NewWithAPIClient(shiprocket.Config{
		Email:      "ops@example.com",
		Password:   "secret",
		Preference: carrier.PreferFastest,
	}, mockAPI, logger)

	est, err := client.CheckServiceability(context.Background(), "110001", "560001", 1.0, false)

	require.NoError(t, err)
	require.NotNil(t, est.Courier)
	assert.Equal(t, 55, est.Courier.ID) // Mock Air, 1 day
}

func TestCheckServiceability_UnparsableDaysSortLast(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	mockAPI.OnCheckServiceability = func(ctx context.Context, token string, req *shiprocket.ServiceabilityRequest) (*shiprocket.ServiceabilityResponse, error) {
		resp := &shiprocket.ServiceabilityResponse{Status: 200}
		resp.Data.AvailableCourierCompanies = []shiprocket.CourierCompany{
			{CourierCompanyID: 1, CourierName: "Vague", Rate: 10, EstimatedDeliveryDays: "soon"},
			{CourierCompanyID: 2, CourierName: "Ranged", Rate: 20, EstimatedDeliveryDays: "4-5 days"},
			{CourierCompanyID: 3, CourierName: "Exact", Rate: 30, EstimatedDeliveryDays: "2"},
		}
		return resp, nil
	}
	logger := otelzap.New(zap.NewNop())
	client := shiprocket.NewWithAPIClient(shiprocket.Config{
		Email:      "ops@example.com",
		Password:   "secret",
		Preference: carrier.PreferFastest,
	}, mockAPI, logger)

	est, err := client.CheckServiceability(context.Background(), "110001", "560001", 1.0, false)

	require.NoError(t, err)
	require.NotNil(t, est.Courier)
	assert.Equal(t, 3, est.Courier.ID) // "2" beats "4-5 days"; "soon" sorts last
}

func TestCheckServiceability_UnserviceableLaneIsNotAnError(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	mockAPI.OnCheckServiceability = func(ctx context.Context, token string, req *shiprocket.ServiceabilityRequest) (*shiprocket.ServiceabilityResponse, error) {
		return &shiprocket.ServiceabilityResponse{Status: 200}, nil
	}
	client := newTestClient(mockAPI)
	ctx := context.Background()

	est, err := client.CheckServiceability(ctx, "110001", "999999", 1.0, false)
	require.NoError(t, err)
	assert.False(t, est.Serviceable)
	assert.Nil(t, est.Courier)

	// The unserviceable outcome is cached like any other.
	_, err = client.CheckServiceability(ctx, "110001", "999999", 1.0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, mockAPI.CallCount("serviceability"))
}

func TestCheckServiceability_RejectsBadPostcode(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	client := newTestClient(mockAPI)

	_, err := client.CheckServiceability(context.Background(), "1100", "560001", 1.0, false)

	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindInvalidData))
	assert.Equal(t, 0, mockAPI.CallCount("serviceability"))
	assert.Equal(t, 0, mockAPI.CallCount("login"))
}

func TestForceRefresh(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	client := newTestClient(mockAPI)

	assert.False(t, client.IsTokenValid())
	require.NoError(t, client.ForceRefresh(context.Background()))
	assert.True(t, client.IsTokenValid())
	assert.Equal(t, 1, mockAPI.CallCount("login"))
}

func TestTrack_UnknownWaybill(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	mockAPI.OnTrack = func(ctx context.Context, token, awb string) (*shiprocket.TrackResponse, error) {
		resp := &shiprocket.TrackResponse{}
		resp.TrackingData.Error = "Aww! There is no activity corresponding to this AWB"
		return resp, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.Track(context.Background(), "UNKNOWN")

	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindNotFound))
}

func TestTrack_EmptyWaybill(t *testing.T) {
	mockAPI := shiprocket.NewMockAPIClient()
	client := newTestClient(mockAPI)

	_, err := client.Track(context.Background(), "")

	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindInvalidData))
	assert.Equal(t, 0, mockAPI.CallCount("track"))
}
