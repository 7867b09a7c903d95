package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parceldesk/shipbridge/pkg/carrier"
)

const basePath = "/v1/external"

// HTTPAPIClient is the production implementation of APIClient.
type HTTPAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
// The single underlying http.Client is shared by every operation so the
// carrier connection pool is reused process-wide.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &HTTPAPIClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login exchanges credentials for a bearer token.
func (c *HTTPAPIClient) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	var result LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", req, &result, "login"); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, carrier.NewError(carrier.KindUnauthorized, "login", "carrier returned empty token")
	}
	return &result, nil
}

// CheckServiceability lists couriers for a postcode pair.
func (c *HTTPAPIClient) CheckServiceability(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error) {
	q := url.Values{}
	q.Set("pickup_postcode", req.PickupPostcode)
	q.Set("delivery_postcode", req.DeliveryPostcode)
	if req.WeightKG > 0 {
		q.Set("weight", strconv.FormatFloat(req.WeightKG, 'f', -1, 64))
	}
	cod := "0"
	if req.COD {
		cod = "1"
	}
	q.Set("cod", cod)

	var result ServiceabilityResponse
	path := "/courier/serviceability/?" + q.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &result, "serviceability"); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateOrder registers an ad-hoc order.
func (c *HTTPAPIClient) CreateOrder(ctx context.Context, token string, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	var result CreateOrderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/orders/create/adhoc", token, req, &result, "create_order"); err != nil {
		return nil, err
	}
	return &result, nil
}

// AssignAWB requests a waybill for a shipment.
func (c *HTTPAPIClient) AssignAWB(ctx context.Context, token string, req *AssignAWBRequest) (*AssignAWBResponse, error) {
	var result AssignAWBResponse
	if err := c.doJSON(ctx, http.MethodPost, "/courier/assign/awb", token, req, &result, "assign_awb"); err != nil {
		return nil, err
	}
	return &result, nil
}

// GeneratePickup schedules a pickup for shipments.
func (c *HTTPAPIClient) GeneratePickup(ctx context.Context, token string, shipmentIDs []int64) (*PickupResponse, error) {
	body := map[string][]int64{"shipment_id": shipmentIDs}
	var result PickupResponse
	if err := c.doJSON(ctx, http.MethodPost, "/courier/generate/pickup", token, body, &result, "generate_pickup"); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateLabel produces a shipping label.
func (c *HTTPAPIClient) GenerateLabel(ctx context.Context, token string, shipmentIDs []int64) (*LabelResponse, error) {
	body := map[string][]int64{"shipment_id": shipmentIDs}
	var result LabelResponse
	if err := c.doJSON(ctx, http.MethodPost, "/courier/generate/label", token, body, &result, "generate_label"); err != nil {
		return nil, err
	}
	return &result, nil
}

// PrintInvoice produces an invoice for orders.
func (c *HTTPAPIClient) PrintInvoice(ctx context.Context, token string, orderIDs []int64) (*InvoiceResponse, error) {
	body := map[string][]int64{"ids": orderIDs}
	var result InvoiceResponse
	if err := c.doJSON(ctx, http.MethodPost, "/orders/print/invoice", token, body, &result, "print_invoice"); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateManifest produces a manifest for shipments.
func (c *HTTPAPIClient) GenerateManifest(ctx context.Context, token string, shipmentIDs []int64) (*ManifestResponse, error) {
	body := map[string][]int64{"shipment_id": shipmentIDs}
	var result ManifestResponse
	if err := c.doJSON(ctx, http.MethodPost, "/manifests/generate", token, body, &result, "generate_manifest"); err != nil {
		return nil, err
	}
	return &result, nil
}

// Track fetches the current tracking snapshot for a waybill.
func (c *HTTPAPIClient) Track(ctx context.Context, token, awb string) (*TrackResponse, error) {
	var result TrackResponse
	path := "/courier/track/awb/" + url.PathEscape(awb)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &result, "track"); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelOrders cancels remote orders.
func (c *HTTPAPIClient) CancelOrders(ctx context.Context, token string, orderIDs []int64) (*CancelResponse, error) {
	body := map[string][]int64{"ids": orderIDs}
	var result CancelResponse
	if err := c.doJSON(ctx, http.MethodPost, "/orders/cancel", token, body, &result, "cancel_orders"); err != nil {
		return nil, err
	}
	return &result, nil
}

// doJSON performs a request against the carrier and decodes the JSON response.
// Connectivity failures and timeouts surface as KindUnavailable so callers
// never mistake them for validation or authorization problems.
func (c *HTTPAPIClient) doJSON(ctx context.Context, method, path, token string, body, out interface{}, op string) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+basePath+path, bodyReader)
	if err != nil {
		return fmt.Errorf("new %s request: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "shipbridge/1.0")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return carrier.NewError(carrier.KindUnavailable, op, "carrier unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return parseError(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// apiErrorBody is the carrier's error envelope. Field-level validation errors
// arrive as a map of field name to messages.
type apiErrorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// parseError translates a non-2xx carrier response into a typed error.
// Field-level errors are aggregated into a single human-readable message
// enumerating every failing field.
func parseError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err != nil || (body.Message == "" && len(body.Errors) == 0) {
		return carrier.FromStatusCode(op, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	msg := body.Message
	if len(body.Errors) > 0 {
		fields := make([]string, 0, len(body.Errors))
		for name := range body.Errors {
			fields = append(fields, name)
		}
		sort.Strings(fields)

		parts := make([]string, 0, len(fields))
		for _, name := range fields {
			parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(body.Errors[name], "; ")))
		}
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(parts, ", "))
	}

	return carrier.FromStatusCode(op, resp.StatusCode, msg)
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
