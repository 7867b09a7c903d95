// Package shiprocket provides the integration with the Shiprocket carrier API:
// an authenticated client with token lifecycle and estimate caching, the
// shipment creation pipeline, and the tracking pull path.
package shiprocket

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/parceldesk/shipbridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// The carrier keeps tokens valid for ten days. Refreshing at eight leaves
	// a two-day margin before the remote side starts rejecting calls.
	tokenLifetime = 8 * 24 * time.Hour

	// A token within this margin of expiry is treated as already expired.
	tokenSafetyMargin = 60 * time.Second
)

// Config holds Shiprocket client configuration.
type Config struct {
	Email          string
	Password       string
	BaseURL        string
	PickupLocation string
	Preference     carrier.Preference
	CacheSize      int
	CacheTTL       time.Duration
	Timeout        time.Duration
	UseMock        bool
}

// Client is the authenticated Shiprocket client. It is constructed once by the
// host process and shared: it owns the HTTP connection pool, the cached bearer
// token, and the bounded serviceability cache. All methods are safe for
// concurrent use.
type Client struct {
	config Config
	api    APIClient
	logger *otelzap.Logger

	tokenMu     sync.RWMutex
	token       string
	tokenExpiry time.Time
	refreshes   singleflight.Group

	estimates *estimateCache
	docSink   DocumentSink

	now func() time.Time
}

// New creates a new Shiprocket client. If cfg.UseMock is true it uses a mock
// API client; otherwise the real HTTP client.
func New(cfg Config, logger *otelzap.Logger) *Client {
	var api APIClient
	if cfg.UseMock {
		api = NewMockAPIClient()
	} else {
		api = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	}
	return NewWithAPIClient(cfg, api, logger)
}

// NewWithAPIClient creates a client with a custom API client. Useful for
// injecting mocks in tests.
func NewWithAPIClient(cfg Config, api APIClient, logger *otelzap.Logger) *Client {
	if cfg.Preference == "" {
		cfg.Preference = carrier.PreferCheapest
	}
	return &Client{
		config:    cfg,
		api:       api,
		logger:    logger,
		estimates: newEstimateCache(cfg.CacheSize, cfg.CacheTTL),
		now:       time.Now,
	}
}

// IsTokenValid reports whether the cached token is still usable without a
// refresh. Non-blocking.
func (c *Client) IsTokenValid() bool {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token != "" && c.now().Before(c.tokenExpiry.Add(-tokenSafetyMargin))
}

// acquireToken returns a non-expired bearer token, performing a login exchange
// if needed. Concurrent callers observing an expired token wait on the same
// in-flight refresh rather than starting their own.
func (c *Client) acquireToken(ctx context.Context) (string, error) {
	if c.IsTokenValid() {
		c.tokenMu.RLock()
		defer c.tokenMu.RUnlock()
		return c.token, nil
	}
	return c.refresh(ctx)
}

// ForceRefresh unconditionally performs a fresh login exchange. A refresh
// already in flight is joined, not duplicated.
func (c *Client) ForceRefresh(ctx context.Context) error {
	_, err := c.refresh(ctx)
	return err
}

// refresh coalesces concurrent login exchanges into a single network call.
// On failure the previous token, if any, is left untouched so a request using
// a still-valid token is not disrupted.
func (c *Client) refresh(ctx context.Context) (string, error) {
	v, err, _ := c.refreshes.Do("login", func() (interface{}, error) {
		if c.config.Email == "" || c.config.Password == "" {
			return nil, carrier.NewError(carrier.KindMisconfigured, "login", "carrier credentials are not configured")
		}

		resp, err := c.api.Login(ctx, &LoginRequest{Email: c.config.Email, Password: c.config.Password})
		if err != nil {
			if carrier.IsKind(err, carrier.KindUnauthorized) {
				return nil, err
			}
			return nil, carrier.NewError(carrier.KindUnauthorized, "login", "carrier login failed").WithCause(err)
		}

		expiry := c.now().Add(tokenLifetime)
		c.tokenMu.Lock()
		c.token = resp.Token
		c.tokenExpiry = expiry
		c.tokenMu.Unlock()

		c.logger.Info("carrier token refreshed", zap.Time("expires_at", expiry))
		return resp.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// doAuthorized runs fn with a valid token. An authorization-denied response
// triggers exactly one synchronous refresh and retry; a second denial is
// surfaced as fatal so expired credentials cannot cause a retry loop.
func (c *Client) doAuthorized(ctx context.Context, fn func(token string) error) error {
	token, err := c.acquireToken(ctx)
	if err != nil {
		return err
	}

	err = fn(token)
	if err == nil || !carrier.IsKind(err, carrier.KindUnauthorized) {
		return err
	}

	c.logger.Warn("carrier denied authorization, refreshing token and retrying once", zap.Error(err))
	if refreshErr := c.ForceRefresh(ctx); refreshErr != nil {
		return refreshErr
	}

	c.tokenMu.RLock()
	token = c.token
	c.tokenMu.RUnlock()

	err = fn(token)
	if err != nil && carrier.IsKind(err, carrier.KindUnauthorized) {
		return carrier.NewError(carrier.KindUnauthorized, "authorized_call",
			"carrier rejected a freshly refreshed token").WithCause(err)
	}
	return err
}

// CheckServiceability returns the serviceability estimate for a postcode pair,
// consulting the bounded cache first. An unserviceable lane is a valid,
// cacheable outcome.
func (c *Client) CheckServiceability(ctx context.Context, pickupPostcode, deliveryPostcode string, weightKG float64, cod bool) (carrier.Estimate, error) {
	pickup, err := NormalizePostcode("pickup_postcode", pickupPostcode)
	if err != nil {
		return carrier.Estimate{}, err
	}
	delivery, err := NormalizePostcode("delivery_postcode", deliveryPostcode)
	if err != nil {
		return carrier.Estimate{}, err
	}

	key := estimateKey(pickup, delivery, weightKG, cod)
	if est, ok := c.estimates.get(key, c.now()); ok {
		return est, nil
	}

	var resp *ServiceabilityResponse
	err = c.doAuthorized(ctx, func(token string) error {
		var callErr error
		resp, callErr = c.api.CheckServiceability(ctx, token, &ServiceabilityRequest{
			PickupPostcode:   pickup,
			DeliveryPostcode: delivery,
			WeightKG:         weightKG,
			COD:              cod,
		})
		return callErr
	})
	if err != nil {
		return carrier.Estimate{}, err
	}

	est := selectCourier(resp.Data.AvailableCourierCompanies, c.config.Preference)
	c.estimates.put(key, est, c.now())
	return est, nil
}

// PreferredCourier is a thin wrapper over CheckServiceability returning only
// the selected courier's identifier.
func (c *Client) PreferredCourier(ctx context.Context, pickupPostcode, deliveryPostcode string, weightKG float64, cod bool) (int, error) {
	est, err := c.CheckServiceability(ctx, pickupPostcode, deliveryPostcode, weightKG, cod)
	if err != nil {
		return 0, err
	}
	if !est.Serviceable || est.Courier == nil {
		return 0, carrier.NewError(carrier.KindNotFound, "preferred_courier", "no serviceable courier for lane")
	}
	return est.Courier.ID, nil
}

// selectCourier applies the configured preference over the serviceable
// couriers. Sorting is stable so ties keep the carrier's input order.
func selectCourier(companies []CourierCompany, pref carrier.Preference) carrier.Estimate {
	if len(companies) == 0 {
		return carrier.Estimate{Serviceable: false}
	}

	options := make([]carrier.CourierOption, len(companies))
	for i, cc := range companies {
		options[i] = carrier.CourierOption{
			ID:            cc.CourierCompanyID,
			Name:          cc.CourierName,
			Rate:          cc.Rate,
			EstimatedDays: cc.EstimatedDeliveryDays,
			ETD:           cc.ETD,
			IsSurface:     cc.IsSurface,
			CODAvailable:  cc.COD == 1,
		}
	}

	switch pref {
	case carrier.PreferFastest:
		sort.SliceStable(options, func(i, j int) bool {
			return parseDeliveryDays(options[i].EstimatedDays) < parseDeliveryDays(options[j].EstimatedDays)
		})
	default:
		sort.SliceStable(options, func(i, j int) bool {
			return options[i].Rate < options[j].Rate
		})
	}

	selected := options[0]
	return carrier.Estimate{
		Serviceable: true,
		Courier:     &selected,
		Considered:  len(options),
	}
}

// parseDeliveryDays reads the leading integer out of the carrier's free-text
// delivery estimate ("2", "4-5 days"). Unparsable values sort last.
func parseDeliveryDays(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return int(^uint(0) >> 1) // max int, worst case
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}
