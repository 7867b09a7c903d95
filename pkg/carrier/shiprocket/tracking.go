package shiprocket

import (
	"context"

	"github.com/parceldesk/shipbridge/pkg/carrier"
)

// Track fetches the current tracking snapshot for a waybill. A waybill the
// carrier does not know yields KindNotFound; status vocabulary normalization
// is the reconciliation layer's job.
func (c *Client) Track(ctx context.Context, awb string) (*TrackingData, error) {
	if awb == "" {
		return nil, carrier.NewError(carrier.KindInvalidData, "track", "waybill is required")
	}

	var resp *TrackResponse
	err := c.doAuthorized(ctx, func(token string) error {
		var callErr error
		resp, callErr = c.api.Track(ctx, token, awb)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	// The carrier answers 200 with an error string and no rows for unknown
	// waybills rather than a 404.
	if len(resp.TrackingData.ShipmentTrack) == 0 && resp.TrackingData.Error != "" {
		return nil, carrier.NewError(carrier.KindNotFound, "track", resp.TrackingData.Error)
	}

	return &resp.TrackingData, nil
}
