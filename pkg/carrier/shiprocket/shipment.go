package shiprocket

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/parceldesk/shipbridge/pkg/carrier"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DocumentSink receives shipping documents generated in the background after
// a shipment is created. Optional; nil drops the links.
type DocumentSink func(shipment carrier.Shipment, docs carrier.Documents)

// SetDocumentSink registers the callback invoked with document links once
// background generation finishes.
func (c *Client) SetDocumentSink(sink DocumentSink) {
	c.docSink = sink
}

// shipmentInput is the validated, aggregated physical data of a shipment.
type shipmentInput struct {
	items    []OrderItem
	subTotal float64
	weightKG float64
	lengthCM float64
	breadthCM float64
	heightCM float64
}

// CreateShipment turns a fulfillment request plus its originating order into a
// carrier shipment with an assigned waybill. Requests with incomplete physical
// data are rejected before any network call: shipping with guessed dimensions
// incurs real volumetric-weight penalties from the carrier.
func (c *Client) CreateShipment(ctx context.Context, items []carrier.FulfillmentItem, order *carrier.Order) (*carrier.Shipment, error) {
	if len(items) == 0 {
		return nil, carrier.NewError(carrier.KindInvalidData, "create_shipment", "no fulfillment items")
	}

	input, err := aggregateItems(items, order)
	if err != nil {
		return nil, err
	}

	req, err := c.buildOrderPayload(input, order)
	if err != nil {
		return nil, err
	}

	var created *CreateOrderResponse
	err = c.doAuthorized(ctx, func(token string) error {
		var callErr error
		created, callErr = c.api.CreateOrder(ctx, token, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if created.ShipmentID == 0 {
		return nil, carrier.NewError(carrier.KindUnavailable, "create_shipment",
			fmt.Sprintf("carrier accepted order %q but returned no shipment id", req.OrderID))
	}

	// Courier preference is best-effort: any failure falls back to letting the
	// carrier auto-assign rather than aborting the shipment.
	courierID := 0
	if id, prefErr := c.PreferredCourier(ctx, order.Billing.PostalCode, order.Shipping.PostalCode, input.weightKG, order.PaymentCOD); prefErr == nil {
		courierID = id
	} else {
		c.logger.Warn("courier preference resolution failed, falling back to auto assignment",
			zap.String("order_id", req.OrderID), zap.Error(prefErr))
	}

	var assigned *AssignAWBResponse
	err = c.doAuthorized(ctx, func(token string) error {
		var callErr error
		assigned, callErr = c.api.AssignAWB(ctx, token, &AssignAWBRequest{
			ShipmentID: created.ShipmentID,
			CourierID:  courierID,
		})
		return callErr
	})
	if err == nil && (assigned.AWBAssignStatus != 1 || assigned.Response.Data.AWBCode == "") {
		err = carrier.NewError(carrier.KindUnavailable, "assign_awb", "carrier rejected waybill assignment")
	}
	if err != nil {
		// Compensate: the remote order exists but cannot ship. Cancellation is
		// best-effort; a failure here is logged, not surfaced.
		if cancelErr := c.CancelShipment(ctx, created.OrderID); cancelErr != nil {
			c.logger.Error("failed to cancel remote order after waybill rejection",
				zap.Int64("remote_order_id", created.OrderID), zap.Error(cancelErr))
		}
		return nil, carrier.NewError(carrier.KindUnavailable, "assign_awb",
			"no courier available for shipment").WithCause(err)
	}

	shipment := carrier.Shipment{
		OrderID:         created.OrderID,
		ShipmentID:      created.ShipmentID,
		ExternalOrderID: req.OrderID,
		Waybill:         assigned.Response.Data.AWBCode,
		CourierID:       assigned.Response.Data.CourierCompanyID,
		CourierName:     assigned.Response.Data.CourierName,
		CreatedAt:       c.now(),
	}

	c.logger.Info("shipment created",
		zap.String("waybill", shipment.Waybill),
		zap.String("courier", shipment.CourierName),
		zap.Int64("shipment_id", shipment.ShipmentID))

	// Pickup and documents are follow-ups, not part of the creation contract.
	// Documents can be regenerated later through tracking reconciliation.
	go c.finishShipment(shipment)

	return &shipment, nil
}

// finishShipment runs the non-fatal follow-ups to a successful creation:
// pickup scheduling and document generation. Runs detached from the request
// that created the shipment.
func (c *Client) finishShipment(shipment carrier.Shipment) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	err := c.doAuthorized(ctx, func(token string) error {
		_, callErr := c.api.GeneratePickup(ctx, token, []int64{shipment.ShipmentID})
		return callErr
	})
	if err != nil {
		c.logger.Warn("pickup request failed", zap.String("waybill", shipment.Waybill), zap.Error(err))
	}

	docs := c.GenerateDocuments(ctx, shipment.ShipmentID, shipment.OrderID)
	if c.docSink != nil {
		c.docSink(shipment, docs)
	}
}

// GenerateDocuments requests label, invoice, and manifest generation. Each
// request is independent: one failing does not block the others, and a partial
// result is still returned.
func (c *Client) GenerateDocuments(ctx context.Context, shipmentID, remoteOrderID int64) carrier.Documents {
	var docs carrier.Documents

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := c.doAuthorized(ctx, func(token string) error {
			resp, callErr := c.api.GenerateLabel(ctx, token, []int64{shipmentID})
			if callErr != nil {
				return callErr
			}
			docs.LabelURL = resp.LabelURL
			return nil
		})
		if err != nil {
			c.logger.Warn("label generation failed", zap.Int64("shipment_id", shipmentID), zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		err := c.doAuthorized(ctx, func(token string) error {
			resp, callErr := c.api.PrintInvoice(ctx, token, []int64{remoteOrderID})
			if callErr != nil {
				return callErr
			}
			docs.InvoiceURL = resp.InvoiceURL
			return nil
		})
		if err != nil {
			c.logger.Warn("invoice generation failed", zap.Int64("remote_order_id", remoteOrderID), zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		err := c.doAuthorized(ctx, func(token string) error {
			resp, callErr := c.api.GenerateManifest(ctx, token, []int64{shipmentID})
			if callErr != nil {
				return callErr
			}
			docs.ManifestURL = resp.ManifestURL
			return nil
		})
		if err != nil {
			c.logger.Warn("manifest generation failed", zap.Int64("shipment_id", shipmentID), zap.Error(err))
		}
		return nil
	})

	g.Wait()
	return docs
}

// CancelShipment cancels a remote order. Idempotent: a carrier response
// saying the order is already cancelled, or can no longer be cancelled, is
// success.
func (c *Client) CancelShipment(ctx context.Context, remoteOrderID int64) error {
	err := c.doAuthorized(ctx, func(token string) error {
		_, callErr := c.api.CancelOrders(ctx, token, []int64{remoteOrderID})
		return callErr
	})
	if err != nil && isAlreadyCancelled(err) {
		return nil
	}
	return err
}

func isAlreadyCancelled(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already cancel") || strings.Contains(msg, "cannot cancel") ||
		strings.Contains(msg, "cannot be cancel")
}

// aggregateItems resolves each fulfillment item against the order and computes
// the shipment's aggregate physical metrics. Missing lines, variants, or any
// physical attribute fail the whole request with the offending field named.
func aggregateItems(items []carrier.FulfillmentItem, order *carrier.Order) (*shipmentInput, error) {
	lines := make(map[string]*carrier.OrderLine, len(order.Lines))
	for i := range order.Lines {
		lines[order.Lines[i].ID] = &order.Lines[i]
	}

	input := &shipmentInput{}
	for _, item := range items {
		line, ok := lines[item.LineID]
		if !ok {
			return nil, carrier.NewError(carrier.KindInvalidData, "create_shipment",
				fmt.Sprintf("fulfillment item %q has no matching order line", item.LineID))
		}
		if line.Variant == nil {
			return nil, carrier.NewError(carrier.KindInvalidData, "create_shipment",
				fmt.Sprintf("order line %q (%s) has no variant data", line.ID, line.SKU))
		}

		v := line.Variant
		for _, dim := range []struct {
			name  string
			value *float64
		}{
			{"weight", v.WeightGrams},
			{"length", v.LengthCM},
			{"width", v.WidthCM},
			{"height", v.HeightCM},
		} {
			if dim.value == nil || *dim.value <= 0 {
				return nil, carrier.NewError(carrier.KindInvalidData, "create_shipment",
					fmt.Sprintf("order line %q (%s) is missing %s; refusing to ship with guessed dimensions",
						line.ID, line.SKU, dim.name))
			}
		}

		qty := item.Quantity
		if qty <= 0 {
			qty = line.Quantity
		}

		input.weightKG += (*v.WeightGrams / 1000.0) * float64(qty)
		input.lengthCM = math.Max(input.lengthCM, *v.LengthCM)
		input.breadthCM = math.Max(input.breadthCM, *v.WidthCM)
		input.heightCM += *v.HeightCM * float64(qty)
		input.subTotal += line.UnitPrice * float64(qty)

		input.items = append(input.items, OrderItem{
			Name:         line.Title,
			SKU:          line.SKU,
			Units:        qty,
			SellingPrice: int(math.Round(line.UnitPrice)),
			HSN:          v.HSNCode,
			Tax:          line.TaxCode,
		})
	}

	return input, nil
}

// buildOrderPayload assembles the carrier's ad-hoc order request from the host
// order, enforcing the carrier's address requirements. The external order id
// combines the host order id with the creation timestamp so a retried
// submission cannot collide with an earlier attempt on the remote side.
func (c *Client) buildOrderPayload(input *shipmentInput, order *carrier.Order) (*CreateOrderRequest, error) {
	billing := order.Billing
	shipping := order.Shipping

	if err := RequireFields("billing address", map[string]string{
		"name":        billing.Name,
		"address":     billing.Line1,
		"city":        billing.City,
		"state":       billing.State,
		"postal_code": billing.PostalCode,
		"phone":       billing.Phone,
	}); err != nil {
		return nil, err
	}
	if err := RequireFields("shipping address", map[string]string{
		"name":        shipping.Name,
		"address":     shipping.Line1,
		"city":        shipping.City,
		"state":       shipping.State,
		"postal_code": shipping.PostalCode,
		"phone":       shipping.Phone,
	}); err != nil {
		return nil, err
	}

	billingPhone, err := NormalizePhone("billing phone", billing.Phone)
	if err != nil {
		return nil, err
	}
	billingPincode, err := NormalizePostcode("billing postal_code", billing.PostalCode)
	if err != nil {
		return nil, err
	}
	shippingPhone, err := NormalizePhone("shipping phone", shipping.Phone)
	if err != nil {
		return nil, err
	}
	shippingPincode, err := NormalizePostcode("shipping postal_code", shipping.PostalCode)
	if err != nil {
		return nil, err
	}

	payment := "Prepaid"
	if order.PaymentCOD {
		payment = "COD"
	}

	now := c.now()
	req := &CreateOrderRequest{
		OrderID:        fmt.Sprintf("%s-%d", order.ID, now.Unix()),
		OrderDate:      now.Format("2006-01-02 15:04"),
		PickupLocation: c.config.PickupLocation,

		BillingCustomerName: billing.Name,
		BillingAddress:      billing.Line1,
		BillingAddress2:     billing.Line2,
		BillingCity:         billing.City,
		BillingPincode:      billingPincode,
		BillingState:        billing.State,
		BillingCountry:      defaultCountry(billing.CountryCode),
		BillingEmail:        order.Email,
		BillingPhone:        billingPhone,

		ShippingIsBilling:    false,
		ShippingCustomerName: shipping.Name,
		ShippingAddress:      shipping.Line1,
		ShippingAddress2:     shipping.Line2,
		ShippingCity:         shipping.City,
		ShippingPincode:      shippingPincode,
		ShippingState:        shipping.State,
		ShippingCountry:      defaultCountry(shipping.CountryCode),
		ShippingEmail:        order.Email,
		ShippingPhone:        shippingPhone,

		OrderItems:    input.items,
		PaymentMethod: payment,
		SubTotal:      input.subTotal,

		Length:  input.lengthCM,
		Breadth: input.breadthCM,
		Height:  input.heightCM,
		Weight:  input.weightKG,
	}
	return req, nil
}

func defaultCountry(code string) string {
	if code == "" {
		return "India"
	}
	return code
}
