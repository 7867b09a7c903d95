package tracking

import (
	"context"
	"encoding/json"

	"github.com/parceldesk/shipbridge/pkg/carrier"
	"github.com/parceldesk/shipbridge/pkg/carrier/shiprocket"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// EventTrackingUpdated is published after every successful push upsert.
const EventTrackingUpdated = "shipment.tracking_updated"

// Puller is the slice of the carrier client the pull path needs.
type Puller interface {
	Track(ctx context.Context, awb string) (*shiprocket.TrackingData, error)
	GenerateDocuments(ctx context.Context, shipmentID, remoteOrderID int64) carrier.Documents
}

// Publisher delivers domain events to downstream subscribers. Best-effort:
// the reconciliation never fails because an event could not be published.
type Publisher interface {
	Publish(ctx context.Context, event string, payload interface{}) error
}

// DocumentSaver patches regenerated document links onto the host order's
// fulfillment metadata.
type DocumentSaver interface {
	SaveDocuments(ctx context.Context, hostOrderID string, docs carrier.Documents) error
}

// TrackingUpdated is the payload of EventTrackingUpdated.
type TrackingUpdated struct {
	Waybill string `json:"waybill"`
	Status  string `json:"status"`
}

// Service reconciles push notifications and on-demand pulls into the canonical
// per-waybill tracking record.
type Service struct {
	store  Store
	pull   Puller
	events Publisher
	docs   DocumentSaver
	logger *otelzap.Logger
}

// New creates a reconciliation service. events and docs may be nil; both
// degrade to no-ops.
func New(store Store, pull Puller, events Publisher, docs DocumentSaver, logger *otelzap.Logger) *Service {
	return &Service{store: store, pull: pull, events: events, docs: docs, logger: logger}
}

// Get returns the canonical record for a waybill.
func (s *Service) Get(waybill string) (*Record, bool) {
	return s.store.Get(waybill)
}

// Upsert merges the supplied fields into the record for a waybill, creating
// it on first sighting.
func (s *Service) Upsert(waybill string, upd Update) *Record {
	return s.store.Upsert(waybill, upd)
}

// RecordShipment seeds the tracking record for a freshly created shipment so
// the waybill is queryable before the first carrier scan arrives.
func (s *Service) RecordShipment(shipment *carrier.Shipment, hostOrderID string) error {
	if shipment == nil || shipment.Waybill == "" {
		return carrier.NewError(carrier.KindInvalidData, "tracking.record_shipment", "shipment has no waybill")
	}
	const code = 1 // AWB assigned
	label, _ := LabelForCode(code)
	upd := Update{
		ExternalOrderID:   strPtr(shipment.ExternalOrderID),
		CarrierOrderID:    int64Ptr(shipment.OrderID),
		HostOrderID:       strPtr(hostOrderID),
		ShipmentID:        int64Ptr(shipment.ShipmentID),
		CourierName:       strPtr(shipment.CourierName),
		CurrentStatus:     strPtr(label),
		CurrentStatusCode: intPtr(code),
	}
	if !shipment.CreatedAt.IsZero() {
		t := shipment.CreatedAt
		upd.AWBAssignedAt = &t
	}
	s.store.Upsert(shipment.Waybill, upd)
	return nil
}

// ProcessPush applies one inbound push notification. The transport layer has
// already authenticated the caller; here the payload is normalized, merged,
// and a domain event is emitted best-effort.
func (s *Service) ProcessPush(ctx context.Context, raw []byte) (*Record, error) {
	var p WebhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, carrier.NewError(carrier.KindInvalidData, "webhook", "malformed push payload").WithCause(err)
	}
	awb := string(p.AWB)
	if awb == "" {
		return nil, carrier.NewError(carrier.KindInvalidData, "webhook", "push payload has no waybill")
	}

	upd := Update{RawPayload: json.RawMessage(raw)}

	if p.CurrentStatus != "" {
		upd.CurrentStatus = strPtr(NormalizeStatus(string(p.CurrentStatus)))
	}
	if p.CurrentStatusID != 0 {
		upd.CurrentStatusCode = intPtr(p.CurrentStatusID)
	}
	if p.ShipmentStatus != "" {
		upd.ShipmentStatus = strPtr(NormalizeStatus(string(p.ShipmentStatus)))
	}
	if p.ShipmentStatusID != 0 {
		upd.ShipmentStatusCode = intPtr(p.ShipmentStatusID)
	}
	if p.CourierName != "" {
		upd.CourierName = strPtr(p.CourierName)
	}
	if t := ParseCarrierTime(p.CurrentTimestamp); t != nil {
		upd.CurrentTimestamp = t
	}
	if t := ParseCarrierTime(p.ETD); t != nil {
		upd.EstimatedDelivery = t
	}
	if p.SROrderID != 0 {
		upd.CarrierOrderID = int64Ptr(p.SROrderID)
	}
	if extID := string(p.OrderID); extID != "" {
		upd.ExternalOrderID = strPtr(extID)
		// Link back to the originating host order, best-effort: an
		// unresolvable link still stores the record, just unlinked.
		if hostID := StripOrderSuffix(extID); hostID != "" {
			upd.HostOrderID = strPtr(hostID)
		}
	}
	if p.PODStatus != "" {
		upd.PODStatus = strPtr(p.PODStatus)
	}
	if p.POD != "" {
		upd.POD = strPtr(p.POD)
	}
	if bool(p.IsReturn) {
		upd.IsReturn = boolPtr(true)
	}
	if p.Scans != nil {
		upd.Scans = convertWebhookScans(p.Scans)
	}

	rec := s.store.Upsert(awb, upd)
	s.publishUpdated(ctx, rec)
	return rec, nil
}

// Sync performs an on-demand pull of the current tracking snapshot and merges
// it into the record. When regenerateDocs is set and a remote shipment id is
// known, shipping documents are regenerated and stored on the host order;
// a partial failure there never fails the tracking refresh itself.
func (s *Service) Sync(ctx context.Context, waybill string, regenerateDocs bool) (*Record, error) {
	data, err := s.pull.Track(ctx, waybill)
	if err != nil {
		return nil, err
	}

	upd := Update{}
	if raw, marshalErr := json.Marshal(data); marshalErr == nil {
		upd.RawPayload = raw
	}
	if data.TrackStatus != 0 {
		upd.CurrentStatusCode = intPtr(data.TrackStatus)
	}
	if data.ShipmentStatus != 0 {
		upd.ShipmentStatusCode = intPtr(data.ShipmentStatus)
		if label, ok := LabelForCode(data.ShipmentStatus); ok {
			upd.ShipmentStatus = strPtr(label)
		}
	}
	if t := ParseCarrierTime(data.ETD); t != nil {
		upd.EstimatedDelivery = t
	}

	if len(data.ShipmentTrack) > 0 {
		head := data.ShipmentTrack[0]
		if head.CurrentStatus != "" {
			upd.CurrentStatus = strPtr(NormalizeStatus(head.CurrentStatus))
		}
		if head.CourierName != "" {
			upd.CourierName = strPtr(head.CourierName)
		}
		if head.OrderID != 0 {
			upd.CarrierOrderID = int64Ptr(head.OrderID)
		}
		if head.ShipmentID != 0 {
			upd.ShipmentID = int64Ptr(head.ShipmentID)
		}
		if head.PODStatus != "" {
			upd.PODStatus = strPtr(head.PODStatus)
		}
		if head.POD != "" {
			upd.POD = strPtr(head.POD)
		}
		if t := ParseCarrierTime(head.EDD); t != nil && upd.EstimatedDelivery == nil {
			upd.EstimatedDelivery = t
		}
	}
	if data.ShipmentTrackActivities != nil {
		upd.Scans = convertActivities(data.ShipmentTrackActivities)
	}

	rec := s.store.Upsert(waybill, upd)

	if regenerateDocs && rec.ShipmentID != 0 {
		docs := s.pull.GenerateDocuments(ctx, rec.ShipmentID, rec.CarrierOrderID)
		if s.docs != nil && rec.HostOrderID != "" {
			if err := s.docs.SaveDocuments(ctx, rec.HostOrderID, docs); err != nil {
				s.logger.Warn("failed to store regenerated documents",
					zap.String("waybill", waybill), zap.Error(err))
			}
		}
	}

	return rec, nil
}

// publishUpdated emits the tracking-updated event. Failures are logged and
// swallowed so the webhook acknowledgment is never blocked on downstream
// delivery.
func (s *Service) publishUpdated(ctx context.Context, rec *Record) {
	if s.events == nil {
		return
	}
	payload := TrackingUpdated{Waybill: rec.Waybill, Status: rec.CurrentStatus}
	if err := s.events.Publish(ctx, EventTrackingUpdated, payload); err != nil {
		s.logger.Warn("failed to publish tracking update event",
			zap.String("waybill", rec.Waybill), zap.Error(err))
	}
}

func convertWebhookScans(in []WebhookScan) []ScanEvent {
	out := make([]ScanEvent, 0, len(in))
	for _, scan := range in {
		ev := ScanEvent{
			Status:   NormalizeStatus(string(scan.Status)),
			Activity: scan.Activity,
			Location: scan.Location,
		}
		if t := ParseCarrierTime(scan.Date); t != nil {
			ev.Date = *t
		}
		out = append(out, ev)
	}
	return out
}

func convertActivities(in []shiprocket.TrackActivity) []ScanEvent {
	out := make([]ScanEvent, 0, len(in))
	for _, act := range in {
		ev := ScanEvent{
			Status:   NormalizeStatus(act.Status),
			Activity: act.Activity,
			Location: act.Location,
		}
		if t := ParseCarrierTime(act.Date); t != nil {
			ev.Date = *t
		}
		out = append(out, ev)
	}
	return out
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }
func boolPtr(b bool) *bool    { return &b }
