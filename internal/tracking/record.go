// Package tracking maintains one canonical tracking record per waybill,
// reconciling the carrier's push notifications and on-demand pulls into a
// single idempotent upsert path.
package tracking

import (
	"encoding/json"
	"sync"
	"time"
)

// ScanEvent is a single timestamped status update in a shipment's history.
type ScanEvent struct {
	Date     time.Time `json:"date"`
	Status   string    `json:"status"`
	Activity string    `json:"activity"`
	Location string    `json:"location"`
}

// Record is the durable view of a shipment's carrier-side lifecycle, keyed by
// waybill. A record is created on first sighting of a waybill and thereafter
// only updated, never replaced.
type Record struct {
	Waybill         string `json:"waybill"`
	ExternalOrderID string `json:"external_order_id"` // composite id sent to the carrier
	CarrierOrderID  int64  `json:"carrier_order_id"`  // carrier-assigned order id
	HostOrderID     string `json:"host_order_id"`     // recovered link, may be empty
	ShipmentID      int64  `json:"shipment_id"`
	CourierName     string `json:"courier_name"`

	CurrentStatus      string `json:"current_status"`
	CurrentStatusCode  int    `json:"current_status_code"`
	ShipmentStatus     string `json:"shipment_status"`
	ShipmentStatusCode int    `json:"shipment_status_code"`

	CurrentTimestamp  *time.Time `json:"current_timestamp,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	AWBAssignedAt     *time.Time `json:"awb_assigned_at,omitempty"`
	PickupScheduledAt *time.Time `json:"pickup_scheduled_at,omitempty"`

	Scans []ScanEvent `json:"scans,omitempty"`

	PODStatus string `json:"pod_status,omitempty"`
	POD       string `json:"pod,omitempty"`
	IsReturn  bool   `json:"is_return"`

	// RawPayload keeps the last payload received, for diagnostics only.
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update carries the fields supplied by one push or pull. Nil pointers mean
// "not present in this update" and never erase a stored value; this is what
// keeps a partial pull from clobbering richer data obtained from a push.
type Update struct {
	ExternalOrderID *string
	CarrierOrderID  *int64
	HostOrderID     *string
	ShipmentID      *int64
	CourierName     *string

	CurrentStatus      *string
	CurrentStatusCode  *int
	ShipmentStatus     *string
	ShipmentStatusCode *int

	CurrentTimestamp  *time.Time
	EstimatedDelivery *time.Time
	AWBAssignedAt     *time.Time
	PickupScheduledAt *time.Time

	Scans []ScanEvent // nil leaves stored scans unchanged

	PODStatus *string
	POD       *string
	IsReturn  *bool

	RawPayload json.RawMessage
}

// Store is the persistence contract for tracking records. Upsert-by-waybill
// is the only write path; exactly one record exists per waybill.
type Store interface {
	// Get returns the record for a waybill, or false when unseen.
	Get(waybill string) (*Record, bool)

	// Upsert creates the record on first sighting, otherwise merges the
	// supplied fields into the existing one, and returns the result.
	Upsert(waybill string, upd Update) *Record

	// ByHostOrder returns every record linked to a host order.
	ByHostOrder(hostOrderID string) []*Record
}

// MemoryStore is the in-process Store. The carrier remains the source of
// truth; nothing beyond the single record per waybill is persisted.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// Get returns a copy of the record for a waybill.
func (s *MemoryStore) Get(waybill string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[waybill]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

// ByHostOrder returns copies of every record linked to a host order.
func (s *MemoryStore) ByHostOrder(hostOrderID string) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.records {
		if r.HostOrderID == hostOrderID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

// Upsert merges an update into the record for a waybill, creating it on first
// sighting. Only fields present in the update overwrite stored values.
func (s *MemoryStore) Upsert(waybill string, upd Update) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	r, ok := s.records[waybill]
	if !ok {
		r = &Record{Waybill: waybill, CreatedAt: now}
		s.records[waybill] = r
	}

	if upd.ExternalOrderID != nil {
		r.ExternalOrderID = *upd.ExternalOrderID
	}
	if upd.CarrierOrderID != nil {
		r.CarrierOrderID = *upd.CarrierOrderID
	}
	if upd.HostOrderID != nil {
		r.HostOrderID = *upd.HostOrderID
	}
	if upd.ShipmentID != nil {
		r.ShipmentID = *upd.ShipmentID
	}
	if upd.CourierName != nil {
		r.CourierName = *upd.CourierName
	}
	if upd.CurrentStatus != nil {
		r.CurrentStatus = *upd.CurrentStatus
	}
	if upd.CurrentStatusCode != nil {
		r.CurrentStatusCode = *upd.CurrentStatusCode
	}
	if upd.ShipmentStatus != nil {
		r.ShipmentStatus = *upd.ShipmentStatus
	}
	if upd.ShipmentStatusCode != nil {
		r.ShipmentStatusCode = *upd.ShipmentStatusCode
	}
	if upd.CurrentTimestamp != nil {
		r.CurrentTimestamp = upd.CurrentTimestamp
	}
	if upd.EstimatedDelivery != nil {
		r.EstimatedDelivery = upd.EstimatedDelivery
	}
	if upd.AWBAssignedAt != nil {
		r.AWBAssignedAt = upd.AWBAssignedAt
	}
	if upd.PickupScheduledAt != nil {
		r.PickupScheduledAt = upd.PickupScheduledAt
	}
	if upd.Scans != nil {
		r.Scans = upd.Scans
	}
	if upd.PODStatus != nil {
		r.PODStatus = *upd.PODStatus
	}
	if upd.POD != nil {
		r.POD = *upd.POD
	}
	if upd.IsReturn != nil {
		r.IsReturn = *upd.IsReturn
	}
	if upd.RawPayload != nil {
		r.RawPayload = upd.RawPayload
	}
	r.UpdatedAt = now

	cp := *r
	return &cp
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
