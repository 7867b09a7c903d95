// Package hostorders is the narrow contract to the host order/fulfillment
// store. The real store and its ORM live outside this service; the in-memory
// implementation backs tests and single-process deployments.
package hostorders

import (
	"context"
	"errors"
	"sync"

	"github.com/parceldesk/shipbridge/pkg/carrier"
)

// ErrNotFound is returned for unknown order ids.
var ErrNotFound = errors.New("order not found")

// Store reads orders and patches fulfillment metadata.
type Store interface {
	// GetOrder returns the order with its addresses and line items.
	GetOrder(ctx context.Context, orderID string) (*carrier.Order, error)

	// SaveDocuments patches document links onto the order's fulfillment
	// metadata.
	SaveDocuments(ctx context.Context, orderID string, docs carrier.Documents) error
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu        sync.RWMutex
	orders    map[string]*carrier.Order
	documents map[string]carrier.Documents
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:    make(map[string]*carrier.Order),
		documents: make(map[string]carrier.Documents),
	}
}

// PutOrder registers an order. Used by tests and host-side seeding.
func (s *MemoryStore) PutOrder(order *carrier.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
}

// GetOrder returns the order for an id.
func (s *MemoryStore) GetOrder(_ context.Context, orderID string) (*carrier.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

// SaveDocuments stores document links for an order. Unknown orders are
// accepted: a tracking record can reference an order this process never saw.
func (s *MemoryStore) SaveDocuments(_ context.Context, orderID string, docs carrier.Documents) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.documents[orderID]
	if docs.LabelURL != "" {
		existing.LabelURL = docs.LabelURL
	}
	if docs.InvoiceURL != "" {
		existing.InvoiceURL = docs.InvoiceURL
	}
	if docs.ManifestURL != "" {
		existing.ManifestURL = docs.ManifestURL
	}
	s.documents[orderID] = existing
	return nil
}

// Documents returns the stored document links for an order.
func (s *MemoryStore) Documents(orderID string) carrier.Documents {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents[orderID]
}

var _ Store = (*MemoryStore)(nil)
