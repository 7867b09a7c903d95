package tracking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/shipbridge/internal/tracking"
)

func sp(s string) *string { return &s }
func ip(n int) *int       { return &n }

func TestMemoryStore_CreatesOnFirstSighting(t *testing.T) {
	store := tracking.NewMemoryStore()

	_, ok := store.Get("AWB1")
	assert.False(t, ok)

	rec := store.Upsert("AWB1", tracking.Update{CurrentStatus: sp("In Transit")})

	assert.Equal(t, "AWB1", rec.Waybill)
	assert.Equal(t, "In Transit", rec.CurrentStatus)
	assert.False(t, rec.CreatedAt.IsZero())

	got, ok := store.Get("AWB1")
	require.True(t, ok)
	assert.Equal(t, "In Transit", got.CurrentStatus)
}

func TestMemoryStore_AbsentFieldsNeverErase(t *testing.T) {
	store := tracking.NewMemoryStore()
	now := time.Now().UTC()

	store.Upsert("AWB1", tracking.Update{
		CourierName:       sp("Bluedart"),
		CurrentStatus:     sp("In Transit"),
		CurrentStatusCode: ip(18),
		CurrentTimestamp:  &now,
		Scans: []tracking.ScanEvent{
			{Status: "In Transit", Activity: "Left origin hub", Location: "Mumbai"},
		},
	})

	// A status-only update must not clobber anything it does not carry.
	rec := store.Upsert("AWB1", tracking.Update{
		CurrentStatus:     sp("Delivered"),
		CurrentStatusCode: ip(7),
	})

	assert.Equal(t, "Delivered", rec.CurrentStatus)
	assert.Equal(t, 7, rec.CurrentStatusCode)
	assert.Equal(t, "Bluedart", rec.CourierName)
	require.Len(t, rec.Scans, 1)
	assert.Equal(t, "Left origin hub", rec.Scans[0].Activity)
	require.NotNil(t, rec.CurrentTimestamp)
	assert.Equal(t, now, *rec.CurrentTimestamp)
}

func TestMemoryStore_OneRecordPerWaybill(t *testing.T) {
	store := tracking.NewMemoryStore()

	store.Upsert("AWB1", tracking.Update{HostOrderID: sp("ord-1")})
	store.Upsert("AWB1", tracking.Update{CurrentStatus: sp("Shipped")})
	store.Upsert("AWB2", tracking.Update{HostOrderID: sp("ord-1")})

	assert.Len(t, store.ByHostOrder("ord-1"), 2)
	assert.Empty(t, store.ByHostOrder("ord-2"))
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := tracking.NewMemoryStore()
	store.Upsert("AWB1", tracking.Update{CurrentStatus: sp("Shipped")})

	got, _ := store.Get("AWB1")
	got.CurrentStatus = "mutated"

	fresh, _ := store.Get("AWB1")
	assert.Equal(t, "Shipped", fresh.CurrentStatus)
}
