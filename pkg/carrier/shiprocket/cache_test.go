package shiprocket

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/parceldesk/shipbridge/pkg/carrier"
)

func testEstimate(rate float64) carrier.Estimate {
	return carrier.Estimate{
		Serviceable: true,
		Courier:     &carrier.CourierOption{ID: 1, Rate: rate},
		Considered:  1,
	}
}

func TestEstimateCache_EvictsOldestInserted(t *testing.T) {
	now := time.Now()
	c := newEstimateCache(3, time.Hour)

	c.put("a", testEstimate(1), now)
	c.put("b", testEstimate(2), now)
	c.put("c", testEstimate(3), now)

	// Reading "a" must not protect it: eviction is by insertion order,
	// not by recency of use.
	_, ok := c.get("a", now)
	assert.True(t, ok)

	c.put("d", testEstimate(4), now)

	_, ok = c.get("a", now)
	assert.False(t, ok, "oldest-inserted entry should be evicted")
	for _, key := range []string{"b", "c", "d"} {
		_, ok := c.get(key, now)
		assert.True(t, ok, "entry %q should survive", key)
	}
	assert.Equal(t, 3, c.len())
}

func TestEstimateCache_ReinsertKeepsOriginalSlot(t *testing.T) {
	now := time.Now()
	c := newEstimateCache(2, time.Hour)

	c.put("a", testEstimate(1), now)
	c.put("b", testEstimate(2), now)
	c.put("a", testEstimate(9), now) // refresh, not re-append

	c.put("c", testEstimate(3), now)

	// "a" kept its original slot at the head of the queue, so it goes first.
	_, ok := c.get("a", now)
	assert.False(t, ok)
	got, ok := c.get("b", now)
	assert.True(t, ok)
	assert.Equal(t, 2.0, got.Courier.Rate)
}

func TestEstimateCache_TTLExpiry(t *testing.T) {
	now := time.Now()
	c := newEstimateCache(10, time.Minute)

	c.put("a", testEstimate(1), now)

	_, ok := c.get("a", now.Add(59*time.Second))
	assert.True(t, ok)

	_, ok = c.get("a", now.Add(61*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 0, c.len(), "expired entry is removed on read")
}

func TestEstimateCache_FillToCapacity(t *testing.T) {
	now := time.Now()
	c := newEstimateCache(100, time.Hour)

	for i := 0; i < 100; i++ {
		c.put(fmt.Sprintf("k%d", i), testEstimate(float64(i)), now)
	}
	assert.Equal(t, 100, c.len())

	c.put("overflow", testEstimate(0), now)
	assert.Equal(t, 100, c.len())
	_, ok := c.get("k0", now)
	assert.False(t, ok)
	_, ok = c.get("k1", now)
	assert.True(t, ok)
}

func TestEstimateKey(t *testing.T) {
	base := estimateKey("110001", "560001", 1.5, false)

	assert.Equal(t, base, estimateKey("110001", "560001", 1.5, false))
	assert.NotEqual(t, base, estimateKey("110001", "560001", 1.5, true))
	assert.NotEqual(t, base, estimateKey("110001", "560001", 2.5, false))
	assert.NotEqual(t, base, estimateKey("560001", "110001", 1.5, false))
}
