package tracking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/shipbridge/internal/tracking"
)

func TestLabelForCode(t *testing.T) {
	label, ok := tracking.LabelForCode(7)
	require.True(t, ok)
	assert.Equal(t, "Delivered", label)

	label, ok = tracking.LabelForCode(6)
	require.True(t, ok)
	assert.Equal(t, "Shipped", label)

	_, ok = tracking.LabelForCode(999)
	assert.False(t, ok)
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"7", "Delivered"},
		{"18", "In Transit"},
		{"38", "Reached Destination"},
		{" 8 ", "Cancelled"},
		{"In Transit", "In Transit"}, // already a label
		{"999", "999"},               // unknown code passes through
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tracking.NormalizeStatus(tt.in), "input %q", tt.in)
	}
}

func TestParseCarrierTime(t *testing.T) {
	// Day-first form used by push payloads.
	got := tracking.ParseCarrierTime("28 08 2026 14:05:10")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 8, 28, 14, 5, 10, 0, time.UTC), *got)

	// ISO-like form used by pull payloads.
	got = tracking.ParseCarrierTime("2026-08-28 14:05:10")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 8, 28, 14, 5, 10, 0, time.UTC), *got)

	// Date-only.
	got = tracking.ParseCarrierTime("2026-08-28")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), *got)

	assert.Nil(t, tracking.ParseCarrierTime(""))
	assert.Nil(t, tracking.ParseCarrierTime("not a date"))
	assert.Nil(t, tracking.ParseCarrierTime("28/08/2026"))
}

func TestStripOrderSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ord-42-1724832000", "ord-42"},
		{"8899-1724832000", "8899"},
		{"plainid", "plainid"},
		{"ends-with-dash-", "ends-with-dash-"},
		{"mixed-12x", "mixed-12x"}, // suffix not all digits
		{"-123", "-123"},           // nothing before the dash
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tracking.StripOrderSuffix(tt.in), "input %q", tt.in)
	}
}
