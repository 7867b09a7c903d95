package shiprocket_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/shipbridge/pkg/carrier"
	"github.com/parceldesk/shipbridge/pkg/carrier/shiprocket"
)

func TestSanitizeDigits(t *testing.T) {
	assert.Equal(t, "919876543210", shiprocket.SanitizeDigits("+91 98765-43210"))
	assert.Equal(t, "110001", shiprocket.SanitizeDigits("110 001"))
	assert.Equal(t, "", shiprocket.SanitizeDigits("no digits here"))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain ten digits", "9876543210", "9876543210", false},
		{"formatted", "98765 43210", "9876543210", false},
		{"country prefix", "+91 9876543210", "9876543210", false},
		{"country prefix no plus", "919876543210", "9876543210", false},
		{"too short", "98765", "", true},
		{"too long", "98765432101", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := shiprocket.NormalizePhone("phone", tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, carrier.IsKind(err, carrier.KindInvalidData))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePostcode(t *testing.T) {
	got, err := shiprocket.NormalizePostcode("postal_code", "110 001")
	require.NoError(t, err)
	assert.Equal(t, "110001", got)

	_, err = shiprocket.NormalizePostcode("postal_code", "1100")
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindInvalidData))
	assert.Contains(t, err.Error(), "postal_code")

	// A 12-digit phone-style value is not a postcode.
	_, err = shiprocket.NormalizePostcode("postal_code", "919876543210")
	require.Error(t, err)
}

func TestRequireFields(t *testing.T) {
	err := shiprocket.RequireFields("billing address", map[string]string{
		"name":  "A Customer",
		"city":  "",
		"phone": "  ",
	})

	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindInvalidData))
	// All missing fields are named at once, sorted.
	assert.Contains(t, err.Error(), "city, phone")

	assert.NoError(t, shiprocket.RequireFields("billing address", map[string]string{
		"name": "A Customer",
	}))
}
