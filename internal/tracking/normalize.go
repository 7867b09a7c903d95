package tracking

import (
	"strconv"
	"strings"
	"time"
)

// statusLabels maps the carrier's numeric shipment status codes to display
// labels. The carrier sometimes returns the bare code in fields where a label
// is expected; both push and pull payloads are normalized through this table
// before storage so the two paths stay consistent.
var statusLabels = map[int]string{
	1:  "AWB Assigned",
	2:  "Label Generated",
	3:  "Pickup Scheduled",
	4:  "Picked Up",
	6:  "Shipped",
	7:  "Delivered",
	8:  "Cancelled",
	9:  "RTO Initiated",
	10: "RTO Delivered",
	15: "Pickup Error",
	17: "Out For Delivery",
	18: "In Transit",
	19: "Out For Pickup",
	20: "RTO In Transit",
	38: "Reached Destination",
}

// LabelForCode returns the display label for a numeric status code.
func LabelForCode(code int) (string, bool) {
	label, ok := statusLabels[code]
	return label, ok
}

// NormalizeStatus replaces a bare numeric status with its display label.
// Unknown codes and already-labeled statuses pass through unchanged.
func NormalizeStatus(status string) string {
	s := strings.TrimSpace(status)
	if s == "" {
		return s
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return status
	}
	if label, ok := statusLabels[code]; ok {
		return label
	}
	return status
}

// carrierTimeLayouts are the date shapes the carrier is known to emit.
// Push payloads use day-first "DD MM YYYY HH:mm:ss"; pull payloads use the
// ISO-like form, sometimes date-only.
var carrierTimeLayouts = []string{
	"02 01 2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseCarrierTime parses a carrier-supplied date string into a UTC instant.
// Returns nil for blank or unparsable values; a bad date must not fail the
// whole update.
func ParseCarrierTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range carrierTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// StripOrderSuffix recovers the host order id from the composite external id
// the carrier echoes back. Shipment creation appends "-<unix seconds>" to the
// host id for remote uniqueness; the grammar here is exactly a trailing dash
// followed by one or more digits. Anything else passes through untouched.
func StripOrderSuffix(externalID string) string {
	i := strings.LastIndexByte(externalID, '-')
	if i <= 0 || i == len(externalID)-1 {
		return externalID
	}
	for _, r := range externalID[i+1:] {
		if r < '0' || r > '9' {
			return externalID
		}
	}
	return externalID[:i]
}
