package tracking

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// flexString tolerates the carrier sending either a JSON string or a bare
// number in the same field, which it does for waybills and status values.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexBool tolerates 0/1, "0"/"1", and true/false in the same field.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("true")):
		*f = true
	case bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("null")):
		*f = false
	default:
		var s string
		if data[0] == '"' {
			if err := json.Unmarshal(data, &s); err != nil {
				return err
			}
		} else {
			s = string(data)
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*f = n != 0
	}
	return nil
}

// WebhookPayload is the carrier's push notification body.
type WebhookPayload struct {
	AWB              flexString    `json:"awb"`
	CurrentStatus    flexString    `json:"current_status"`
	CurrentStatusID  int           `json:"current_status_id"`
	ShipmentStatus   flexString    `json:"shipment_status"`
	ShipmentStatusID int           `json:"shipment_status_id"`
	CurrentTimestamp string        `json:"current_timestamp"`
	OrderID          flexString    `json:"order_id"`
	SROrderID        int64         `json:"sr_order_id"`
	CourierName      string        `json:"courier_name"`
	ETD              string        `json:"etd"`
	Scans            []WebhookScan `json:"scans"`
	IsReturn         flexBool      `json:"is_return"`
	PODStatus        string        `json:"pod_status"`
	POD              string        `json:"pod"`
}

// WebhookScan is one scan row in a push notification.
type WebhookScan struct {
	Date     string     `json:"date"`
	Status   flexString `json:"status"`
	Activity string     `json:"activity"`
	Location string     `json:"location"`
}
