package parcelninja

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// FlexID accepts both numeric and string ids from the upstream API.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.Wrap(err, "id")
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Wrap(err, "id")
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string { return string(id) }

type Status struct {
	Code        int    `json:"code"`
	TimeStamp   string `json:"timeStamp"`
	Description string `json:"description"`
}

type DeliveryInfo struct {
	Customer     string `json:"customer"`
	ContactNo    string `json:"contactNo,omitempty"`
	Email        string `json:"email,omitempty"`
	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	Suburb       string `json:"suburb,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	CourierName  string `json:"courierName,omitempty"`
	TrackingNo   string `json:"trackingNo,omitempty"`
}

type Item struct {
	ItemNo string `json:"itemNo"`
	Name   string `json:"name"`
	Qty    int    `json:"qty"`
}

// Outbound is the vendor shape for both listing summaries and detail responses.
// Items are usually only present on detail.
type Outbound struct {
	ID           FlexID       `json:"id"`
	ClientID     string       `json:"clientId"`
	ChannelID    string       `json:"channelId"`
	CreateDate   string       `json:"createDate"`
	Status       Status       `json:"status"`
	DeliveryInfo DeliveryInfo `json:"deliveryInfo"`
	Items        []Item       `json:"items,omitempty"`
}

type Inbound struct {
	ID                FlexID       `json:"id"`
	ClientID          string       `json:"clientId"`
	CreateDate        string       `json:"createDate"`
	Status            Status       `json:"status"`
	DeliveryInfo      DeliveryInfo `json:"deliveryInfo"`
	SupplierReference string       `json:"supplierReference,omitempty"`
	Items             []Item       `json:"items,omitempty"`
}

// listing decodes either an envelope ({"outbounds": [...]} / {"inbounds": [...]})
// or a bare JSON array.
type listing[T any] struct {
	Items []T
}

func (l *listing[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		l.Items = nil
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, &l.Items)
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(b, &env); err != nil {
		return errors.Wrap(err, "listing envelope")
	}
	for _, key := range []string{"outbounds", "inbounds"} {
		raw, ok := env[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		return json.Unmarshal(raw, &l.Items)
	}
	l.Items = nil
	return nil
}
