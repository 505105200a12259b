package records

import (
	"github.com/BearBump/ShipDesk/internal/models"
)

// Getter reads one column of a record as a string. Missing values are "".
type Getter[T any] func(r *T) string

type Column[T any] struct {
	Key string
	Get Getter[T]
}

// Schema is the typed column table for one record kind: filter, sort and export
// all go through it instead of reflecting over field names.
type Schema[T any] struct {
	columns []Column[T]
	byKey   map[string]Getter[T]
	search  []Getter[T]
	brand   Getter[T]
	date    Getter[T]
}

func newSchema[T any](columns []Column[T], searchKeys []string, brandKey, dateKey string) *Schema[T] {
	s := &Schema[T]{
		columns: columns,
		byKey:   make(map[string]Getter[T], len(columns)),
	}
	for _, c := range columns {
		s.byKey[c.Key] = c.Get
	}
	for _, k := range searchKeys {
		s.search = append(s.search, s.byKey[k])
	}
	s.brand = s.byKey[brandKey]
	s.date = s.byKey[dateKey]
	return s
}

// Keys returns column keys in record field order.
func (s *Schema[T]) Keys() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Key
	}
	return out
}

func (s *Schema[T]) Has(key string) bool {
	_, ok := s.byKey[key]
	return ok
}

func (s *Schema[T]) Value(r *T, key string) (string, bool) {
	g, ok := s.byKey[key]
	if !ok {
		return "", false
	}
	return g(r), true
}

// Row renders a record in column order.
func (s *Schema[T]) Row(r *T) []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Get(r)
	}
	return out
}

var Outbound = newSchema([]Column[models.OutboundShipment]{
	{"id", func(r *models.OutboundShipment) string { return r.ID }},
	{"orderId", func(r *models.OutboundShipment) string { return r.OrderID }},
	{"sourceStoreOrderId", func(r *models.OutboundShipment) string { return r.SourceStoreOrderID }},
	{"brand", func(r *models.OutboundShipment) string { return r.Brand }},
	{"date", func(r *models.OutboundShipment) string { return r.Date }},
	{"tracking", func(r *models.OutboundShipment) string { return r.Tracking }},
	{"courier", func(r *models.OutboundShipment) string { return r.Courier }},
	{"status", func(r *models.OutboundShipment) string { return r.Status }},
	{"statusDate", func(r *models.OutboundShipment) string { return r.StatusDate }},
	{"customer", func(r *models.OutboundShipment) string { return r.Customer }},
	{"city", func(r *models.OutboundShipment) string { return r.City }},
	{"item", func(r *models.OutboundShipment) string { return r.Item }},
	{"address", func(r *models.OutboundShipment) string { return r.Address }},
	{"channelId", func(r *models.OutboundShipment) string { return r.ChannelID }},
}, []string{"id", "orderId", "sourceStoreOrderId", "tracking", "customer", "channelId"}, "brand", "date")

var Inbound = newSchema([]Column[models.InboundReturn]{
	{"returnId", func(r *models.InboundReturn) string { return r.ReturnID }},
	{"sourceShipmentId", func(r *models.InboundReturn) string { return r.SourceShipmentID }},
	{"brand", func(r *models.InboundReturn) string { return r.Brand }},
	{"date", func(r *models.InboundReturn) string { return r.Date }},
	{"reference", func(r *models.InboundReturn) string { return r.Reference }},
	{"tracking", func(r *models.InboundReturn) string { return r.Tracking }},
	{"courier", func(r *models.InboundReturn) string { return r.Courier }},
	{"status", func(r *models.InboundReturn) string { return r.Status }},
	{"statusDate", func(r *models.InboundReturn) string { return r.StatusDate }},
	{"customer", func(r *models.InboundReturn) string { return r.Customer }},
	{"item", func(r *models.InboundReturn) string { return r.Item }},
	{"qty", func(r *models.InboundReturn) string { return r.Qty }},
}, []string{"returnId", "reference", "tracking", "customer"}, "brand", "date")
