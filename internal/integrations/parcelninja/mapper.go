package parcelninja

import (
	"strconv"
	"strings"

	"github.com/BearBump/ShipDesk/internal/models"
	"github.com/BearBump/ShipDesk/internal/normalize"
)

// MapOutbound converts a vendor outbound into the dashboard record. Optional
// vendor fields always resolve to strings.
func MapOutbound(api Outbound, storeName string) models.OutboundShipment {
	d := api.DeliveryInfo
	city := d.Suburb
	if city == "" {
		city = d.AddressLine2
	}
	return models.OutboundShipment{
		ID:                 api.ID.String(),
		OrderID:            api.ClientID,
		SourceStoreOrderID: api.ClientID,
		Brand:              storeName,
		Date:               normalize.FormatTimestamp(api.CreateDate),
		Tracking:           d.TrackingNo,
		Courier:            courierOrPending(d.CourierName),
		Status:             normalize.StatusToken(api.Status.Description),
		StatusDate:         normalize.FormatTimestamp(api.Status.TimeStamp),
		Customer:           d.Customer,
		City:               city,
		Item:               describeItems(api.Items),
		Address:            strings.TrimSpace(d.AddressLine1 + " " + d.AddressLine2),
		ChannelID:          api.ChannelID,
	}
}

func MapInbound(api Inbound, storeName string) models.InboundReturn {
	d := api.DeliveryInfo
	sourceShipment := api.SupplierReference
	if sourceShipment == "" {
		sourceShipment = "-"
	}
	reference := api.SupplierReference
	if reference == "" {
		reference = api.ID.String()
	}
	qty := 0
	for _, it := range api.Items {
		qty += it.Qty
	}
	return models.InboundReturn{
		ReturnID:         api.ClientID,
		SourceShipmentID: sourceShipment,
		Brand:            storeName,
		Date:             normalize.FormatTimestamp(api.CreateDate),
		Reference:        reference,
		Tracking:         d.TrackingNo,
		Courier:          courierOrPending(d.CourierName),
		Status:           normalize.StatusToken(api.Status.Description),
		StatusDate:       normalize.FormatTimestamp(api.Status.TimeStamp),
		Customer:         d.Customer,
		Item:             describeItems(api.Items),
		Qty:              strconv.Itoa(qty),
	}
}

func courierOrPending(name string) string {
	if name == "" {
		return models.PendingCourier
	}
	return name
}

func describeItems(items []Item) string {
	if len(items) == 0 {
		return models.NoItems
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, strconv.Itoa(it.Qty)+"x "+it.Name)
	}
	return strings.Join(parts, ", ")
}
