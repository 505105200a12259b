package models

// Нормализованные статусы отправлений (токены из upstream description).
const (
	OutboundStatusCreated               = "CREATED"
	OutboundStatusException             = "EXCEPTION"
	OutboundStatusAwaitingStock         = "AWAITING_STOCK"
	OutboundStatusInPickingQueue        = "IN_PICKING_QUEUE"
	OutboundStatusInPackingQueue        = "IN_PACKING_QUEUE"
	OutboundStatusPicked                = "PICKED"
	OutboundStatusPacked                = "PACKED"
	OutboundStatusShipped               = "SHIPPED"
	OutboundStatusDelivered             = "DELIVERED"
	OutboundStatusCompleted             = "COMPLETED"
	OutboundStatusCancelled             = "CANCELLED"
	OutboundStatusFailedDeliveryAttempt = "FAILED_DELIVERY_ATTEMPT"
	OutboundStatusUnableToDeliver       = "UNABLE_TO_DELIVER"
	OutboundStatusReturnToOrigin        = "RETURN_TO_ORIGIN"
	OutboundStatusOnHold                = "ON_HOLD"
	OutboundStatusCourierCancelled      = "COURIER_CANCELLED"
	OutboundStatusInValidation          = "IN_VALIDATION"
)

const (
	InboundStatusCreated                        = "CREATED"
	InboundStatusScheduledForPickup             = "SCHEDULED_FOR_PICKUP"
	InboundStatusAwaitingArrival                = "AWAITING_ARRIVAL"
	InboundStatusCourierEnRoute                 = "COURIER_EN_ROUTE"
	InboundStatusProcessingComplete             = "PROCESSING_COMPLETE"
	InboundStatusProcessingCompleteWithVariance = "PROCESSING_COMPLETE_WITH_VARIANCE"
	InboundStatusFailed                         = "FAILED"
	InboundStatusCompleted                      = "COMPLETED"
	InboundStatusDelivered                      = "DELIVERED"
)

const (
	NoItems        = "No Items"
	PendingCourier = "Pending"
)

// OutboundShipment is one order leaving the warehouse. Field order is the export column order.
type OutboundShipment struct {
	ID                 string `json:"id"`
	OrderID            string `json:"orderId"`
	SourceStoreOrderID string `json:"sourceStoreOrderId"`
	Brand              string `json:"brand"`
	Date               string `json:"date"`
	Tracking           string `json:"tracking"`
	Courier            string `json:"courier"`
	Status             string `json:"status"`
	StatusDate         string `json:"statusDate"`
	Customer           string `json:"customer"`
	City               string `json:"city"`
	Item               string `json:"item"`
	Address            string `json:"address"`
	ChannelID          string `json:"channelId"`
}

// InboundReturn is one customer return. Reference and SourceShipmentID are the
// (inferred, unenforced) join keys back to an OutboundShipment.
type InboundReturn struct {
	ReturnID         string `json:"returnId"`
	SourceShipmentID string `json:"sourceShipmentId"`
	Brand            string `json:"brand"`
	Date             string `json:"date"`
	Reference        string `json:"reference"`
	Tracking         string `json:"tracking"`
	Courier          string `json:"courier"`
	Status           string `json:"status"`
	StatusDate       string `json:"statusDate"`
	Customer         string `json:"customer"`
	Item             string `json:"item"`
	Qty              string `json:"qty"`
}

// StoreCredential is static per-brand vendor configuration.
type StoreCredential struct {
	Name     string
	StoreID  string
	Username string
	Password string
}

var knownOutboundStatuses = map[string]struct{}{
	OutboundStatusCreated: {}, OutboundStatusException: {}, OutboundStatusAwaitingStock: {},
	OutboundStatusInPickingQueue: {}, OutboundStatusInPackingQueue: {}, OutboundStatusPicked: {},
	OutboundStatusPacked: {}, OutboundStatusShipped: {}, OutboundStatusDelivered: {},
	OutboundStatusCompleted: {}, OutboundStatusCancelled: {}, OutboundStatusFailedDeliveryAttempt: {},
	OutboundStatusUnableToDeliver: {}, OutboundStatusReturnToOrigin: {}, OutboundStatusOnHold: {},
	OutboundStatusCourierCancelled: {}, OutboundStatusInValidation: {},
}

var knownInboundStatuses = map[string]struct{}{
	InboundStatusCreated: {}, InboundStatusScheduledForPickup: {}, InboundStatusAwaitingArrival: {},
	InboundStatusCourierEnRoute: {}, InboundStatusProcessingComplete: {},
	InboundStatusProcessingCompleteWithVariance: {}, InboundStatusFailed: {},
	InboundStatusCompleted: {}, InboundStatusDelivered: {},
}

// IsKnownOutboundStatus is false for tokens outside the fixed vocabulary; such
// records are still kept, counted under UNKNOWN_STATUS and in the OTHER matrix column.
func IsKnownOutboundStatus(status string) bool {
	_, ok := knownOutboundStatuses[status]
	return ok
}

func IsKnownInboundStatus(status string) bool {
	_, ok := knownInboundStatuses[status]
	return ok
}
