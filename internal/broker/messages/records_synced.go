package messages

import (
	"time"

	"github.com/BearBump/ShipDesk/internal/models"
)

// RecordsSynced carries one full refresh. Consumers replace their record sets
// wholesale; there is no incremental merge.
type RecordsSynced struct {
	SyncID   string    `json:"sync_id"`
	SyncedAt time.Time `json:"synced_at"`
	Mode     string    `json:"mode"`

	Outbounds []models.OutboundShipment `json:"outbounds"`
	Inbounds  []models.InboundReturn    `json:"inbounds"`

	// FallbackCount is the number of upstream calls answered by a fallback
	// during this refresh.
	FallbackCount int64 `json:"fallback_count"`
}
