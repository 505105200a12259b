package fake

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/BearBump/ShipDesk/internal/models"
	"github.com/BearBump/ShipDesk/internal/normalize"
	"github.com/pkg/errors"
)

// DefaultToday is the simulated "today" mock records are dated around.
const DefaultToday = "2025-12-14"

const (
	outboundsPerBrand = 15
	inboundsPerBrand  = 10
)

var outboundStatuses = []string{
	models.OutboundStatusCreated, models.OutboundStatusException, models.OutboundStatusAwaitingStock,
	models.OutboundStatusInPickingQueue, models.OutboundStatusInPackingQueue, models.OutboundStatusPacked,
	models.OutboundStatusShipped, models.OutboundStatusDelivered, models.OutboundStatusFailedDeliveryAttempt,
	models.OutboundStatusOnHold, models.OutboundStatusCourierCancelled, models.OutboundStatusInValidation,
}

var inboundStatuses = []string{
	models.InboundStatusCreated, models.InboundStatusScheduledForPickup, models.InboundStatusAwaitingArrival,
	models.InboundStatusCourierEnRoute, models.InboundStatusProcessingComplete,
	models.InboundStatusProcessingCompleteWithVariance, models.InboundStatusFailed, models.InboundStatusCompleted,
}

var (
	couriers = []string{"CourierIT", "Dawn Wing", "The Courier Guy"}
	cities   = []string{"Cape Town", "Johannesburg", "Durban", "Pretoria"}
)

// Generator produces synthetic records used when the upstream is unavailable
// or mock mode is configured. Safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	today time.Time
}

func New(today time.Time, seed uint64) *Generator {
	if today.IsZero() {
		today, _ = ParseToday(DefaultToday)
	}
	return &Generator{
		rnd:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		today: today,
	}
}

// ParseToday parses YYYY-MM-DD as local midnight. Empty means DefaultToday.
func ParseToday(s string) (time.Time, error) {
	if s == "" {
		s = DefaultToday
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parse simulated today")
	}
	return t, nil
}

func (g *Generator) Today() time.Time { return g.today }

func (g *Generator) Outbounds(brand string) []models.OutboundShipment {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]models.OutboundShipment, 0, outboundsPerBrand)
	for i := 0; i < outboundsPerBrand; i++ {
		day := g.today.AddDate(0, 0, -g.rnd.IntN(5))
		date := time.Date(day.Year(), day.Month(), day.Day(), 8+g.rnd.IntN(9), g.rnd.IntN(60), 0, 0, day.Location())

		status := outboundStatuses[g.rnd.IntN(len(outboundStatuses))]
		completed := status == models.OutboundStatusDelivered || status == models.OutboundStatusShipped

		tracking, courier := "", models.PendingCourier
		if completed {
			tracking = fmt.Sprintf("TRK%d", g.rnd.IntN(999999))
			courier = couriers[g.rnd.IntN(len(couriers))]
		}

		channelID := "CH-" + prefix(brand, 1)
		if brand == "Hurley" && i == 0 {
			channelID = "H10545"
		}

		out = append(out, models.OutboundShipment{
			ID:                 fmt.Sprintf("MOCK-%s-%d", strings.ToUpper(prefix(brand, 3)), 1000+i),
			OrderID:            fmt.Sprintf("ORD-%d", 20000+i),
			SourceStoreOrderID: fmt.Sprintf("SHP-%d", 20000+i),
			Brand:              brand,
			Date:               normalize.FormatTime(date),
			Tracking:           tracking,
			Courier:            courier,
			Status:             status,
			StatusDate:         normalize.FormatTime(date),
			Customer:           fmt.Sprintf("Simulated User %d", i+1),
			City:               cities[g.rnd.IntN(len(cities))],
			Item:               fmt.Sprintf("%dx Mock Item for %s", 1+g.rnd.IntN(2), brand),
			Address:            "123 Simulation Ave, Tech Park",
			ChannelID:          channelID,
		})
	}
	return out
}

func (g *Generator) Inbounds(brand string) []models.InboundReturn {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]models.InboundReturn, 0, inboundsPerBrand)
	for i := 0; i < inboundsPerBrand; i++ {
		date := g.today.AddDate(0, 0, -g.rnd.IntN(10))
		status := inboundStatuses[g.rnd.IntN(len(inboundStatuses))]

		tracking := ""
		if status == models.InboundStatusCompleted || g.rnd.Float64() <= 0.7 {
			tracking = fmt.Sprintf("WAY%d", g.rnd.IntN(999999))
		}

		out = append(out, models.InboundReturn{
			ReturnID:         fmt.Sprintf("RET-%s-%d", strings.ToUpper(prefix(brand, 3)), 5000+i),
			SourceShipmentID: fmt.Sprintf("SHP-%d", 20000+i),
			Brand:            brand,
			Date:             normalize.FormatTime(date),
			Reference:        fmt.Sprintf("RMA-%s-%d", prefix(brand, 1), 5000+i),
			Tracking:         tracking,
			Courier:          "CourierIT",
			Status:           status,
			StatusDate:       normalize.FormatTime(date),
			Customer:         fmt.Sprintf("Return Customer %d", i+1),
			Item:             fmt.Sprintf("Returned Item %d", i+1),
			Qty:              "1",
		})
	}
	return out
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) < n {
		return s
	}
	return string(r[:n])
}
