package records

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/ShipDesk/internal/models"
)

// Status columns shown in the outbound and inbound status matrices.
var (
	OutboundStatusTabs = []string{
		models.OutboundStatusCreated, models.OutboundStatusException, models.OutboundStatusAwaitingStock,
		models.OutboundStatusInPickingQueue, models.OutboundStatusInPackingQueue, models.OutboundStatusPacked,
		models.OutboundStatusShipped, models.OutboundStatusDelivered, models.OutboundStatusFailedDeliveryAttempt,
		models.OutboundStatusOnHold, models.OutboundStatusCourierCancelled, models.OutboundStatusInValidation,
	}
	InboundStatusTabs = []string{
		models.InboundStatusCreated, models.InboundStatusScheduledForPickup, models.InboundStatusAwaitingArrival,
		models.InboundStatusCourierEnRoute, models.InboundStatusProcessingComplete,
		models.InboundStatusProcessingCompleteWithVariance, models.InboundStatusCompleted, models.InboundStatusFailed,
	}
)

// StatusOther is the trailing matrix column for statuses without a tab of their
// own, off-vocabulary tokens included.
const StatusOther = "OTHER"

// KPI bucket names, usable for drill-down.
const (
	BucketTotalOrders      = "TOTAL_ORDERS"
	BucketDelivered        = "DELIVERED"
	BucketCreatedToday     = "CREATED_TODAY"
	BucketProcessing       = "PROCESSING"
	BucketOnHold           = "ON_HOLD"
	BucketInValidation     = "IN_VALIDATION"
	BucketAwaitingStock    = "AWAITING_STOCK"
	BucketExceptions       = "EXCEPTIONS"
	BucketCourierCancelled = "COURIER_CANCELLED"
	BucketFailedDelivery   = "FAILED_DELIVERY"
	BucketUnknownStatus    = "UNKNOWN_STATUS"

	BucketTotalIn        = "TOTAL_IN"
	BucketCompletedIn    = "COMPLETED_IN"
	BucketPendingIn      = "PENDING_IN"
	BucketFailedIn       = "FAILED_IN"
	BucketMissingWaybill = "MISSING_WAYBILL"
	BucketUnknownIn      = "UNKNOWN_STATUS_IN"
)

func statusIs(statuses ...string) func(string) bool {
	return func(s string) bool {
		for _, want := range statuses {
			if s == want {
				return true
			}
		}
		return false
	}
}

func isProcessing(s string) bool {
	return strings.Contains(s, "PICKING") || strings.Contains(s, "PACKING") ||
		statusIs(models.OutboundStatusShipped, models.OutboundStatusPicked, models.OutboundStatusPacked,
			models.OutboundStatusReturnToOrigin, models.OutboundStatusFailedDeliveryAttempt,
			models.OutboundStatusCourierCancelled)(s)
}

var outboundBuckets = map[string]func(string) bool{
	BucketTotalOrders:      func(s string) bool { return s != models.OutboundStatusCancelled },
	BucketDelivered:        statusIs(models.OutboundStatusDelivered, models.OutboundStatusCompleted),
	BucketProcessing:       isProcessing,
	BucketOnHold:           statusIs(models.OutboundStatusOnHold),
	BucketInValidation:     statusIs(models.OutboundStatusInValidation),
	BucketAwaitingStock:    statusIs(models.OutboundStatusAwaitingStock),
	BucketExceptions:       func(s string) bool { return strings.Contains(s, models.OutboundStatusException) },
	BucketCourierCancelled: statusIs(models.OutboundStatusCourierCancelled),
	BucketFailedDelivery:   statusIs(models.OutboundStatusFailedDeliveryAttempt, models.OutboundStatusUnableToDeliver),
	BucketUnknownStatus:    func(s string) bool { return !models.IsKnownOutboundStatus(s) },
}

var inboundBuckets = map[string]func(*models.InboundReturn) bool{
	BucketTotalIn: func(*models.InboundReturn) bool { return true },
	BucketCompletedIn: func(r *models.InboundReturn) bool {
		return r.Status == models.InboundStatusCompleted || r.Status == models.InboundStatusDelivered
	},
	BucketPendingIn:      func(r *models.InboundReturn) bool { return r.Status == models.InboundStatusAwaitingArrival },
	BucketFailedIn:       func(r *models.InboundReturn) bool { return r.Status == models.InboundStatusFailed },
	BucketMissingWaybill: func(r *models.InboundReturn) bool { return strings.TrimSpace(r.Tracking) == "" },
	BucketUnknownIn:      func(r *models.InboundReturn) bool { return !models.IsKnownInboundStatus(r.Status) },
}

func IsOutboundBucket(name string) bool {
	_, ok := outboundBuckets[name]
	return ok || name == BucketCreatedToday
}

func IsInboundBucket(name string) bool {
	_, ok := inboundBuckets[name]
	return ok
}

// OutboundBucket returns the records counted by a KPI card. today only matters
// for CREATED_TODAY.
func OutboundBucket(name string, recs []models.OutboundShipment, today time.Time) []models.OutboundShipment {
	out := []models.OutboundShipment{}
	if name == BucketCreatedToday {
		prefix := today.Format(dateLayout)
		for _, r := range recs {
			if strings.HasPrefix(r.Date, prefix) {
				out = append(out, r)
			}
		}
		return out
	}
	pred, ok := outboundBuckets[name]
	if !ok {
		return out
	}
	for _, r := range recs {
		if pred(r.Status) {
			out = append(out, r)
		}
	}
	return out
}

func InboundBucket(name string, recs []models.InboundReturn) []models.InboundReturn {
	out := []models.InboundReturn{}
	pred, ok := inboundBuckets[name]
	if !ok {
		return out
	}
	for i := range recs {
		if pred(&recs[i]) {
			out = append(out, recs[i])
		}
	}
	return out
}

type HourCount struct {
	Hour   string `json:"hour"`
	Orders int    `json:"orders"`
}

type BrandCount struct {
	Brand string `json:"brand"`
	Count int    `json:"count"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// StatusMatrix counts records per brand (rows) and status (columns).
type StatusMatrix struct {
	Brands   []string `json:"brands"`
	Statuses []string `json:"statuses"`
	Counts   [][]int  `json:"counts"`
}

type Metrics struct {
	Outbound map[string]int `json:"outbound"`
	Inbound  map[string]int `json:"inbound"`

	CreatedTodayByHour    []HourCount  `json:"createdTodayByHour"`
	MissingWaybillByBrand []BrandCount `json:"missingWaybillByBrand"`

	OutboundMatrix StatusMatrix `json:"outboundMatrix"`
	InboundMatrix  StatusMatrix `json:"inboundMatrix"`
}

// ComputeMetrics derives dashboard figures from the current record sets. brands
// are the matrix rows.
func ComputeMetrics(out []models.OutboundShipment, in []models.InboundReturn, today time.Time, brands []string) Metrics {
	m := Metrics{
		Outbound: make(map[string]int, len(outboundBuckets)+1),
		Inbound:  make(map[string]int, len(inboundBuckets)),
	}
	for name, pred := range outboundBuckets {
		n := 0
		for _, r := range out {
			if pred(r.Status) {
				n++
			}
		}
		m.Outbound[name] = n
	}
	for name, pred := range inboundBuckets {
		n := 0
		for i := range in {
			if pred(&in[i]) {
				n++
			}
		}
		m.Inbound[name] = n
	}

	m.CreatedTodayByHour = createdTodayByHour(out, today)
	total := 0
	for _, h := range m.CreatedTodayByHour {
		total += h.Orders
	}
	m.Outbound[BucketCreatedToday] = total

	m.MissingWaybillByBrand = missingWaybillByBrand(in)
	m.OutboundMatrix = buildMatrix(brands, OutboundStatusTabs, len(out), func(i int) (string, string) { return out[i].Brand, out[i].Status })
	m.InboundMatrix = buildMatrix(brands, InboundStatusTabs, len(in), func(i int) (string, string) { return in[i].Brand, in[i].Status })
	return m
}

func createdTodayByHour(out []models.OutboundShipment, today time.Time) []HourCount {
	prefix := today.Format(dateLayout)
	var hours [24]int
	for _, r := range out {
		if !strings.HasPrefix(r.Date, prefix) {
			continue
		}
		_, timePart, ok := strings.Cut(r.Date, " ")
		if !ok || len(timePart) < 2 {
			continue
		}
		h, err := strconv.Atoi(timePart[:2])
		if err != nil || h < 0 || h > 23 {
			continue
		}
		hours[h]++
	}
	res := make([]HourCount, 24)
	for h, n := range hours {
		res[h] = HourCount{Hour: fmt.Sprintf("%02d:00", h), Orders: n}
	}
	return res
}

func missingWaybillByBrand(in []models.InboundReturn) []BrandCount {
	counts := map[string]int{}
	for _, r := range in {
		if strings.TrimSpace(r.Tracking) == "" {
			counts[r.Brand]++
		}
	}
	res := make([]BrandCount, 0, len(counts))
	for b, n := range counts {
		res = append(res, BrandCount{Brand: b, Count: n})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].Brand < res[j].Brand
	})
	return res
}

// buildMatrix counts records per brand and status. Statuses outside the tab list
// fall into the OTHER column, so every record of a listed brand is counted once.
func buildMatrix(brands, tabs []string, n int, at func(i int) (brand, status string)) StatusMatrix {
	statuses := make([]string, 0, len(tabs)+1)
	statuses = append(statuses, tabs...)
	statuses = append(statuses, StatusOther)
	other := len(tabs)

	row := make(map[string]int, len(brands))
	for i, b := range brands {
		row[b] = i
	}
	col := make(map[string]int, len(tabs))
	for i, s := range tabs {
		col[s] = i
	}
	counts := make([][]int, len(brands))
	for i := range counts {
		counts[i] = make([]int, len(statuses))
	}
	for i := 0; i < n; i++ {
		b, s := at(i)
		ri, ok := row[b]
		if !ok {
			continue
		}
		ci, ok := col[s]
		if !ok {
			ci = other
		}
		counts[ri][ci]++
	}
	return StatusMatrix{Brands: brands, Statuses: statuses, Counts: counts}
}

// StatusTimeline groups records in one status by day of their status date
// (falling back to the record date), oldest first.
func StatusTimeline[T any](s *Schema[T], recs []T, status string) []DayCount {
	getStatus, getStatusDate := s.byKey["status"], s.byKey["statusDate"]
	grouped := map[string]int{}
	for i := range recs {
		r := &recs[i]
		if getStatus(r) != status {
			continue
		}
		d := getStatusDate(r)
		if d == "" {
			d = s.date(r)
		}
		day, _, _ := strings.Cut(d, " ")
		grouped[day]++
	}
	res := make([]DayCount, 0, len(grouped))
	for d, n := range grouped {
		res = append(res, DayCount{Date: d, Count: n})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date < res[j].Date })
	return res
}
