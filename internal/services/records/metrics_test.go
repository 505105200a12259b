package records

import (
	"testing"
	"time"

	"github.com/BearBump/ShipDesk/internal/models"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 12, 14, 0, 0, 0, 0, time.Local)

func TestComputeMetrics(t *testing.T) {
	out := []models.OutboundShipment{
		{Brand: "Diesel", Status: "DELIVERED", Date: "2025-12-14 08:15:00"},
		{Brand: "Diesel", Status: "IN_PICKING_QUEUE", Date: "2025-12-14 08:45:00"},
		{Brand: "Hurley", Status: "CANCELLED", Date: "2025-12-14 16:00:00"},
		{Brand: "Hurley", Status: "FAILED_DELIVERY_ATTEMPT", Date: "2025-12-13 09:00:00"},
		{Brand: "Hurley", Status: "PICKUP_EXCEPTION", Date: "2025-12-12 09:00:00"},
		{Brand: "Unknown", Status: "SHIPPED", Date: "2025-12-12 09:00:00"},
	}
	in := []models.InboundReturn{
		{Brand: "Diesel", Status: "COMPLETED", Tracking: "WAY1"},
		{Brand: "Diesel", Status: "AWAITING_ARRIVAL", Tracking: " "},
		{Brand: "Hurley", Status: "FAILED"},
		{Brand: "Hurley", Status: "CREATED"},
		{Brand: "Diesel", Status: "CREATED"},
	}

	m := ComputeMetrics(out, in, today, []string{"Diesel", "Hurley"})

	require.Equal(t, 5, m.Outbound[BucketTotalOrders])
	require.Equal(t, 1, m.Outbound[BucketDelivered])
	require.Equal(t, 3, m.Outbound[BucketProcessing])
	require.Equal(t, 1, m.Outbound[BucketExceptions])
	require.Equal(t, 1, m.Outbound[BucketFailedDelivery])
	require.Equal(t, 3, m.Outbound[BucketCreatedToday])

	require.Equal(t, 5, m.Inbound[BucketTotalIn])
	require.Equal(t, 1, m.Inbound[BucketCompletedIn])
	require.Equal(t, 1, m.Inbound[BucketPendingIn])
	require.Equal(t, 1, m.Inbound[BucketFailedIn])
	require.Equal(t, 4, m.Inbound[BucketMissingWaybill])

	require.Len(t, m.CreatedTodayByHour, 24)
	require.Equal(t, HourCount{Hour: "08:00", Orders: 2}, m.CreatedTodayByHour[8])
	require.Equal(t, 1, m.CreatedTodayByHour[16].Orders)

	require.Equal(t, []BrandCount{{Brand: "Diesel", Count: 2}, {Brand: "Hurley", Count: 2}}, m.MissingWaybillByBrand)

	require.Equal(t, []string{"Diesel", "Hurley"}, m.OutboundMatrix.Brands)
	delivered := indexOf(OutboundStatusTabs, "DELIVERED")
	require.Equal(t, 1, m.OutboundMatrix.Counts[0][delivered])
	failed := indexOf(InboundStatusTabs, "FAILED")
	require.Equal(t, 1, m.InboundMatrix.Counts[1][failed])
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

func TestBuckets(t *testing.T) {
	out := []models.OutboundShipment{
		{ID: "1", Status: "ON_HOLD", Date: "2025-12-14 10:00:00"},
		{ID: "2", Status: "ON_HOLD", Date: "2025-12-10 10:00:00"},
		{ID: "3", Status: "PACKED", Date: "2025-12-14 11:00:00"},
	}
	require.Len(t, OutboundBucket(BucketOnHold, out, today), 2)
	require.Len(t, OutboundBucket(BucketCreatedToday, out, today), 2)
	require.Empty(t, OutboundBucket("NOPE", out, today))
	require.True(t, IsOutboundBucket(BucketCreatedToday))
	require.False(t, IsOutboundBucket(BucketTotalIn))

	in := []models.InboundReturn{{Status: "FAILED"}, {Status: "COMPLETED", Tracking: "W"}}
	require.Len(t, InboundBucket(BucketFailedIn, in), 1)
	require.Len(t, InboundBucket(BucketMissingWaybill, in), 1)
	require.True(t, IsInboundBucket(BucketPendingIn))
}

func TestStatusTimeline(t *testing.T) {
	out := []models.OutboundShipment{
		{Status: "SHIPPED", StatusDate: "2025-12-13 10:00:00", Date: "2025-12-10 10:00:00"},
		{Status: "SHIPPED", StatusDate: "", Date: "2025-12-11 10:00:00"},
		{Status: "SHIPPED", StatusDate: "2025-12-13 18:00:00"},
		{Status: "PACKED", StatusDate: "2025-12-13 18:00:00"},
	}
	got := StatusTimeline(Outbound, out, "SHIPPED")
	require.Equal(t, []DayCount{{Date: "2025-12-11", Count: 1}, {Date: "2025-12-13", Count: 2}}, got)
}

func matrixTotal(m StatusMatrix) int {
	n := 0
	for _, row := range m.Counts {
		for _, c := range row {
			n += c
		}
	}
	return n
}

func TestComputeMetrics_OffVocabularyStatus(t *testing.T) {
	out := []models.OutboundShipment{
		{Brand: "Diesel", Status: "SHIPPED"},
		{Brand: "Diesel", Status: "LOST_IN_SPACE"},
		{Brand: "Diesel", Status: "COMPLETED"},
	}
	in := []models.InboundReturn{
		{Brand: "Diesel", Status: "CREATED"},
		{Brand: "Diesel", Status: "MISROUTED"},
	}

	m := ComputeMetrics(out, in, today, []string{"Diesel"})

	require.Equal(t, len(out), matrixTotal(m.OutboundMatrix))
	require.Equal(t, len(in), matrixTotal(m.InboundMatrix))

	require.Equal(t, StatusOther, m.OutboundMatrix.Statuses[len(m.OutboundMatrix.Statuses)-1])
	other := len(OutboundStatusTabs)
	// LOST_IN_SPACE has no tab, COMPLETED is known but not a tab either
	require.Equal(t, 2, m.OutboundMatrix.Counts[0][other])
	require.Equal(t, 1, m.InboundMatrix.Counts[0][len(InboundStatusTabs)])

	require.Equal(t, 1, m.Outbound[BucketUnknownStatus])
	require.Equal(t, 1, m.Inbound[BucketUnknownIn])

	lost := OutboundBucket(BucketUnknownStatus, out, today)
	require.Len(t, lost, 1)
	require.Equal(t, "LOST_IN_SPACE", lost[0].Status)
	require.Len(t, InboundBucket(BucketUnknownIn, in), 1)

	// tab list itself is untouched
	require.NotContains(t, OutboundStatusTabs, StatusOther)
}
