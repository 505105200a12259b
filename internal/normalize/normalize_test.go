package normalize

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseCompactTimestamp(t *testing.T) {
	ts, ok := ParseCompactTimestamp("20251214093005")
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 12, 14, 9, 30, 5, 0, time.Local), ts)

	_, ok = ParseCompactTimestamp("2025121409300")
	require.False(t, ok)
	_, ok = ParseCompactTimestamp("")
	require.False(t, ok)
	_, ok = ParseCompactTimestamp("2025AB14093005")
	require.False(t, ok)
}

func TestFormatTimestamp_LenientDegrade(t *testing.T) {
	require.Equal(t, "2025-12-14 09:30:05", FormatTimestamp("20251214093005"))
	require.Equal(t, "not-a-date", FormatTimestamp("not-a-date"))
	require.Equal(t, "", FormatTimestamp(""))
}

func TestFormatTimestamp_RoundTripMatchesSlicing(t *testing.T) {
	for _, s := range []string{"20250101000000", "19991231235959", "20240229120000", "20251214093005"} {
		want := fmt.Sprintf("%s-%s-%s %s:%s:%s", s[0:4], s[4:6], s[6:8], s[8:10], s[10:12], s[12:14])
		ts, ok := ParseCompactTimestamp(s)
		require.True(t, ok)
		require.Equal(t, want, FormatTime(ts), s)
	}
}

func TestParseDisplayTime(t *testing.T) {
	ts, ok := ParseDisplayTime("2025-12-14 09:30:05")
	require.True(t, ok)
	require.Equal(t, 9, ts.Hour())
	_, ok = ParseDisplayTime("14/12/2025")
	require.False(t, ok)
}

func TestAPIDateParam(t *testing.T) {
	require.Equal(t, "20251214", APIDateParam(time.Date(2025, 12, 14, 23, 0, 0, 0, time.UTC)))
}

func TestExtractCoreReference(t *testing.T) {
	cases := map[string]string{
		"RET-10000498834-1": "10000498834",
		"ret-10000498834-1": "10000498834",
		"SHP-20003":         "20003",
		"RMA-H-5003":        "H-5003",
		"RMA-1234-9":        "1234-9",
		"H10545":            "H10545",
		"":                  "",
		"RET-RMA-55555-2":   "55555",
		"XYZ-12345":         "XYZ-12345",
	}
	for in, want := range cases {
		require.Equal(t, want, ExtractCoreReference(in), in)
	}
}

func TestExtractCoreReference_Idempotent(t *testing.T) {
	for _, in := range []string{
		"RET-10000498834-1", "RMA-H-5003", "RET-RMA-abc", "SHP-shp-RET-77777-x",
		"12345-67", "abc", "-", "RET-", "RMA-1234-9", "ret-Rma-00000000-1",
	} {
		once := ExtractCoreReference(in)
		require.Equal(t, once, ExtractCoreReference(once), in)
	}
}

func TestStatusToken(t *testing.T) {
	require.Equal(t, "AWAITING_STOCK", StatusToken("Awaiting Stock"))
	require.Equal(t, "IN_PICKING_QUEUE", StatusToken("In  Picking\tQueue"))
	require.Equal(t, "DELIVERED", StatusToken("delivered"))
}
