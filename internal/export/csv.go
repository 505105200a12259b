package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/BearBump/ShipDesk/internal/services/records"
	"github.com/pkg/errors"
)

const ContentType = "text/csv; charset=utf-8"

// WriteCSV writes a header row of column keys followed by one row per record.
func WriteCSV[T any](w io.Writer, s *records.Schema[T], recs []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Keys()); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for i := range recs {
		if err := cw.Write(s.Row(&recs[i])); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// Filename is the download name, e.g. outbound_tracker_2025-12-14.csv.
func Filename(kind string, day time.Time) string {
	return fmt.Sprintf("%s_tracker_%s.csv", kind, day.Format("2006-01-02"))
}
