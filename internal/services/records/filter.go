package records

import (
	"sort"
	"strings"
	"time"

	"github.com/BearBump/ShipDesk/internal/normalize"
	"github.com/pkg/errors"
)

const (
	AllBrands = "All"

	SortAsc  = "asc"
	SortDesc = "desc"

	// EmptyValue labels blank cells in column value menus.
	EmptyValue = "-"

	maxUniqueValues = 50
	dateLayout      = "2006-01-02"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrBadDate       = errors.New("bad date")
	ErrBadSortDir    = errors.New("bad sort direction")
)

type Sort struct {
	Key string `json:"key"`
	Dir string `json:"dir"`
}

// Toggle returns the sort state after the user picks key: the same key in
// ascending order flips to descending, anything else starts ascending.
func (s Sort) Toggle(key string) Sort {
	if s.Key == key && s.Dir == SortAsc {
		return Sort{Key: key, Dir: SortDesc}
	}
	return Sort{Key: key, Dir: SortAsc}
}

// Filter is the full view state. Zero value passes everything through unsorted.
type Filter struct {
	Brand   string
	Search  string
	Start   string // YYYY-MM-DD, inclusive
	End     string // YYYY-MM-DD, inclusive through 23:59:59
	Columns map[string][]string
	Sort    Sort
}

// Apply returns a new slice; recs is never reordered.
func Apply[T any](s *Schema[T], recs []T, f Filter) ([]T, error) {
	start, end, err := parseRange(f.Start, f.End)
	if err != nil {
		return nil, err
	}
	for key := range f.Columns {
		if !s.Has(key) {
			return nil, errors.Wrap(ErrUnknownColumn, key)
		}
	}
	if f.Sort.Key != "" && !s.Has(f.Sort.Key) {
		return nil, errors.Wrap(ErrUnknownColumn, f.Sort.Key)
	}
	switch f.Sort.Dir {
	case "", SortAsc, SortDesc:
	default:
		return nil, errors.Wrap(ErrBadSortDir, f.Sort.Dir)
	}

	selected := make(map[string]map[string]struct{}, len(f.Columns))
	for key, vals := range f.Columns {
		if len(vals) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			set[v] = struct{}{}
		}
		selected[key] = set
	}
	needle := strings.ToLower(f.Search)

	out := make([]T, 0, len(recs))
	for i := range recs {
		r := &recs[i]
		if f.Brand != "" && f.Brand != AllBrands && s.brand(r) != f.Brand {
			continue
		}
		if !inRange(s.date(r), start, end) {
			continue
		}
		if needle != "" && !s.matchesSearch(r, needle) {
			continue
		}
		if !s.matchesColumns(r, selected) {
			continue
		}
		out = append(out, *r)
	}

	if f.Sort.Key != "" {
		SortBy(s, out, f.Sort)
	}
	return out, nil
}

// SortBy sorts in place, comparing string values lexicographically. Equal
// values keep their relative order.
func SortBy[T any](s *Schema[T], recs []T, by Sort) {
	get, ok := s.byKey[by.Key]
	if !ok {
		return
	}
	desc := by.Dir == SortDesc
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := get(&recs[i]), get(&recs[j])
		if desc {
			return a > b
		}
		return a < b
	})
}

func (s *Schema[T]) matchesSearch(r *T, needle string) bool {
	for _, g := range s.search {
		if strings.Contains(strings.ToLower(g(r)), needle) {
			return true
		}
	}
	return false
}

// matchesColumns: every active column must contain the record's value. An
// empty selection is not active. EmptyValue selects blank cells.
func (s *Schema[T]) matchesColumns(r *T, selected map[string]map[string]struct{}) bool {
	for key, set := range selected {
		v := s.byKey[key](r)
		if _, ok := set[v]; ok {
			continue
		}
		if v == "" {
			if _, ok := set[EmptyValue]; ok {
				continue
			}
		}
		return false
	}
	return true
}

func parseRange(startRaw, endRaw string) (start, end time.Time, err error) {
	if startRaw != "" {
		start, err = time.ParseInLocation(dateLayout, startRaw, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrapf(ErrBadDate, "start %q", startRaw)
		}
	}
	if endRaw != "" {
		end, err = time.ParseInLocation(dateLayout, endRaw, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrapf(ErrBadDate, "end %q", endRaw)
		}
		end = end.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	return start, end, nil
}

// inRange keeps records whose date cannot be parsed.
func inRange(raw string, start, end time.Time) bool {
	if start.IsZero() && end.IsZero() {
		return true
	}
	d, ok := normalize.ParseDisplayTime(raw)
	if !ok {
		return true
	}
	if !start.IsZero() && d.Before(start) {
		return false
	}
	if !end.IsZero() && d.After(end) {
		return false
	}
	return true
}

// UniqueValues lists the distinct values of a column for a filter menu: sorted,
// blanks shown as EmptyValue, at most 50 entries.
func UniqueValues[T any](s *Schema[T], recs []T, key string) ([]string, error) {
	get, ok := s.byKey[key]
	if !ok {
		return nil, errors.Wrap(ErrUnknownColumn, key)
	}
	seen := make(map[string]struct{})
	for i := range recs {
		v := get(&recs[i])
		if v == "" {
			v = EmptyValue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) > maxUniqueValues {
		out = out[:maxUniqueValues]
	}
	return out, nil
}
