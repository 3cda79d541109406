package pipeline

import (
	"time"

	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

// FilterOptions selects the slice of incidents the dashboard shows.
// Zero From/To leave that end of the date range open.
type FilterOptions struct {
	Regions []string  `json:"regions"`
	From    time.Time `json:"from,omitempty"`
	To      time.Time `json:"to,omitempty"`
}

// Filter keeps rows whose region is in the selected set and whose report
// date falls inside the inclusive range, compared at day granularity. It
// runs on the raw table, before Normalize removes the region column. An
// empty region set selects nothing. Without a report-date column only the
// region filter applies.
func Filter(t *table.Table, sch *schema.Schema, opts FilterOptions) *table.Table {
	if len(opts.Regions) == 0 {
		return table.New(t.Columns()...)
	}

	regions := make(map[string]bool, len(opts.Regions))
	for _, r := range opts.Regions {
		regions[r] = true
	}

	hasDate := t.HasColumn(sch.ReportColumn)
	var from, to time.Time
	if !opts.From.IsZero() {
		from = dayStart(opts.From)
	}
	if !opts.To.IsZero() {
		to = dayStart(opts.To).AddDate(0, 0, 1)
	}

	return t.Select(func(r int) bool {
		region, ok := table.AsString(t.Cell(r, schema.ColRegion))
		if !ok || !regions[region] {
			return false
		}
		if !hasDate {
			return true
		}
		ts, ok := coerceDate(t.Cell(r, sch.ReportColumn))
		if !ok {
			return false
		}
		if !from.IsZero() && ts.Before(from) {
			return false
		}
		if !to.IsZero() && !ts.Before(to) {
			return false
		}
		return true
	})
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
