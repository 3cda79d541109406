package pipeline

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

// CountRow is one entry of a frequency ranking.
type CountRow struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TopMunicipalities ranks municipalities by incident count, descending.
func TopMunicipalities(t *table.Table, n int) []CountRow {
	return topValues(t, schema.ColMunicipality, n)
}

// TopCauses ranks fire causes by frequency, descending.
func TopCauses(t *table.Table, n int) []CountRow {
	return topValues(t, schema.ColCause, n)
}

func topValues(t *table.Table, col string, n int) []CountRow {
	if !t.HasColumn(col) {
		return nil
	}
	counter := newModeCounter()
	for r := range t.Len() {
		if s, ok := table.AsString(t.Cell(r, col)); ok && s != "" {
			counter.add(s)
		}
	}

	rows := make([]CountRow, 0, len(counter.order))
	for _, v := range counter.order {
		rows = append(rows, CountRow{Name: v, Count: counter.counts[v]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Regions lists the distinct region values, sorted with Spanish collation so
// accented names order the way a Colombian reader expects.
func Regions(t *table.Table) []string {
	if !t.HasColumn(schema.ColRegion) {
		return nil
	}
	distinct := make(map[string]bool)
	for r := range t.Len() {
		if s, ok := table.AsString(t.Cell(r, schema.ColRegion)); ok && s != "" {
			distinct[s] = true
		}
	}

	regions := make([]string, 0, len(distinct))
	for s := range distinct {
		regions = append(regions, s)
	}
	collate.New(language.Spanish).SortStrings(regions)
	return regions
}

// DateRange reports the earliest and latest report dates in the table.
// ok is false when no parseable date exists.
func DateRange(t *table.Table, sch *schema.Schema) (min, max time.Time, ok bool) {
	if !t.HasColumn(sch.ReportColumn) {
		return time.Time{}, time.Time{}, false
	}
	for r := range t.Len() {
		ts, valid := coerceDate(t.Cell(r, sch.ReportColumn))
		if !valid {
			continue
		}
		if !ok || ts.Before(min) {
			min = ts
		}
		if !ok || ts.After(max) {
			max = ts
		}
		ok = true
	}
	return min, max, ok
}
