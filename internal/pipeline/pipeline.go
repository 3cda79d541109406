package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

// Summary bundles every table the dashboard renders for one filter
// selection.
type Summary struct {
	Filter            FilterOptions     `json:"filter"`
	Rows              int               `json:"rows"`
	KPIs              KPISummary        `json:"kpis"`
	Coverage          []CoverageRow     `json:"coverage"`
	Municipalities    []MunicipalRow    `json:"municipalities"`
	TopMunicipalities []CountRow        `json:"top_municipalities"`
	TopCauses         []CountRow        `json:"top_causes"`
	Correlation       CorrelationResult `json:"correlation"`
}

// Metadata describes the filterable surface of a raw table: the regions it
// covers and the span of report dates. The UI uses it to populate widgets.
type Metadata struct {
	Regions []string  `json:"regions"`
	MinDate time.Time `json:"min_date,omitempty"`
	MaxDate time.Time `json:"max_date,omitempty"`
	HasDate bool      `json:"has_date"`
}

// Describe extracts filter metadata from the raw table.
func Describe(raw *table.Table, sch *schema.Schema) Metadata {
	min, max, ok := DateRange(raw, sch)
	return Metadata{
		Regions: Regions(raw),
		MinDate: min,
		MaxDate: max,
		HasDate: ok,
	}
}

// Compute runs the full pipeline over a raw table. The filter applies
// first, while the region column still exists; normalization follows, and
// every aggregate runs on the normalized slice. topN bounds the rankings
// (<= 0 means 10).
func Compute(raw *table.Table, sch *schema.Schema, opts FilterOptions, topN int) *Summary {
	if topN <= 0 {
		topN = 10
	}

	filtered := Filter(raw, sch, opts)
	kpis := KPIs(filtered, sch)

	norm := Normalize(filtered, sch)
	municipal := MunicipalSummary(norm, sch)

	zap.L().Debug("pipeline computed",
		zap.Int("raw_rows", raw.Len()),
		zap.Int("filtered_rows", filtered.Len()),
		zap.Int("municipalities", len(municipal)),
	)

	return &Summary{
		Filter:            opts,
		Rows:              filtered.Len(),
		KPIs:              kpis,
		Coverage:          CoverageSummary(norm, sch),
		Municipalities:    municipal,
		TopMunicipalities: TopMunicipalities(norm, topN),
		TopCauses:         TopCauses(norm, topN),
		Correlation:       Correlation(municipal),
	}
}
