package pipeline

import (
	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

// CoverageRow is the affected area total for one land-coverage category.
type CoverageRow struct {
	Categoria      string  `json:"categoria"`
	TotalHectareas float64 `json:"total_hectareas"`
}

// CoverageSummary sums the affected hectares per coverage bucket, in the
// fixed display order. Missing and non-numeric cells count as zero. Hectare
// fields outside every bucket are deliberately left out.
func CoverageSummary(t *table.Table, sch *schema.Schema) []CoverageRow {
	rows := make([]CoverageRow, 0, len(sch.Buckets))
	for _, bucket := range sch.Buckets {
		var total float64
		for _, field := range bucket.Fields {
			if !t.HasColumn(field) {
				continue
			}
			for r := range t.Len() {
				if f, ok := coerceFloat(t.Cell(r, field)); ok {
					total += f
				}
			}
		}
		rows = append(rows, CoverageRow{Categoria: bucket.Name, TotalHectareas: total})
	}
	return rows
}
