package pipeline

import (
	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

// KPISummary is the headline strip of the dashboard.
type KPISummary struct {
	TotalIncendios   int     `json:"total_incendios"`
	TotalHectareas   float64 `json:"total_hectareas"`
	Departamentos    int     `json:"departamentos"`
	MunicipioCritico string  `json:"municipio_critico"`
}

// KPIs computes the headline figures over the filtered raw table (the region
// column is still present at this point). A missing area column counts as
// zero hectares; no municipalities yields an empty critical municipality.
func KPIs(t *table.Table, sch *schema.Schema) KPISummary {
	kpi := KPISummary{TotalIncendios: t.Len()}

	if t.HasColumn(schema.ColTotalArea) {
		for r := range t.Len() {
			if f, ok := coerceFloat(t.Cell(r, schema.ColTotalArea)); ok {
				kpi.TotalHectareas += f
			}
		}
	}

	if t.HasColumn(schema.ColRegion) {
		distinct := make(map[string]bool)
		for r := range t.Len() {
			if s, ok := table.AsString(t.Cell(r, schema.ColRegion)); ok && s != "" {
				distinct[s] = true
			}
		}
		kpi.Departamentos = len(distinct)
	}

	if t.HasColumn(schema.ColMunicipality) {
		counter := newModeCounter()
		for r := range t.Len() {
			if s, ok := table.AsString(t.Cell(r, schema.ColMunicipality)); ok && s != "" {
				counter.add(s)
			}
		}
		kpi.MunicipioCritico = counter.mode()
	}

	return kpi
}
