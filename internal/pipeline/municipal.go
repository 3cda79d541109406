package pipeline

import (
	"sort"

	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

// NoCause is reported when a municipality has no usable cause values.
const NoCause = "No especificada"

// MunicipalRow is the per-municipality aggregate.
type MunicipalRow struct {
	Municipio         string  `json:"municipio"`
	TotalHectareas    float64 `json:"total_hectareas"`
	PromedioHectareas float64 `json:"promedio_hectareas"`
	NumeroIncendios   int     `json:"numero_incendios"`
	CausaPrincipal    string  `json:"causa_principal"`
}

// MunicipalSummary groups incidents by municipality: total and mean affected
// area, incident count, and the most frequent cause. Rows whose area does
// not parse are dropped first; groups with nothing left, or a non-positive
// total, are removed. The result is sorted by incident count, descending,
// with ties keeping first-seen order.
func MunicipalSummary(t *table.Table, sch *schema.Schema) []MunicipalRow {
	if !t.HasColumn(schema.ColMunicipality) || !t.HasColumn(schema.ColTotalArea) {
		return nil
	}

	type group struct {
		sum    float64
		count  int
		causes *modeCounter
	}
	groups := make(map[string]*group)
	var order []string

	for r := range t.Len() {
		area, ok := coerceFloat(t.Cell(r, schema.ColTotalArea))
		if !ok {
			continue
		}
		name, ok := table.AsString(t.Cell(r, schema.ColMunicipality))
		if !ok || name == "" {
			continue
		}

		g := groups[name]
		if g == nil {
			g = &group{causes: newModeCounter()}
			groups[name] = g
			order = append(order, name)
		}
		g.sum += area
		g.count++
		if cause, ok := table.AsString(t.Cell(r, schema.ColCause)); ok && cause != "" {
			g.causes.add(cause)
		}
	}

	var rows []MunicipalRow
	for _, name := range order {
		g := groups[name]
		if g.count <= 0 || g.sum <= 0 {
			continue
		}
		cause := g.causes.mode()
		if cause == "" {
			cause = NoCause
		}
		rows = append(rows, MunicipalRow{
			Municipio:         name,
			TotalHectareas:    g.sum,
			PromedioHectareas: g.sum / float64(g.count),
			NumeroIncendios:   g.count,
			CausaPrincipal:    cause,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].NumeroIncendios > rows[j].NumeroIncendios
	})
	return rows
}

// modeCounter tracks value frequencies, remembering first-seen order so a
// tie resolves to the first value that reached the maximum.
type modeCounter struct {
	counts map[string]int
	order  []string
}

func newModeCounter() *modeCounter {
	return &modeCounter{counts: make(map[string]int)}
}

func (m *modeCounter) add(v string) {
	if _, seen := m.counts[v]; !seen {
		m.order = append(m.order, v)
	}
	m.counts[v]++
}

// mode returns the most frequent value, or "" when nothing was counted.
func (m *modeCounter) mode() string {
	best := ""
	bestCount := 0
	for _, v := range m.order {
		if m.counts[v] > bestCount {
			best = v
			bestCount = m.counts[v]
		}
	}
	return best
}
