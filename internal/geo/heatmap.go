package geo

import (
	"sort"

	"go.uber.org/zap"

	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

// HeatPoint is one municipality on the map.
type HeatPoint struct {
	Municipio    string  `json:"municipio"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Frecuencia   int     `json:"frecuencia_incendios"`
	Departamento string  `json:"departamento"`
}

// HeatMap is the joined map layer plus the stats printed under it.
type HeatMap struct {
	Points          []HeatPoint `json:"points"`
	TotalMunicipios int         `json:"total_municipios"`
	Mapped          int         `json:"mapped"`
	MaxFrecuencia   int         `json:"max_frecuencia"`
	MeanFrecuencia  float64     `json:"mean_frecuencia"`
	Critico         string      `json:"municipio_critico"`
}

// BuildHeatMap counts incidents per municipality and inner-joins the counts
// against the coordinate lookup on the normalized name. Municipalities
// without a reference row are silently excluded; the Mapped/TotalMunicipios
// pair is the only trace they leave.
func BuildHeatMap(t *table.Table, lookup *Lookup) *HeatMap {
	counter := make(map[string]int)
	if t.HasColumn(schema.ColMunicipality) {
		for r := range t.Len() {
			s, ok := table.AsString(t.Cell(r, schema.ColMunicipality))
			if !ok || NormalizeKey(s) == "" {
				continue
			}
			counter[NormalizeKey(s)]++
		}
	}

	h := &HeatMap{TotalMunicipios: len(counter)}

	var total int
	for key, freq := range counter {
		coord, ok := lookup.Find(key)
		if !ok {
			continue
		}
		h.Points = append(h.Points, HeatPoint{
			Municipio:    coord.Municipio,
			Lat:          coord.Lat,
			Lon:          coord.Lon,
			Frecuencia:   freq,
			Departamento: coord.Departamento,
		})
		total += freq
	}

	sort.Slice(h.Points, func(i, j int) bool {
		if h.Points[i].Frecuencia != h.Points[j].Frecuencia {
			return h.Points[i].Frecuencia > h.Points[j].Frecuencia
		}
		return h.Points[i].Municipio < h.Points[j].Municipio
	})

	h.Mapped = len(h.Points)
	if h.Mapped > 0 {
		h.MaxFrecuencia = h.Points[0].Frecuencia
		h.MeanFrecuencia = float64(total) / float64(h.Mapped)
		h.Critico = h.Points[0].Municipio
	}

	if h.Mapped < h.TotalMunicipios {
		zap.L().Info("municipalities without coordinates excluded",
			zap.Int("mapped", h.Mapped),
			zap.Int("total", h.TotalMunicipios),
		)
	}
	return h
}
