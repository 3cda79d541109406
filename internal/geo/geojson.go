package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// GeoJSON renders the heat map as a FeatureCollection of points, one per
// mapped municipality, with the frequency attached as properties.
func (h *HeatMap) GeoJSON() ([]byte, error) {
	fc := &geojson.FeatureCollection{}
	for _, p := range h.Points {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}),
			Properties: map[string]any{
				"municipio":            p.Municipio,
				"departamento":         p.Departamento,
				"frecuencia_incendios": p.Frecuencia,
			},
		})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode geojson")
	}
	return data, nil
}
