package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenix-boyaca/fenix-cli/internal/fetcher"
	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/socrata"
)

const portalBody = `[
	{"departamento":"BOYACA","municipio":"SOGAMOSO","fecha_reporte":"2023-06-01T00:00:00.000","causa_del_incendio":"Quema agrícola","rea_total_afectada_ha":"2.0"},
	{"departamento":"BOYACA","municipio":"SOGAMOSO","fecha_reporte":"2023-06-02T00:00:00.000","causa_del_incendio":"Quema agrícola","rea_total_afectada_ha":"4.0"},
	{"departamento":"BOYACA","municipio":"TUNJA","fecha_reporte":"2023-06-03T00:00:00.000","causa_del_incendio":"Rayo","rea_total_afectada_ha":"3.0"},
	{"departamento":"CASANARE","municipio":"YOPAL","fecha_reporte":"2023-06-04T00:00:00.000","causa_del_incendio":"Rayo","rea_total_afectada_ha":"9.0"}
]`

const lookupCSV = `municipio,lat,lon,departamento
SOGAMOSO,5.7146,-72.9331,BOYACA
TUNJA,5.5353,-73.3678,BOYACA
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	portal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(portalBody))
	}))
	t.Cleanup(portal.Close)

	lookupPath := filepath.Join(t.TempDir(), "coordenadas_municipios.csv")
	require.NoError(t, os.WriteFile(lookupPath, []byte(lookupCSV), 0644))

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{MaxRetries: 1})
	client := socrata.NewClient(f, socrata.Options{BaseURL: portal.URL})
	source := socrata.NewSource(client, schema.MustLoad(), nil)

	srv := New(source, schema.MustLoad(), Options{CoordinatesPath: lookupPath, TopN: 10})
	api := httptest.NewServer(srv.Router())
	t.Cleanup(api.Close)
	return api
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthz(t *testing.T) {
	api := newTestServer(t)

	var body map[string]string
	resp := getJSON(t, api.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestSummary_DefaultsToAllRegions(t *testing.T) {
	api := newTestServer(t)

	var body struct {
		Summary struct {
			Rows int `json:"rows"`
			KPIs struct {
				TotalIncendios int `json:"total_incendios"`
				Departamentos  int `json:"departamentos"`
			} `json:"kpis"`
		} `json:"summary"`
		Warning string `json:"warning"`
	}
	resp := getJSON(t, api.URL+"/api/summary", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, body.Summary.Rows)
	assert.Equal(t, 2, body.Summary.KPIs.Departamentos)
	assert.Empty(t, body.Warning)
}

func TestSummary_RegionAndDateParams(t *testing.T) {
	api := newTestServer(t)

	var body struct {
		Summary struct {
			Rows int `json:"rows"`
		} `json:"summary"`
	}
	resp := getJSON(t, api.URL+"/api/summary?regions=BOYACA&from=2023-06-01&to=2023-06-02", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, body.Summary.Rows)
}

func TestSummary_BadDateParam(t *testing.T) {
	api := newTestServer(t)

	resp := getJSON(t, api.URL+"/api/summary?from=junio", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegions(t *testing.T) {
	api := newTestServer(t)

	var meta struct {
		Regions []string `json:"regions"`
		HasDate bool     `json:"has_date"`
	}
	resp := getJSON(t, api.URL+"/api/regions", &meta)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"BOYACA", "CASANARE"}, meta.Regions)
	assert.True(t, meta.HasDate)
}

func TestIncidents_RegionColumnGoneAfterNormalize(t *testing.T) {
	api := newTestServer(t)

	var body struct {
		Rows     []map[string]any `json:"rows"`
		RowCount int              `json:"row_count"`
	}
	resp := getJSON(t, api.URL+"/api/incidents?regions=BOYACA", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, body.RowCount)
	require.NotEmpty(t, body.Rows)
	assert.NotContains(t, body.Rows[0], "departamento")
	assert.Contains(t, body.Rows[0], "municipio")
}

func TestMunicipalities(t *testing.T) {
	api := newTestServer(t)

	var rows []struct {
		Municipio       string `json:"municipio"`
		NumeroIncendios int    `json:"numero_incendios"`
	}
	resp := getJSON(t, api.URL+"/api/municipalities?regions=BOYACA", &rows)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, rows, 2)
	assert.Equal(t, "SOGAMOSO", rows[0].Municipio)
	assert.Equal(t, 2, rows[0].NumeroIncendios)
}

func TestCoverage_FiveBuckets(t *testing.T) {
	api := newTestServer(t)

	var rows []struct {
		Categoria string `json:"categoria"`
	}
	resp := getJSON(t, api.URL+"/api/coverage", &rows)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, rows, 5)
	assert.Equal(t, "Bosques", rows[0].Categoria)
}

func TestHeatmap_GeoJSON(t *testing.T) {
	api := newTestServer(t)

	resp, err := http.Get(api.URL + "/api/heatmap?regions=BOYACA")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "SOGAMOSO", fc.Features[0].Properties["municipio"])
}

func TestHeatmap_NoLookupFile(t *testing.T) {
	portal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(portalBody))
	}))
	t.Cleanup(portal.Close)

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{MaxRetries: 1})
	client := socrata.NewClient(f, socrata.Options{BaseURL: portal.URL})
	source := socrata.NewSource(client, schema.MustLoad(), nil)
	srv := New(source, schema.MustLoad(), Options{CoordinatesPath: filepath.Join(t.TempDir(), "nope.csv")})

	api := httptest.NewServer(srv.Router())
	t.Cleanup(api.Close)

	resp, err := http.Get(api.URL + "/api/heatmap")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCorrelation(t *testing.T) {
	api := newTestServer(t)

	var res struct {
		Label          string `json:"label"`
		Municipalities int    `json:"municipalities"`
	}
	resp := getJSON(t, api.URL+"/api/correlation?regions=BOYACA", &res)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, res.Municipalities)
	assert.NotEmpty(t, res.Label)
}
