// Package server exposes the pipeline over a JSON API. This is the
// presentation-layer boundary: a dashboard frontend renders from these
// endpoints, nothing here draws anything.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/fenix-boyaca/fenix-cli/internal/geo"
	"github.com/fenix-boyaca/fenix-cli/internal/pipeline"
	"github.com/fenix-boyaca/fenix-cli/internal/schema"
	"github.com/fenix-boyaca/fenix-cli/internal/socrata"
	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

// Options configures the API server.
type Options struct {
	CoordinatesPath string
	TopN            int
}

// Server serves the dashboard JSON API from the memoized incident source.
type Server struct {
	source *socrata.Source
	sch    *schema.Schema
	opts   Options

	lookupOnce sync.Once
	lookup     *geo.Lookup
	lookupErr  error
}

// New creates a Server.
func New(source *socrata.Source, sch *schema.Schema, opts Options) *Server {
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	return &Server{source: source, sch: sch, opts: opts}
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/regions", s.handleRegions)
		r.Get("/incidents", s.handleIncidents)
		r.Get("/coverage", s.handleCoverage)
		r.Get("/municipalities", s.handleMunicipalities)
		r.Get("/causes", s.handleCauses)
		r.Get("/heatmap", s.handleHeatmap)
		r.Get("/correlation", s.handleCorrelation)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// filterFromQuery builds the filter selection from query parameters.
// Without a regions parameter every region in the table is selected.
func (s *Server) filterFromQuery(r *http.Request, raw *table.Table) (pipeline.FilterOptions, error) {
	opts := pipeline.FilterOptions{}

	if regions := r.URL.Query()["regions"]; len(regions) > 0 {
		for _, chunk := range regions {
			for _, region := range strings.Split(chunk, ",") {
				if region = strings.TrimSpace(region); region != "" {
					opts.Regions = append(opts.Regions, region)
				}
			}
		}
	} else {
		opts.Regions = pipeline.Regions(raw)
	}

	var err error
	if from := r.URL.Query().Get("from"); from != "" {
		if opts.From, err = time.Parse("2006-01-02", from); err != nil {
			return opts, err
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if opts.To, err = time.Parse("2006-01-02", to); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func (s *Server) compute(w http.ResponseWriter, r *http.Request) (*pipeline.Summary, socrata.Result, bool) {
	res := s.source.Incidents(r.Context())
	opts, err := s.filterFromQuery(r, res.Table)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return nil, res, false
	}
	return pipeline.Compute(res.Table, s.sch, opts, s.opts.TopN), res, true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, res, ok := s.compute(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":       sum,
		"warning":       res.Warning,
		"from_snapshot": res.FromSnapshot,
	})
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	res := s.source.Incidents(r.Context())
	writeJSON(w, http.StatusOK, pipeline.Describe(res.Table, s.sch))
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	res := s.source.Incidents(r.Context())
	opts, err := s.filterFromQuery(r, res.Table)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	filtered := pipeline.Filter(res.Table, s.sch, opts)
	norm := pipeline.Normalize(filtered, s.sch)
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":      tableRecords(norm),
		"row_count": norm.Len(),
	})
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	sum, _, ok := s.compute(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sum.Coverage)
}

func (s *Server) handleMunicipalities(w http.ResponseWriter, r *http.Request) {
	sum, _, ok := s.compute(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sum.Municipalities)
}

func (s *Server) handleCauses(w http.ResponseWriter, r *http.Request) {
	sum, _, ok := s.compute(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sum.TopCauses)
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	sum, _, ok := s.compute(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sum.Correlation)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	s.lookupOnce.Do(func() {
		s.lookup, s.lookupErr = geo.LoadLookup(r.Context(), s.opts.CoordinatesPath)
	})
	if s.lookupErr != nil {
		zap.L().Warn("heatmap unavailable", zap.Error(s.lookupErr))
		writeError(w, http.StatusNotFound, "no map data")
		return
	}

	res := s.source.Incidents(r.Context())
	opts, err := s.filterFromQuery(r, res.Table)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	filtered := pipeline.Filter(res.Table, s.sch, opts)

	data, err := geo.BuildHeatMap(filtered, s.lookup).GeoJSON()
	if err != nil {
		zap.L().Error("heatmap encode failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "heatmap encoding failed")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// tableRecords flattens a table to JSON-friendly records.
func tableRecords(t *table.Table) []map[string]any {
	records := make([]map[string]any, 0, t.Len())
	cols := t.Columns()
	for r := range t.Len() {
		rec := make(map[string]any, len(cols))
		for _, col := range cols {
			switch v := t.Cell(r, col).(type) {
			case nil:
				// omit missing cells
			case time.Time:
				rec[col] = v.Format("2006-01-02T15:04:05")
			case table.TimeOfDay:
				rec[col] = v.String()
			default:
				rec[col] = v
			}
		}
		records = append(records, rec)
	}
	return records
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
