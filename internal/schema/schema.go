// Package schema describes the fire-incident dataset: which columns carry
// which type, which administrative columns get dropped, and how the hectare
// fields group into coverage buckets. The descriptor is a single embedded
// YAML file so the normalizer and the coverage aggregator can never drift
// apart.
package schema

import (
	_ "embed"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Well-known column names used across the pipeline.
const (
	ColRegion       = "departamento"
	ColMunicipality = "municipio"
	ColReportDate   = "fecha_reporte"
	ColCause        = "causa_del_incendio"
	ColTotalArea    = "rea_total_afectada_ha"
)

//go:embed schema.yaml
var descriptor []byte

// Bucket is one coverage category and its member hectare fields.
type Bucket struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
}

// Schema is the parsed dataset descriptor.
type Schema struct {
	ReportColumn string   `yaml:"report_column"`
	KeyColumns   []string `yaml:"key_columns"`
	Drop         []string `yaml:"drop"`
	Dates        []string `yaml:"dates"`
	Times        []string `yaml:"times"`
	Strings      []string `yaml:"strings"`
	Bools        []string `yaml:"bools"`
	Numeric      []string `yaml:"numeric"`
	Buckets      []Bucket `yaml:"buckets"`

	numericSet map[string]bool
}

var (
	loadOnce sync.Once
	loaded   *Schema
	loadErr  error
)

// Load parses the embedded descriptor. The result is cached; callers share
// one immutable Schema.
func Load() (*Schema, error) {
	loadOnce.Do(func() {
		s := &Schema{}
		if err := yaml.Unmarshal(descriptor, s); err != nil {
			loadErr = eris.Wrap(err, "schema: parse descriptor")
			return
		}
		s.numericSet = make(map[string]bool, len(s.Numeric))
		for _, c := range s.Numeric {
			s.numericSet[c] = true
		}
		for _, b := range s.Buckets {
			for _, f := range b.Fields {
				if !s.numericSet[f] {
					loadErr = eris.Errorf("schema: bucket %q references unknown field %q", b.Name, f)
					return
				}
			}
		}
		loaded = s
	})
	return loaded, loadErr
}

// MustLoad is Load for callers that treat a broken embedded descriptor as a
// programming error.
func MustLoad() *Schema {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

// IsNumeric reports whether the column is one of the declared hectare or
// elevation fields.
func (s *Schema) IsNumeric(col string) bool {
	return s.numericSet[col]
}
