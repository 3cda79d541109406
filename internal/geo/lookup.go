// Package geo joins incident counts against the static municipality
// coordinate reference and renders the heat-map layer.
package geo

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fenix-boyaca/fenix-cli/internal/fetcher"
)

// lookup CSV header, in any order.
var requiredColumns = []string{"municipio", "lat", "lon", "departamento"}

// ErrNoLookup is returned when the coordinate file does not exist. Callers
// treat it as "no map data", not a failure.
var ErrNoLookup = eris.New("geo: coordinate lookup not found")

// Coordinate is one row of the municipality reference.
type Coordinate struct {
	Municipio    string
	Lat          float64
	Lon          float64
	Departamento string
}

// Lookup resolves normalized municipality names to coordinates.
type Lookup struct {
	byKey map[string]Coordinate
}

// NormalizeKey canonicalizes a municipality name for joining: upper-cased
// and stripped of surrounding whitespace, so " sogamoso " meets "SOGAMOSO".
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// LoadLookup reads the coordinate reference CSV. A missing file yields
// ErrNoLookup; a present file with missing columns is a real error that
// names what is missing and what was found.
func LoadLookup(ctx context.Context, path string) (*Lookup, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoLookup
		}
		return nil, eris.Wrapf(err, "geo: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "geo: read %s", path)
	}

	header := <-headerCh
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(name)] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("geo: lookup missing columns %v (found %v)", missing, header)
	}

	l := &Lookup{byKey: make(map[string]Coordinate, len(rows))}
	for _, row := range rows {
		coord, ok := parseCoordinate(row, idx)
		if !ok {
			continue
		}
		l.byKey[NormalizeKey(coord.Municipio)] = coord
	}

	zap.L().Info("coordinate lookup loaded",
		zap.String("path", path),
		zap.Int("municipalities", len(l.byKey)),
	)
	return l, nil
}

func parseCoordinate(row []string, idx map[string]int) (Coordinate, bool) {
	get := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	name := get("municipio")
	if name == "" {
		return Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(get("lat"), 64)
	if err != nil {
		return Coordinate{}, false
	}
	lon, err := strconv.ParseFloat(get("lon"), 64)
	if err != nil {
		return Coordinate{}, false
	}
	return Coordinate{
		Municipio:    name,
		Lat:          lat,
		Lon:          lon,
		Departamento: get("departamento"),
	}, true
}

// Find resolves a municipality name, normalizing it first.
func (l *Lookup) Find(name string) (Coordinate, bool) {
	c, ok := l.byKey[NormalizeKey(name)]
	return c, ok
}

// Size returns the number of reference municipalities.
func (l *Lookup) Size() int {
	return len(l.byKey)
}
