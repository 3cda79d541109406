package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Descriptor(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ColReportDate, s.ReportColumn)
	assert.Equal(t, []string{"departamento", "municipio", "fecha_reporte"}, s.KeyColumns)
	assert.Contains(t, s.Drop, "observaciones")
	assert.Contains(t, s.Drop, ColRegion)
	assert.Len(t, s.Dates, 3)
	assert.Len(t, s.Times, 2)
	assert.Len(t, s.Strings, 4)
	assert.Len(t, s.Bools, 1)
	assert.Len(t, s.Numeric, 101)
}

func TestLoad_BucketOrder(t *testing.T) {
	s := MustLoad()

	var names []string
	for _, b := range s.Buckets {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"Bosques", "Cultivos", "Pastos", "Zonas urbanas", "Otras coberturas"}, names)
}

func TestLoad_BucketFieldsAreNumeric(t *testing.T) {
	s := MustLoad()

	total := 0
	for _, b := range s.Buckets {
		total += len(b.Fields)
		for _, f := range b.Fields {
			assert.True(t, s.IsNumeric(f), "bucket %s field %s", b.Name, f)
		}
	}
	// 14 + 17 + 10 + 8 + 6; the rest of the hectare fields stay unbucketed.
	assert.Equal(t, 55, total)
	assert.False(t, s.IsNumeric(ColMunicipality))
}
