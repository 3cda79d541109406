package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fenix-boyaca/fenix-cli/internal/table"
)

func newRaw(t *testing.T, cols []string, rows ...[]any) *table.Table {
	t.Helper()
	tbl := table.New(cols...)
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row...))
	}
	return tbl
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// incidentCols is the minimal raw layout most tests use.
var incidentCols = []string{
	"departamento", "municipio", "fecha_reporte",
	"causa_del_incendio", "rea_total_afectada_ha",
}
