package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenix-boyaca/fenix-cli/internal/schema"
)

func TestMunicipalSummary_GroupsAndSorts(t *testing.T) {
	sch := schema.MustLoad()
	raw := newRaw(t, incidentCols,
		[]any{"BOYACA", "SOGAMOSO", day(2023, time.June, 1), "Quema agrícola", "2.0"},
		[]any{"BOYACA", "SOGAMOSO", day(2023, time.June, 2), "Quema agrícola", "4.0"},
		[]any{"BOYACA", "SOGAMOSO", day(2023, time.June, 3), "Rayo", "6.0"},
		[]any{"BOYACA", "SAMACA", day(2023, time.June, 4), "Fogata", "3.0"},
	)

	rows := MunicipalSummary(raw, sch)
	require.Len(t, rows, 2)

	sogamoso := rows[0]
	assert.Equal(t, "SOGAMOSO", sogamoso.Municipio)
	assert.Equal(t, 3, sogamoso.NumeroIncendios)
	assert.Equal(t, 12.0, sogamoso.TotalHectareas)
	assert.Equal(t, 4.0, sogamoso.PromedioHectareas)
	assert.Equal(t, "Quema agrícola", sogamoso.CausaPrincipal)

	samaca := rows[1]
	assert.Equal(t, "SAMACA", samaca.Municipio)
	assert.Equal(t, 1, samaca.NumeroIncendios)
	assert.Equal(t, 3.0, samaca.TotalHectareas)
}

func TestMunicipalSummary_UnparseableAreaDroppedBeforeGrouping(t *testing.T) {
	sch := schema.MustLoad()
	raw := newRaw(t, incidentCols,
		[]any{"BOYACA", "TUNJA", day(2023, time.June, 1), "Rayo", "N/D"},
		[]any{"BOYACA", "TUNJA", day(2023, time.June, 2), "Rayo", "5.0"},
	)

	rows := MunicipalSummary(raw, sch)
	require.Len(t, rows, 1)
	// The N/D row never reaches the aggregate.
	assert.Equal(t, 1, rows[0].NumeroIncendios)
	assert.Equal(t, 5.0, rows[0].TotalHectareas)
}

func TestMunicipalSummary_DropsNonPositiveGroups(t *testing.T) {
	sch := schema.MustLoad()
	raw := newRaw(t, incidentCols,
		[]any{"BOYACA", "TUNJA", day(2023, time.June, 1), "Rayo", "0.0"},
		[]any{"BOYACA", "PAIPA", day(2023, time.June, 2), "Rayo", "1.0"},
	)

	rows := MunicipalSummary(raw, sch)
	require.Len(t, rows, 1)
	assert.Equal(t, "PAIPA", rows[0].Municipio)
}

func TestMunicipalSummary_NoCauseFallsBack(t *testing.T) {
	sch := schema.MustLoad()
	raw := newRaw(t, incidentCols,
		[]any{"BOYACA", "TUNJA", day(2023, time.June, 1), nil, "2.0"},
		[]any{"BOYACA", "TUNJA", day(2023, time.June, 2), "", "3.0"},
	)

	rows := MunicipalSummary(raw, sch)
	require.Len(t, rows, 1)
	assert.Equal(t, NoCause, rows[0].CausaPrincipal)
}

func TestMunicipalSummary_CauseTieFirstSeenWins(t *testing.T) {
	sch := schema.MustLoad()
	raw := newRaw(t, incidentCols,
		[]any{"BOYACA", "TUNJA", day(2023, time.June, 1), "Fogata", "1.0"},
		[]any{"BOYACA", "TUNJA", day(2023, time.June, 2), "Rayo", "1.0"},
		[]any{"BOYACA", "TUNJA", day(2023, time.June, 3), "Rayo", "1.0"},
		[]any{"BOYACA", "TUNJA", day(2023, time.June, 4), "Fogata", "1.0"},
	)

	rows := MunicipalSummary(raw, sch)
	require.Len(t, rows, 1)
	assert.Equal(t, "Fogata", rows[0].CausaPrincipal)
}

func TestMunicipalSummary_SortNonIncreasing(t *testing.T) {
	sch := schema.MustLoad()
	raw := newRaw(t, incidentCols,
		[]any{"BOYACA", "A", day(2023, time.June, 1), "Rayo", "1.0"},
		[]any{"BOYACA", "B", day(2023, time.June, 1), "Rayo", "1.0"},
		[]any{"BOYACA", "B", day(2023, time.June, 2), "Rayo", "1.0"},
		[]any{"BOYACA", "C", day(2023, time.June, 1), "Rayo", "1.0"},
	)

	rows := MunicipalSummary(raw, sch)
	require.Len(t, rows, 3)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].NumeroIncendios, rows[i].NumeroIncendios)
	}
	// Stable: A before C at equal counts.
	assert.Equal(t, "B", rows[0].Municipio)
	assert.Equal(t, "A", rows[1].Municipio)
	assert.Equal(t, "C", rows[2].Municipio)
}

func TestMunicipalSummary_MissingColumns(t *testing.T) {
	sch := schema.MustLoad()
	raw := newRaw(t, []string{"municipio"}, []any{"TUNJA"})

	assert.Nil(t, MunicipalSummary(raw, sch))
}
