package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelation_Insufficient(t *testing.T) {
	res := Correlation(nil)
	assert.True(t, res.Insufficient)
	assert.Equal(t, LabelInsufficient, res.Label)
	assert.Zero(t, res.Coefficient)

	res = Correlation([]MunicipalRow{{Municipio: "TUNJA", NumeroIncendios: 3, TotalHectareas: 5}})
	assert.True(t, res.Insufficient)
	assert.Equal(t, 1, res.Municipalities)
}

func TestCorrelation_PerfectPositive(t *testing.T) {
	rows := []MunicipalRow{
		{NumeroIncendios: 1, TotalHectareas: 2},
		{NumeroIncendios: 2, TotalHectareas: 4},
		{NumeroIncendios: 3, TotalHectareas: 6},
	}

	res := Correlation(rows)
	assert.False(t, res.Insufficient)
	assert.InDelta(t, 1.0, res.Coefficient, 1e-9)
	assert.Equal(t, LabelStrongPositive, res.Label)
	assert.Equal(t, 3, res.Municipalities)
}

func TestCorrelation_NegativeIsWeakLabel(t *testing.T) {
	rows := []MunicipalRow{
		{NumeroIncendios: 1, TotalHectareas: 9},
		{NumeroIncendios: 2, TotalHectareas: 5},
		{NumeroIncendios: 3, TotalHectareas: 1},
	}

	res := Correlation(rows)
	assert.Less(t, res.Coefficient, 0.0)
	assert.Equal(t, LabelWeak, res.Label)
}

func TestCorrelation_ZeroVariance(t *testing.T) {
	rows := []MunicipalRow{
		{NumeroIncendios: 2, TotalHectareas: 3},
		{NumeroIncendios: 2, TotalHectareas: 7},
	}

	res := Correlation(rows)
	assert.Zero(t, res.Coefficient)
	assert.Equal(t, LabelWeak, res.Label)
}

func TestCorrelation_AlwaysInRange(t *testing.T) {
	rows := []MunicipalRow{
		{NumeroIncendios: 1, TotalHectareas: 0.1},
		{NumeroIncendios: 5, TotalHectareas: 123.4},
		{NumeroIncendios: 9, TotalHectareas: 2.5},
		{NumeroIncendios: 14, TotalHectareas: 87.0},
	}

	res := Correlation(rows)
	assert.GreaterOrEqual(t, res.Coefficient, -1.0)
	assert.LessOrEqual(t, res.Coefficient, 1.0)
}

func TestCorrelationLabel_Thresholds(t *testing.T) {
	assert.Equal(t, LabelStrongPositive, correlationLabel(0.51))
	assert.Equal(t, LabelModeratePositive, correlationLabel(0.5))
	assert.Equal(t, LabelModeratePositive, correlationLabel(0.21))
	assert.Equal(t, LabelWeak, correlationLabel(0.2))
	assert.Equal(t, LabelWeak, correlationLabel(-0.8))
}
