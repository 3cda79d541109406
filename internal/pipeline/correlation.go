package pipeline

import "math"

// Correlation labels, in the register the dashboard prints them.
const (
	LabelStrongPositive   = "Correlación positiva fuerte"
	LabelModeratePositive = "Correlación positiva moderada"
	LabelWeak             = "Correlación débil o negativa"
	LabelInsufficient     = "Datos insuficientes"
)

// CorrelationResult is the Pearson correlation between per-municipality
// incident counts and total affected area.
type CorrelationResult struct {
	Coefficient    float64 `json:"coefficient"`
	Label          string  `json:"label"`
	Municipalities int     `json:"municipalities"`
	Insufficient   bool    `json:"insufficient"`
}

// Correlation computes Pearson's r over the municipal aggregate. Fewer than
// two municipalities cannot correlate; the result says so instead of
// guessing.
func Correlation(rows []MunicipalRow) CorrelationResult {
	if len(rows) < 2 {
		return CorrelationResult{
			Label:          LabelInsufficient,
			Municipalities: len(rows),
			Insufficient:   true,
		}
	}

	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	for i, row := range rows {
		xs[i] = float64(row.NumeroIncendios)
		ys[i] = row.TotalHectareas
	}

	r := pearson(xs, ys)
	return CorrelationResult{
		Coefficient:    r,
		Label:          correlationLabel(r),
		Municipalities: len(rows),
	}
}

func correlationLabel(r float64) string {
	switch {
	case r > 0.5:
		return LabelStrongPositive
	case r > 0.2:
		return LabelModeratePositive
	default:
		return LabelWeak
	}
}

// pearson computes the correlation coefficient, clamped to [-1, 1] to absorb
// floating-point drift. Zero variance on either side yields 0.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}

	r := cov / math.Sqrt(varX*varY)
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r
}
