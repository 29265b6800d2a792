package regression

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestFitDeterminism verifies that fitting the same sample twice gives identical models.
func TestFitDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Fit is deterministic", prop.ForAll(
		func(x, y []float64) bool {
			n := len(x)
			if len(y) < n {
				n = len(y)
			}
			x, y = x[:n], y[:n]

			m1, err1 := Fit(x, y, 0)
			m2, err2 := Fit(x, y, 0)
			if err1 != nil || err2 != nil {
				return (err1 == nil) == (err2 == nil)
			}
			return *m1 == *m2
		},
		gen.SliceOf(gen.Float64Range(100, 200000)),
		gen.SliceOf(gen.Float64Range(50, 80000)),
	))

	properties.TestingRun(t)
}

// TestFitRecoversLine verifies that points on a line are fit back to that line.
func TestFitRecoversLine(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("exact points recover intercept and slope", prop.ForAll(
		func(intercept, slope float64, n int) bool {
			x := make([]float64, n)
			y := make([]float64, n)
			for i := range x {
				x[i] = float64(1000 * (i + 1))
				y[i] = intercept + slope*x[i]
			}

			m, err := Fit(x, y, 0)
			if err != nil {
				return false
			}
			return math.Abs(m.Slope-slope) < 1e-6 &&
				math.Abs(m.Intercept-intercept) < 1e-3 &&
				m.PredictNonNegative(x[0]) >= 0
		},
		gen.Float64Range(-500, 500),
		gen.Float64Range(0.1, 1.0),
		gen.IntRange(2, 50),
	))

	properties.TestingRun(t)
}
