// Package regression fits the simple linear model used to estimate lightweight
// tonnage from gross tonnage.
package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	apperrors "shipbreaking/internal/errors"
)

// MinObservations is the smallest sample a line can be fit through
const MinObservations = 2

var (
	// ErrInsufficientData is returned when the sample is smaller than required
	ErrInsufficientData = errors.New("insufficient training data")
	// ErrZeroVariance is returned when every x value is identical
	ErrZeroVariance = errors.New("predictor has zero variance")
	// ErrLengthMismatch is returned when x and y differ in length
	ErrLengthMismatch = errors.New("x and y lengths differ")
)

// Model is the ordinary least squares fit y ≈ Intercept + Slope·x
type Model struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"r_squared"`
	N         int     `json:"training_rows"`
}

// Fit estimates the model by ordinary least squares. minRows raises the required
// sample size above MinObservations. Failures are statistical AppErrors wrapping
// one of the sentinel errors above.
func Fit(x, y []float64, minRows int) (*Model, error) {
	if len(x) != len(y) {
		return nil, apperrors.NewStatisticalError("regression cannot be fit", ErrLengthMismatch).
			WithContext("x", len(x)).
			WithContext("y", len(y))
	}

	if minRows < MinObservations {
		minRows = MinObservations
	}
	if len(x) < minRows {
		return nil, apperrors.NewStatisticalError("regression cannot be fit",
			fmt.Errorf("%w: have %d rows, need %d", ErrInsufficientData, len(x), minRows)).
			WithContext("rows", len(x))
	}

	if _, variance := stat.MeanVariance(x, nil); variance == 0 || math.IsNaN(variance) {
		return nil, apperrors.NewStatisticalError("regression cannot be fit", ErrZeroVariance).
			WithContext("rows", len(x))
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)

	r2 := stat.RSquared(x, y, nil, alpha, beta)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		// Constant y: the fit is exact but R² is undefined
		r2 = 0
	}

	return &Model{
		Intercept: alpha,
		Slope:     beta,
		RSquared:  r2,
		N:         len(x),
	}, nil
}

// Predict returns the fitted value at x
func (m *Model) Predict(x float64) float64 {
	return m.Intercept + m.Slope*x
}

// PredictNonNegative returns the fitted value at x clipped to zero
func (m *Model) PredictNonNegative(x float64) float64 {
	return math.Max(0, m.Predict(x))
}
