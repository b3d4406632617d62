package influence

import "math"

// #region constants

// Clamp bounds for the temperature curve.
const (
	TempMin = 0.1
	TempMax = 1.5
)

// #endregion constants

// #region curve-config

// CurveConfig holds the constants shaping the μ→temperature and μ→λ curves.
type CurveConfig struct {
	T0    float64 // base temperature at μ=0
	Alpha float64 // temperature decay rate in μ
	K     float64 // logistic steepness for λ
	Tau   float64 // logistic midpoint: λ(Tau) = 0.5
}

// DefaultCurveConfig returns the calibration constants used for sweeps.
func DefaultCurveConfig() CurveConfig {
	return CurveConfig{
		T0:    0.7,
		Alpha: 0.8,
		K:     6.0,
		Tau:   0.5,
	}
}

// #endregion curve-config

// #region temperature

// TemperatureFromMu maps mutual influence to sampling temperature:
// T = T0 / (1 + alpha*max(0, μ)), clamped to [TempMin, TempMax].
// Higher μ yields a lower, more peer-aligned temperature.
func TemperatureFromMu(mu float64, c CurveConfig) float64 {
	t := c.T0 / (1.0 + c.Alpha*math.Max(0.0, mu))
	return math.Max(TempMin, math.Min(TempMax, t))
}

// #endregion temperature

// #region lambda

// LambdaFromMu maps mutual influence to the self/peer mixing gate:
// λ = 1 / (1 + exp(-k*(μ - τ))), always in (0, 1) and 0.5 at μ=τ.
func LambdaFromMu(mu float64, c CurveConfig) float64 {
	return 1.0 / (1.0 + math.Exp(-c.K*(mu-c.Tau)))
}

// #endregion lambda
