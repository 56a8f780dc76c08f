package forecast

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/peakguard/core/model"
)

// regressors per observation: intercept, lag1, lag24, temperature and the
// hour-of-day encoded on the unit circle.
const baselineCols = 6

// BaselineProvider is a least-squares regression over recent observations.
// It stands in for the offline-trained model when no external provider is
// wired. Until enough observations are recorded it falls back to a blend of
// the load lags.
type BaselineProvider struct {
	mu     sync.Mutex
	window int
	feats  []model.Features
	loads  []float64
	minObs int
}

// NewBaselineProvider creates a provider keeping at most window observations.
func NewBaselineProvider(window int) *BaselineProvider {
	if window <= 0 {
		window = 168
	}
	return &BaselineProvider{window: window, minObs: 2 * baselineCols}
}

// Observe records an actual load measurement for future fits.
func (p *BaselineProvider) Observe(f model.Features, loadKW float64) {
	if f.Validate() != nil || loadKW < 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.feats = append(p.feats, f)
	p.loads = append(p.loads, loadKW)
	if len(p.feats) > p.window {
		p.feats = p.feats[1:]
		p.loads = p.loads[1:]
	}
}

// Predict returns the fitted estimate, or the lag blend when the history is
// too short or the normal equations are singular.
func (p *BaselineProvider) Predict(f model.Features) (float64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.feats) < p.minObs {
		return persistence(f), nil
	}

	n := len(p.feats)
	x := mat.NewDense(n, baselineCols, nil)
	y := mat.NewDense(n, 1, nil)
	for i, obs := range p.feats {
		x.SetRow(i, regressors(obs))
		y.Set(i, 0, p.loads[i])
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		return persistence(f), nil
	}

	pred := 0.0
	for j, v := range regressors(f) {
		pred += beta.At(j, 0) * v
	}
	if pred < 0 || math.IsNaN(pred) {
		return persistence(f), nil
	}
	return pred, nil
}

func regressors(f model.Features) []float64 {
	h := float64(f.Hour())
	return []float64{
		1,
		f.LoadLag1hKW,
		f.LoadLag24hKW,
		f.AirTemperatureC,
		math.Sin(2 * math.Pi * h / 24),
		math.Cos(2 * math.Pi * h / 24),
	}
}

func persistence(f model.Features) float64 {
	return 0.7*f.LoadLag1hKW + 0.3*f.LoadLag24hKW
}
