package forecast

import (
	"math"
	"math/rand"

	"FlowCast/internal/analysis"
)

// SequenceConfig controls the recurrent sequence backend.
type SequenceConfig struct {
	Lags         int
	Hidden       int
	Epochs       int
	LearningRate float64
	Seed         int64
}

func DefaultSequenceConfig() SequenceConfig {
	return SequenceConfig{Lags: 3, Hidden: 16, Epochs: 200, LearningRate: 0.01, Seed: 42}
}

// stepInputs is the per-timestep feature width: buy volume, sell volume, close.
const stepInputs = 3

// SequenceModel is a single-layer recurrent network trained by full-batch
// gradient descent. The flat feature row is replayed as a sequence of lag
// steps, oldest first, and the final hidden state maps linearly to the
// predicted close. Inputs and labels are standardized before training and
// predictions are transformed back.
type SequenceModel struct {
	cfg SequenceConfig

	wx [][]float64 // hidden x stepInputs
	wh [][]float64 // hidden x hidden
	bh []float64
	wo []float64
	bo float64

	featScaler  *scaler
	labelScaler *scaler
}

func NewSequenceModel(cfg SequenceConfig) *SequenceModel {
	def := DefaultSequenceConfig()
	if cfg.Lags <= 0 {
		cfg.Lags = def.Lags
	}
	if cfg.Hidden <= 0 {
		cfg.Hidden = def.Hidden
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = def.Epochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	return &SequenceModel{cfg: cfg}
}

// Fit standardizes the training set, initializes weights from the configured
// seed and runs full-batch backpropagation through time.
func (m *SequenceModel) Fit(x [][]float64, y []float64) error {
	if len(x) < 2 || len(x) != len(y) {
		return analysis.ErrInsufficientData
	}
	if len(x[0]) != stepInputs*m.cfg.Lags {
		return analysis.ErrInsufficientData
	}

	m.featScaler = fitScaler(x)
	m.labelScaler = fitScaler1D(y)
	xs := m.featScaler.transformAll(x)
	ys := make([]float64, len(y))
	for i, v := range y {
		ys[i] = m.labelScaler.transform1D(v)
	}

	m.initWeights()

	h := m.cfg.Hidden
	n := float64(len(xs))
	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		gwx := zeros2(h, stepInputs)
		gwh := zeros2(h, h)
		gbh := make([]float64, h)
		gwo := make([]float64, h)
		gbo := 0.0

		for s := range xs {
			states := m.forward(xs[s])
			last := states[len(states)-1]
			pred := m.bo
			for j := 0; j < h; j++ {
				pred += m.wo[j] * last[j]
			}

			dpred := 2 * (pred - ys[s]) / n
			gbo += dpred
			dh := make([]float64, h)
			for j := 0; j < h; j++ {
				gwo[j] += dpred * last[j]
				dh[j] = dpred * m.wo[j]
			}

			for t := len(states) - 1; t >= 1; t-- {
				ht, hprev := states[t], states[t-1]
				u := stepSlice(xs[s], t-1, m.cfg.Lags)
				dnext := make([]float64, h)
				for j := 0; j < h; j++ {
					da := dh[j] * (1 - ht[j]*ht[j])
					gbh[j] += da
					for k := 0; k < stepInputs; k++ {
						gwx[j][k] += da * u[k]
					}
					for k := 0; k < h; k++ {
						gwh[j][k] += da * hprev[k]
						dnext[k] += da * m.wh[j][k]
					}
				}
				dh = dnext
			}
		}

		lr := m.cfg.LearningRate
		for j := 0; j < h; j++ {
			m.bh[j] -= lr * gbh[j]
			m.wo[j] -= lr * gwo[j]
			for k := 0; k < stepInputs; k++ {
				m.wx[j][k] -= lr * gwx[j][k]
			}
			for k := 0; k < h; k++ {
				m.wh[j][k] -= lr * gwh[j][k]
			}
		}
		m.bo -= lr * gbo
	}
	return nil
}

// Predict replays the standardized features through the network and maps the
// output back to price space.
func (m *SequenceModel) Predict(features []float64) float64 {
	if m.featScaler == nil {
		return 0
	}
	xs := m.featScaler.transform(features)
	states := m.forward(xs)
	last := states[len(states)-1]
	out := m.bo
	for j := range m.wo {
		out += m.wo[j] * last[j]
	}
	return m.labelScaler.inverse1D(out)
}

// forward returns the hidden state after each step; states[0] is the zero
// initial state.
func (m *SequenceModel) forward(features []float64) [][]float64 {
	h := m.cfg.Hidden
	states := make([][]float64, m.cfg.Lags+1)
	states[0] = make([]float64, h)
	for t := 0; t < m.cfg.Lags; t++ {
		u := stepSlice(features, t, m.cfg.Lags)
		prev := states[t]
		next := make([]float64, h)
		for j := 0; j < h; j++ {
			a := m.bh[j]
			for k := 0; k < stepInputs; k++ {
				a += m.wx[j][k] * u[k]
			}
			for k := 0; k < h; k++ {
				a += m.wh[j][k] * prev[k]
			}
			next[j] = math.Tanh(a)
		}
		states[t+1] = next
	}
	return states
}

// stepSlice extracts the [buy, sell, close] triple for timestep t. Feature
// rows are laid out lag-major ([buy 1..L, sell 1..L, close 1..L]); step 0 is
// the oldest lag L, step L-1 the most recent lag 1.
func stepSlice(features []float64, t, lags int) [stepInputs]float64 {
	lag := lags - t // lag L at step 0 down to lag 1
	return [stepInputs]float64{
		features[lag-1],
		features[lags+lag-1],
		features[2*lags+lag-1],
	}
}

func (m *SequenceModel) initWeights() {
	rng := rand.New(rand.NewSource(m.cfg.Seed))
	h := m.cfg.Hidden
	scale := 1 / math.Sqrt(float64(h))
	m.wx = randMat(rng, h, stepInputs, scale)
	m.wh = randMat(rng, h, h, scale)
	m.bh = make([]float64, h)
	m.wo = make([]float64, h)
	for j := range m.wo {
		m.wo[j] = (rng.Float64()*2 - 1) * scale
	}
	m.bo = 0
}

func randMat(rng *rand.Rand, rows, cols int, scale float64) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = (rng.Float64()*2 - 1) * scale
		}
	}
	return m
}

func zeros2(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}
