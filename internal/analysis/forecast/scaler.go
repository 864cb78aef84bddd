package forecast

import "math"

// scaler standardizes columns to zero mean and unit variance. A constant
// column keeps std 1 so transforms stay finite and invertible.
type scaler struct {
	mean []float64
	std  []float64
}

func fitScaler(x [][]float64) *scaler {
	cols := len(x[0])
	s := &scaler{mean: make([]float64, cols), std: make([]float64, cols)}
	for c := 0; c < cols; c++ {
		sum := 0.0
		for _, row := range x {
			sum += row[c]
		}
		s.mean[c] = sum / float64(len(x))

		varSum := 0.0
		for _, row := range x {
			d := row[c] - s.mean[c]
			varSum += d * d
		}
		s.std[c] = math.Sqrt(varSum / float64(len(x)))
		if s.std[c] == 0 {
			s.std[c] = 1
		}
	}
	return s
}

func fitScaler1D(y []float64) *scaler {
	col := make([][]float64, len(y))
	for i, v := range y {
		col[i] = []float64{v}
	}
	return fitScaler(col)
}

func (s *scaler) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for c, v := range row {
		out[c] = (v - s.mean[c]) / s.std[c]
	}
	return out
}

func (s *scaler) transformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.transform(row)
	}
	return out
}

func (s *scaler) transform1D(v float64) float64 {
	return (v - s.mean[0]) / s.std[0]
}

func (s *scaler) inverse1D(v float64) float64 {
	return v*s.std[0] + s.mean[0]
}
