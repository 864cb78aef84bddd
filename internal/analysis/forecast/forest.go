package forecast

import (
	"math/rand"
	"sort"
	"sync"

	"FlowCast/internal/analysis"
)

// ForestConfig controls the bagged regression-tree ensemble.
type ForestConfig struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64
}

// DefaultForestConfig mirrors the ensemble shape the pipeline was tuned with.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 100, MaxDepth: 12, MinLeaf: 2, Seed: 42}
}

// Forest is a bagged ensemble of regression trees. Each tree fits a bootstrap
// resample of the training rows; predictions average across trees. Tree i
// derives its RNG from Seed+i, so results are reproducible regardless of how
// the per-tree goroutines are scheduled.
type Forest struct {
	cfg   ForestConfig
	trees []*treeNode
}

func NewForest(cfg ForestConfig) *Forest {
	def := DefaultForestConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = def.MinLeaf
	}
	return &Forest{cfg: cfg}
}

// Fit trains the ensemble. The trees are independent, so they fit in parallel.
func (f *Forest) Fit(x [][]float64, y []float64) error {
	if len(x) < 2 || len(x) != len(y) {
		return analysis.ErrInsufficientData
	}

	f.trees = make([]*treeNode, f.cfg.Trees)
	var wg sync.WaitGroup
	for i := range f.trees {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(f.cfg.Seed + int64(i)))
			idx := make([]int, len(x))
			for j := range idx {
				idx[j] = rng.Intn(len(x))
			}
			f.trees[i] = buildTree(x, y, idx, f.cfg.MaxDepth, f.cfg.MinLeaf)
		}(i)
	}
	wg.Wait()
	return nil
}

// Predict averages the per-tree predictions.
func (f *Forest) Predict(features []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(features)
	}
	return sum / float64(len(f.trees))
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

func (n *treeNode) predict(features []float64) float64 {
	for !n.leaf {
		if features[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func buildTree(x [][]float64, y []float64, idx []int, depth, minLeaf int) *treeNode {
	if depth <= 0 || len(idx) < 2*minLeaf {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	feature, threshold, ok := bestSplit(x, y, idx, minLeaf)
	if !ok {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildTree(x, y, left, depth-1, minLeaf),
		right:     buildTree(x, y, right, depth-1, minLeaf),
	}
}

// bestSplit scans every feature and every adjacent-value midpoint, tracking
// left/right sums incrementally so each feature costs one sort plus one pass.
func bestSplit(x [][]float64, y []float64, idx []int, minLeaf int) (int, float64, bool) {
	bestCost := sse(y, idx)
	bestFeature, bestThreshold := -1, 0.0
	if bestCost == 0 {
		return 0, 0, false
	}

	order := make([]int, len(idx))
	for feature := 0; feature < len(x[idx[0]]); feature++ {
		copy(order, idx)
		sortByFeature(x, order, feature)

		var lSum, lSq float64
		rSum, rSq := sums(y, order)
		for pos := 0; pos < len(order)-1; pos++ {
			v := y[order[pos]]
			lSum += v
			lSq += v * v
			rSum -= v
			rSq -= v * v

			cur, next := x[order[pos]][feature], x[order[pos+1]][feature]
			if cur == next {
				continue
			}
			n := pos + 1
			if n < minLeaf || len(order)-n < minLeaf {
				continue
			}
			cost := (lSq - lSum*lSum/float64(n)) + (rSq - rSum*rSum/float64(len(order)-n))
			if cost < bestCost {
				bestCost = cost
				bestFeature = feature
				bestThreshold = (cur + next) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func sortByFeature(x [][]float64, idx []int, feature int) {
	sort.Slice(idx, func(a, b int) bool {
		return x[idx[a]][feature] < x[idx[b]][feature]
	})
}

func sums(y []float64, idx []int) (sum, sq float64) {
	for _, i := range idx {
		sum += y[i]
		sq += y[i] * y[i]
	}
	return sum, sq
}

func sse(y []float64, idx []int) float64 {
	sum, sq := sums(y, idx)
	return sq - sum*sum/float64(len(idx))
}

func meanAt(y []float64, idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
