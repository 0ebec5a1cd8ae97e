package ml

import "math"

// GradientBoosting fits depth-three regression trees to the log-loss
// gradient, with Newton-step leaf values.
type GradientBoosting struct {
	NEstimators  int               `json:"n_estimators"`
	LearningRate float64           `json:"learning_rate"`
	MaxDepth     int               `json:"max_depth"`
	Init         float64           `json:"init"`
	Trees        []*regressionTree `json:"trees"`
}

// NewGradientBoosting creates a 100-stage ensemble with learning rate 0.1.
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{NEstimators: 100, LearningRate: 0.1, MaxDepth: 3}
}

func (g *GradientBoosting) Fit(X []Vector, y []bool, dim int) error {
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}

	n := len(X)
	t := targets(y)
	var pos float64
	for _, v := range t {
		pos += v
	}
	p := math.Min(math.Max(pos/float64(n), 1e-15), 1-1e-15)
	g.Init = math.Log(p / (1 - p))

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = g.Init
	}
	w := ones(n)
	residual := make([]float64, n)
	g.Trees = g.Trees[:0]

	for m := 0; m < g.NEstimators; m++ {
		for i := range residual {
			residual[i] = t[i] - sigmoid(raw[i])
		}

		tree := fitTree(X, residual, w, treeParams{maxDepth: g.MaxDepth})

		num := make([]float64, len(tree.Nodes))
		den := make([]float64, len(tree.Nodes))
		leaves := make([]int, n)
		for i, x := range X {
			leaf := tree.leaf(x)
			leaves[i] = leaf
			prob := sigmoid(raw[i])
			num[leaf] += residual[i]
			den[leaf] += prob * (1 - prob)
		}
		for id := range tree.Nodes {
			if tree.Nodes[id].Feature >= 0 {
				continue
			}
			if math.Abs(den[id]) < 1e-150 {
				tree.Nodes[id].Value = 0
			} else {
				tree.Nodes[id].Value = num[id] / den[id]
			}
		}

		for i := range raw {
			raw[i] += g.LearningRate * tree.Nodes[leaves[i]].Value
		}
		g.Trees = append(g.Trees, tree)
	}
	return nil
}

func (g *GradientBoosting) rawScore(x Vector) float64 {
	s := g.Init
	for _, t := range g.Trees {
		s += g.LearningRate * t.predict(x)
	}
	return s
}

func (g *GradientBoosting) PredictProba(x Vector) float64 {
	return sigmoid(g.rawScore(x))
}

func (g *GradientBoosting) Predict(x Vector) bool {
	return g.rawScore(x) > 0
}
