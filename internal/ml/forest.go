package ml

import "math/rand"

// Forest averages the leaf probabilities of independently grown trees.
// RandomForest draws bootstrap samples and exact splits; ExtraTrees uses
// every sample and random thresholds. Both consider √dim features per split.
type Forest struct {
	NTrees    int               `json:"n_trees"`
	Bootstrap bool              `json:"bootstrap"`
	Extra     bool              `json:"extra"`
	Seed      int64             `json:"seed"`
	Trees     []*regressionTree `json:"trees"`
}

// NewRandomForest creates a 100-tree bootstrap forest.
func NewRandomForest(seed int64) *Forest {
	return &Forest{NTrees: 100, Bootstrap: true, Seed: seed}
}

// NewExtraTrees creates a 100-tree extremely randomised forest.
func NewExtraTrees(seed int64) *Forest {
	return &Forest{NTrees: 100, Extra: true, Seed: seed}
}

func (f *Forest) Fit(X []Vector, y []bool, dim int) error {
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(f.Seed))
	t := targets(y)
	n := len(X)
	f.Trees = make([]*regressionTree, 0, f.NTrees)
	for i := 0; i < f.NTrees; i++ {
		treeRng := rand.New(rand.NewSource(rng.Int63()))

		w := ones(n)
		if f.Bootstrap {
			w = make([]float64, n)
			for k := 0; k < n; k++ {
				w[treeRng.Intn(n)]++
			}
		}

		f.Trees = append(f.Trees, fitTree(X, t, w, treeParams{
			maxFeatures:  sqrtFeatures(dim),
			randomSplits: f.Extra,
			rng:          treeRng,
		}))
	}
	return nil
}

func (f *Forest) PredictProba(x Vector) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var s float64
	for _, t := range f.Trees {
		s += t.predict(x)
	}
	return s / float64(len(f.Trees))
}

func (f *Forest) Predict(x Vector) bool {
	return f.PredictProba(x) > 0.5
}
