package ml

// DecisionTree is an unpruned CART classifier with Gini splits.
type DecisionTree struct {
	MaxDepth int             `json:"max_depth"`
	Tree     *regressionTree `json:"tree"`
}

// NewDecisionTree creates a tree grown until leaves are pure.
func NewDecisionTree() *DecisionTree {
	return &DecisionTree{}
}

func (d *DecisionTree) Fit(X []Vector, y []bool, dim int) error {
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}
	d.Tree = fitTree(X, targets(y), ones(len(y)), treeParams{maxDepth: d.MaxDepth})
	return nil
}

func (d *DecisionTree) PredictProba(x Vector) float64 {
	if d.Tree == nil {
		return 0
	}
	return d.Tree.predict(x)
}

func (d *DecisionTree) Predict(x Vector) bool {
	return d.PredictProba(x) > 0.5
}

func targets(y []bool) []float64 {
	t := make([]float64, len(y))
	for i, v := range y {
		t[i] = target(v)
	}
	return t
}

func ones(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}
