package ml

import (
	"encoding/json"
	"sort"
)

// KNeighbors votes among the K training rows with the smallest Euclidean
// distance. Ties in distance are broken by training order.
type KNeighbors struct {
	K int      `json:"k"`
	X []Vector `json:"x"`
	Y []bool   `json:"y"`

	norms []float64
}

// NewKNeighbors creates a 5-neighbour classifier.
func NewKNeighbors() *KNeighbors {
	return &KNeighbors{K: 5}
}

func (k *KNeighbors) Fit(X []Vector, y []bool, dim int) error {
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}
	k.X = append([]Vector(nil), X...)
	k.Y = append([]bool(nil), y...)
	k.computeNorms()
	return nil
}

// UnmarshalJSON restores a fitted model.
func (k *KNeighbors) UnmarshalJSON(data []byte) error {
	type plain KNeighbors
	if err := json.Unmarshal(data, (*plain)(k)); err != nil {
		return err
	}
	k.computeNorms()
	return nil
}

func (k *KNeighbors) computeNorms() {
	k.norms = make([]float64, len(k.X))
	for i, v := range k.X {
		k.norms[i] = v.SquaredNorm()
	}
}

func (k *KNeighbors) PredictProba(x Vector) float64 {
	if len(k.X) == 0 {
		return 0
	}
	type neighbour struct {
		dist float64
		idx  int
	}
	xn := x.SquaredNorm()
	ns := make([]neighbour, len(k.X))
	for i, v := range k.X {
		ns[i] = neighbour{dist: xn + k.norms[i] - 2*x.Dot(v), idx: i}
	}
	sort.SliceStable(ns, func(a, b int) bool { return ns[a].dist < ns[b].dist })

	kk := k.K
	if kk > len(ns) {
		kk = len(ns)
	}
	var pos int
	for _, n := range ns[:kk] {
		if k.Y[n.idx] {
			pos++
		}
	}
	return float64(pos) / float64(kk)
}

func (k *KNeighbors) Predict(x Vector) bool {
	return k.PredictProba(x) > 0.5
}
