package ml

import (
	"math"
	"sort"
)

// Vector is a sparse feature vector with strictly increasing indices.
type Vector struct {
	Idx []int     `json:"i"`
	Val []float64 `json:"v"`
}

// At returns the value at feature i.
func (v Vector) At(i int) float64 {
	k := sort.SearchInts(v.Idx, i)
	if k < len(v.Idx) && v.Idx[k] == i {
		return v.Val[k]
	}
	return 0
}

// DotDense returns v·w for a dense weight vector.
func (v Vector) DotDense(w []float64) float64 {
	var s float64
	for k, i := range v.Idx {
		if i < len(w) {
			s += v.Val[k] * w[i]
		}
	}
	return s
}

// Dot returns the inner product of two sparse vectors.
func (v Vector) Dot(u Vector) float64 {
	var s float64
	i, j := 0, 0
	for i < len(v.Idx) && j < len(u.Idx) {
		switch {
		case v.Idx[i] == u.Idx[j]:
			s += v.Val[i] * u.Val[j]
			i++
			j++
		case v.Idx[i] < u.Idx[j]:
			i++
		default:
			j++
		}
	}
	return s
}

// SquaredNorm returns ||v||².
func (v Vector) SquaredNorm() float64 {
	var s float64
	for _, x := range v.Val {
		s += x * x
	}
	return s
}

// addScaled adds a*v to the dense vector w.
func (v Vector) addScaled(w []float64, a float64) {
	for k, i := range v.Idx {
		w[i] += a * v.Val[k]
	}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
