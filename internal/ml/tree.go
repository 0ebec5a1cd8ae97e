package ml

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is a leaf when Feature < 0.
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// regressionTree is a CART tree with squared-error splits. On 0/1 targets
// the squared error is half the Gini impurity, so the same tree serves as a
// classifier whose leaf values are weighted positive rates.
type regressionTree struct {
	Nodes []treeNode `json:"nodes"`
}

type treeParams struct {
	maxDepth        int // 0 means unlimited
	minSamplesSplit int
	maxFeatures     int // 0 means every feature
	randomSplits    bool
	rng             *rand.Rand
}

type treeBuilder struct {
	params treeParams
	X      []Vector
	y      []float64
	w      []float64
	tree   *regressionTree
}

// fitTree grows a tree on targets y with sample weights w. Samples with zero
// weight are ignored.
func fitTree(X []Vector, y, w []float64, p treeParams) *regressionTree {
	if p.minSamplesSplit < 2 {
		p.minSamplesSplit = 2
	}
	b := &treeBuilder{
		params: p,
		X:      X,
		y:      y,
		w:      w,
		tree:   &regressionTree{},
	}

	samples := make([]int, 0, len(X))
	for i := range X {
		if w[i] > 0 {
			samples = append(samples, i)
		}
	}
	b.grow(samples, 0)
	return b.tree
}

func (b *treeBuilder) grow(samples []int, depth int) int {
	id := len(b.tree.Nodes)
	var sw, sy, syy float64
	for _, i := range samples {
		sw += b.w[i]
		sy += b.w[i] * b.y[i]
		syy += b.w[i] * b.y[i] * b.y[i]
	}
	value := 0.0
	if sw > 0 {
		value = sy / sw
	}
	b.tree.Nodes = append(b.tree.Nodes, treeNode{Feature: -1, Value: value})

	impurity := syy - sy*sy/math.Max(sw, 1e-300)
	if len(samples) < b.params.minSamplesSplit ||
		(b.params.maxDepth > 0 && depth >= b.params.maxDepth) ||
		impurity <= 1e-12 {
		return id
	}

	feature, threshold, ok := b.bestSplit(samples, sw, sy)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range samples {
		if b.X[i].At(feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return id
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.tree.Nodes[id].Feature = feature
	b.tree.Nodes[id].Threshold = threshold
	b.tree.Nodes[id].Left = l
	b.tree.Nodes[id].Right = r
	return id
}

type entry struct {
	val float64
	row int
}

// bestSplit scans the non-constant features of the node and returns the
// split maximising the sum over both children of (Σwy)²/Σw.
func (b *treeBuilder) bestSplit(samples []int, sw, sy float64) (int, float64, bool) {
	nodeEntries := make(map[int][]entry)
	for _, i := range samples {
		x := b.X[i]
		for k, f := range x.Idx {
			if x.Val[k] != 0 {
				nodeEntries[f] = append(nodeEntries[f], entry{val: x.Val[k], row: i})
			}
		}
	}

	candidates := make([]int, 0, len(nodeEntries))
	for f, es := range nodeEntries {
		if len(es) == len(samples) && allEqual(es) {
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return 0, 0, false
	}
	sort.Ints(candidates)

	if b.params.maxFeatures > 0 && b.params.maxFeatures < len(candidates) && b.params.rng != nil {
		b.params.rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		candidates = candidates[:b.params.maxFeatures]
		sort.Ints(candidates)
	}

	parent := sy * sy / sw
	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0
	for _, f := range candidates {
		es := nodeEntries[f]
		var thr, score float64
		var ok bool
		if b.params.randomSplits && b.params.rng != nil {
			thr, score, ok = b.randomSplit(es, len(samples), sw, sy)
		} else {
			thr, score, ok = b.exactSplit(es, len(samples), sw, sy)
		}
		if ok && score-parent > bestGain {
			bestGain = score - parent
			bestFeature = f
			bestThreshold = thr
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// exactSplit tries every midpoint between distinct values. Samples absent
// from es have value 0.
func (b *treeBuilder) exactSplit(es []entry, n int, sw, sy float64) (float64, float64, bool) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].val != es[j].val {
			return es[i].val < es[j].val
		}
		return es[i].row < es[j].row
	})

	var nzW, nzY float64
	for _, e := range es {
		nzW += b.w[e.row]
		nzY += b.w[e.row] * b.y[e.row]
	}
	zeros := n - len(es)
	zeroW, zeroY := sw-nzW, sy-nzY

	// walk values in ascending order, merging the implicit zeros in
	type step struct {
		val  float64
		w, y float64
	}
	steps := make([]step, 0, len(es)+1)
	inserted := zeros == 0
	for _, e := range es {
		if !inserted && e.val > 0 {
			steps = append(steps, step{0, zeroW, zeroY})
			inserted = true
		}
		steps = append(steps, step{e.val, b.w[e.row], b.w[e.row] * b.y[e.row]})
	}
	if !inserted {
		steps = append(steps, step{0, zeroW, zeroY})
	}

	best, bestThr, found := math.Inf(-1), 0.0, false
	var lw, ly float64
	for k := 0; k < len(steps)-1; k++ {
		lw += steps[k].w
		ly += steps[k].y
		if steps[k].val == steps[k+1].val {
			continue
		}
		rw, ry := sw-lw, sy-ly
		if lw <= 0 || rw <= 0 {
			continue
		}
		score := ly*ly/lw + ry*ry/rw
		if score > best {
			best = score
			bestThr = steps[k].val + (steps[k+1].val-steps[k].val)/2
			found = true
		}
	}
	return bestThr, best, found
}

// randomSplit draws one threshold uniformly between the node's min and max.
func (b *treeBuilder) randomSplit(es []entry, n int, sw, sy float64) (float64, float64, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, e := range es {
		lo = math.Min(lo, e.val)
		hi = math.Max(hi, e.val)
	}
	if len(es) < n {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if hi <= lo {
		return 0, 0, false
	}
	thr := lo + b.params.rng.Float64()*(hi-lo)
	if thr >= hi {
		thr = lo
	}

	var lw, ly float64
	var nzW, nzY float64
	for _, e := range es {
		nzW += b.w[e.row]
		nzY += b.w[e.row] * b.y[e.row]
		if e.val <= thr {
			lw += b.w[e.row]
			ly += b.w[e.row] * b.y[e.row]
		}
	}
	if thr >= 0 {
		lw += sw - nzW
		ly += sy - nzY
	}
	rw, ry := sw-lw, sy-ly
	if lw <= 0 || rw <= 0 {
		return 0, 0, false
	}
	return thr, ly*ly/lw + ry*ry/rw, true
}

func allEqual(es []entry) bool {
	for _, e := range es[1:] {
		if e.val != es[0].val {
			return false
		}
	}
	return true
}

// leaf returns the index of the leaf x falls into.
func (t *regressionTree) leaf(x Vector) int {
	id := 0
	for t.Nodes[id].Feature >= 0 {
		n := t.Nodes[id]
		if x.At(n.Feature) <= n.Threshold {
			id = n.Left
		} else {
			id = n.Right
		}
	}
	return id
}

func (t *regressionTree) predict(x Vector) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	return t.Nodes[t.leaf(x)].Value
}

func sqrtFeatures(dim int) int {
	k := int(math.Sqrt(float64(dim)))
	if k < 1 {
		k = 1
	}
	return k
}
