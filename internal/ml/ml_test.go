package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offer-classifier/internal/models"
)

var fillers = []string{"czarny", "srebrny", "biały", "kombi", "sedan", "hatchback", "benzyna", "diesel"}

// corpus builds a separable set: suspicious texts mention a deposit
// transfer, clean ones a dealer invoice. Filler words are shared.
func corpus(n, offset int) ([]string, []bool) {
	texts := make([]string, 0, n)
	y := make([]bool, 0, n)
	for i := 0; i < n; i++ {
		a := fillers[(i+offset)%len(fillers)]
		b := fillers[(i*3+offset+1)%len(fillers)]
		if i%2 == 0 {
			texts = append(texts, fmt.Sprintf("przelew zadatek pilne %s %s", a, b))
			y = append(y, true)
		} else {
			texts = append(texts, fmt.Sprintf("faktura serwis salon %s %s", a, b))
			y = append(y, false)
		}
	}
	return texts, y
}

func TestTfidfVectorizer(t *testing.T) {
	v := &TfidfVectorizer{}
	require.NoError(t, v.Fit([]string{"audi diesel", "audi benzyna", "x"}))

	assert.Equal(t, []string{"audi", "benzyna", "diesel"}, v.Terms)
	assert.Less(t, v.IDF[0], v.IDF[1], "common term gets lower idf")

	x := v.Transform("audi audi nieznany")
	assert.Equal(t, []int{0}, x.Idx)
	assert.InDelta(t, 1.0, x.SquaredNorm(), 1e-12)

	assert.Empty(t, v.Transform("").Idx)
}

func TestTfidfVectorizer_EmptyVocabulary(t *testing.T) {
	v := &TfidfVectorizer{}
	assert.Error(t, v.Fit(nil))
	assert.Error(t, v.Fit([]string{"a b", ""}))
}

func TestTfidfVectorizer_JSONRestoresIndex(t *testing.T) {
	v := &TfidfVectorizer{}
	require.NoError(t, v.Fit([]string{"audi diesel", "bmw benzyna"}))

	data, err := json.Marshal(v)
	require.NoError(t, err)
	var restored TfidfVectorizer
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, v.Transform("bmw diesel"), restored.Transform("bmw diesel"))
}

func TestSparseVector(t *testing.T) {
	a := Vector{Idx: []int{0, 2, 5}, Val: []float64{1, 2, 3}}
	b := Vector{Idx: []int{2, 3, 5}, Val: []float64{4, 1, 1}}

	assert.Equal(t, 11.0, a.Dot(b))
	assert.Equal(t, 2.0, a.At(2))
	assert.Equal(t, 0.0, a.At(3))
	assert.Equal(t, 14.0, a.SquaredNorm())
	assert.Equal(t, 7.0, a.DotDense([]float64{1, 0, 0, 0, 0, 2}))
}

func TestFitTree_ExactSplit(t *testing.T) {
	X := []Vector{
		{Idx: []int{0}, Val: []float64{0.9}},
		{Idx: []int{0}, Val: []float64{0.7}},
		{},
		{Idx: []int{1}, Val: []float64{0.5}},
	}
	y := []float64{1, 1, 0, 0}

	tree := fitTree(X, y, ones(4), treeParams{})
	require.NotEmpty(t, tree.Nodes)
	assert.Equal(t, 0, tree.Nodes[0].Feature)
	assert.InDelta(t, 0.35, tree.Nodes[0].Threshold, 1e-12)
	for i, x := range X {
		assert.Equal(t, y[i], tree.predict(x))
	}
}

func TestFitTree_ZeroWeightSamplesIgnored(t *testing.T) {
	X := []Vector{{Idx: []int{0}, Val: []float64{1}}, {}}
	tree := fitTree(X, []float64{1, 0}, []float64{1, 0}, treeParams{})

	require.Len(t, tree.Nodes, 1)
	assert.Equal(t, 1.0, tree.Nodes[0].Value)
}

func TestClassifiers_Separable(t *testing.T) {
	trainTexts, trainY := corpus(40, 0)
	testTexts, testY := corpus(20, 5)

	reg := DefaultRegistry()
	for _, name := range reg.Names() {
		t.Run(name, func(t *testing.T) {
			c, err := reg.New(name, 42)
			require.NoError(t, err)
			p := NewPipeline(name, c)
			require.NoError(t, p.Fit(trainTexts, trainY))

			pred := make([]bool, len(testTexts))
			for i, text := range testTexts {
				pred[i] = p.Predict(text)
			}
			m := Evaluate(testY, pred)
			assert.GreaterOrEqual(t, m.Accuracy, 0.9, "accuracy")
			assert.False(t, m.DegenerateSplit)
		})
	}
}

func TestPipeline_ScoreKind(t *testing.T) {
	texts, y := corpus(20, 0)

	lr := NewPipeline(ModelLogisticRegression, NewLogisticRegression())
	require.NoError(t, lr.Fit(texts, y))
	score, kind := lr.Score("przelew zadatek pilne")
	assert.Equal(t, models.ScoreProbability, kind)
	assert.Greater(t, score, 0.5)
	assert.True(t, lr.SupportsProbability())

	svc := NewPipeline(ModelLinearSVC, NewLinearSVC())
	require.NoError(t, svc.Fit(texts, y))
	score, kind = svc.Score("faktura serwis salon")
	assert.Equal(t, models.ScoreDecision, kind)
	assert.Less(t, score, 0.0)
	assert.False(t, svc.SupportsProbability())
}

func TestPipeline_SingleClassIsConstant(t *testing.T) {
	p := NewPipeline(ModelRandomForest, NewRandomForest(1))
	require.NoError(t, p.Fit([]string{"audi diesel", "bmw benzyna"}, []bool{false, false}))

	assert.False(t, p.Predict("przelew zadatek"))
	score, kind := p.Score("anything")
	assert.Equal(t, 0.0, score)
	assert.Equal(t, models.ScoreProbability, kind)
}

func TestPipeline_RoundTrip(t *testing.T) {
	texts, y := corpus(30, 0)
	reg := DefaultRegistry()

	for _, name := range []string{ModelRandomForest, ModelGradientBoosting, ModelKNeighbors, ModelLinearSVC} {
		t.Run(name, func(t *testing.T) {
			c, err := reg.New(name, 7)
			require.NoError(t, err)
			p := NewPipeline(name, c)
			require.NoError(t, p.Fit(texts, y))

			data, err := json.Marshal(p)
			require.NoError(t, err)
			restored, err := DecodePipeline(data, reg)
			require.NoError(t, err)

			for _, text := range []string{"przelew salon czarny", "faktura kombi", ""} {
				want, wantKind := p.Score(text)
				got, gotKind := restored.Score(text)
				assert.Equal(t, wantKind, gotKind)
				assert.InDelta(t, want, got, 1e-12, text)
			}
		})
	}
}

func TestPipeline_RoundTripConstant(t *testing.T) {
	p := NewPipeline(ModelAdaBoost, NewAdaBoost())
	require.NoError(t, p.Fit([]string{"audi", "bmw"}, []bool{true, true}))

	data, err := json.Marshal(p)
	require.NoError(t, err)
	restored, err := DecodePipeline(data, DefaultRegistry())
	require.NoError(t, err)
	assert.True(t, restored.Predict("cokolwiek"))
}

func TestDecodePipeline_UnknownModel(t *testing.T) {
	_, err := DecodePipeline([]byte(`{"name":"svm_rbf","vectorizer":{"terms":[],"idf":[]}}`), DefaultRegistry())
	assert.Error(t, err)
}

func TestForest_Deterministic(t *testing.T) {
	texts, y := corpus(30, 0)
	a := NewPipeline(ModelExtraTrees, NewExtraTrees(42))
	b := NewPipeline(ModelExtraTrees, NewExtraTrees(42))
	require.NoError(t, a.Fit(texts, y))
	require.NoError(t, b.Fit(texts, y))

	sa, _ := a.Score("przelew kombi")
	sb, _ := b.Score("przelew kombi")
	assert.Equal(t, sa, sb)
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.Len(t, reg.Names(), 8)
	assert.True(t, reg.Has(ModelAdaBoost))

	sub, err := reg.Subset([]string{ModelKNeighbors, ModelDecisionTree})
	require.NoError(t, err)
	assert.Equal(t, []string{ModelDecisionTree, ModelKNeighbors}, sub.Names())

	all, err := reg.Subset(nil)
	require.NoError(t, err)
	assert.Equal(t, reg.Names(), all.Names())

	_, err = reg.Subset([]string{"naive_bayes"})
	assert.Error(t, err)
	_, err = reg.New("naive_bayes", 0)
	assert.Error(t, err)

	// registries are independent
	reg.Register("extra", func(int64) Classifier { return NewDecisionTree() })
	assert.False(t, DefaultRegistry().Has("extra"))
}

func TestTrainTestSplit(t *testing.T) {
	train, test, err := TrainTestSplit(10, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, test, 2)
	assert.Len(t, train, 8)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, append(append([]int{}, train...), test...))

	train2, test2, err := TrainTestSplit(10, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	_, test3, err := TrainTestSplit(11, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, test3, 3, "test size rounds up")
}

func TestTrainTestSplit_TooSmall(t *testing.T) {
	_, _, err := TrainTestSplit(1, 0.2, 42)
	assert.Error(t, err)
	_, _, err = TrainTestSplit(0, 0.2, 42)
	assert.Error(t, err)
	_, _, err = TrainTestSplit(10, 1.5, 42)
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	m := Evaluate(
		[]bool{true, true, false, false},
		[]bool{true, false, true, false},
	)
	assert.Equal(t, 0.5, m.Accuracy)
	assert.Equal(t, 0.5, m.Precision)
	assert.Equal(t, 0.5, m.Recall)
	assert.Equal(t, 0.5, m.F1)
	assert.False(t, m.DegenerateSplit)
}

func TestEvaluate_ZeroDivision(t *testing.T) {
	m := Evaluate([]bool{false, false}, []bool{false, false})
	assert.Equal(t, 1.0, m.Accuracy)
	assert.Zero(t, m.Precision)
	assert.Zero(t, m.Recall)
	assert.Zero(t, m.F1)
	assert.True(t, m.DegenerateSplit)

	m = Evaluate(nil, nil)
	assert.Zero(t, m.Accuracy)
	assert.False(t, m.DegenerateSplit)
}

func logisticObjective(l *LogisticRegression, X []Vector, y []bool) float64 {
	n := float64(len(X))
	var loss float64
	for i, x := range X {
		z := l.Decision(x)
		if !y[i] {
			z = -z
		}
		loss += math.Log1p(math.Exp(-z)) / n
	}
	var sq float64
	for _, w := range l.Weights {
		sq += w * w
	}
	return loss + sq/(2*l.C*n)
}

func TestLogisticRegression_StepNeverIncreasesObjective(t *testing.T) {
	s := math.Sqrt(0.5)
	X := []Vector{
		{Idx: []int{0}, Val: []float64{1}},
		{Idx: []int{0}, Val: []float64{1}},
		{Idx: []int{0}, Val: []float64{1}},
		{Idx: []int{0, 1}, Val: []float64{s, s}},
		{Idx: []int{0}, Val: []float64{1}},
		{Idx: []int{1}, Val: []float64{1}},
	}
	y := []bool{true, true, true, true, false, false}

	prev := math.Inf(1)
	for iters := 1; iters <= 40; iters++ {
		l := &LogisticRegression{C: 1, MaxIter: iters}
		require.NoError(t, l.Fit(X, y, 2))
		obj := logisticObjective(l, X, y)
		assert.LessOrEqual(t, obj, prev+1e-12, "iteration %d", iters)
		prev = obj
	}
}
