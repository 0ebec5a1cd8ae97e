package ml

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
)

// TfidfVectorizer maps documents to l2-normalised TF-IDF vectors. Tokens are
// whitespace-separated words of at least two characters; idf is smoothed as
// ln((1+n)/(1+df)) + 1. The vocabulary is sorted so feature indices do not
// depend on document order.
type TfidfVectorizer struct {
	Terms []string  `json:"terms"`
	IDF   []float64 `json:"idf"`

	index map[string]int
}

// Fit learns the vocabulary and idf weights from docs.
func (t *TfidfVectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return errors.New("tfidf: no documents")
	}

	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(d) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errors.New("tfidf: empty vocabulary; documents contain no usable tokens")
	}

	t.Terms = make([]string, 0, len(df))
	for term := range df {
		t.Terms = append(t.Terms, term)
	}
	sort.Strings(t.Terms)

	n := float64(len(docs))
	t.IDF = make([]float64, len(t.Terms))
	for i, term := range t.Terms {
		t.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	t.buildIndex()
	return nil
}

// UnmarshalJSON restores a fitted vectorizer.
func (t *TfidfVectorizer) UnmarshalJSON(data []byte) error {
	type plain TfidfVectorizer
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if len(p.Terms) != len(p.IDF) {
		return errors.New("tfidf: terms and idf lengths differ")
	}
	*t = TfidfVectorizer(p)
	t.buildIndex()
	return nil
}

// Dim is the number of features.
func (t *TfidfVectorizer) Dim() int {
	return len(t.Terms)
}

// Transform vectorises one document. Unknown tokens are ignored. It is safe
// for concurrent use once the vectorizer is fitted.
func (t *TfidfVectorizer) Transform(doc string) Vector {
	counts := make(map[int]float64)
	for _, tok := range tokenize(doc) {
		if i, ok := t.index[tok]; ok {
			counts[i]++
		}
	}

	v := Vector{
		Idx: make([]int, 0, len(counts)),
		Val: make([]float64, 0, len(counts)),
	}
	for i := range counts {
		v.Idx = append(v.Idx, i)
	}
	sort.Ints(v.Idx)

	var norm float64
	for _, i := range v.Idx {
		x := counts[i] * t.IDF[i]
		v.Val = append(v.Val, x)
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for k := range v.Val {
			v.Val[k] /= norm
		}
	}
	return v
}

// TransformAll vectorises every document.
func (t *TfidfVectorizer) TransformAll(docs []string) []Vector {
	out := make([]Vector, len(docs))
	for i, d := range docs {
		out[i] = t.Transform(d)
	}
	return out
}

func (t *TfidfVectorizer) buildIndex() {
	t.index = make(map[string]int, len(t.Terms))
	for i, term := range t.Terms {
		t.index[term] = i
	}
}

func tokenize(doc string) []string {
	fields := strings.Fields(strings.ToLower(doc))
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
	}
	return out
}
