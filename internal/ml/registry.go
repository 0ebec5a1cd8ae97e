package ml

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownModel is returned for names that are not registered.
var ErrUnknownModel = errors.New("unknown model")

// Model names understood by DefaultRegistry.
const (
	ModelLogisticRegression = "logistic_regression"
	ModelRandomForest       = "random_forest"
	ModelGradientBoosting   = "gradient_boosting"
	ModelAdaBoost           = "ada_boost"
	ModelExtraTrees         = "extra_trees"
	ModelKNeighbors         = "k_neighbors"
	ModelDecisionTree       = "decision_tree"
	ModelLinearSVC          = "linear_svc"
)

// Factory builds an unfitted classifier. Randomised models derive all of
// their randomness from seed.
type Factory func(seed int64) Classifier

// Registry maps model names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a fresh registry holding every built-in model.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ModelLogisticRegression, func(int64) Classifier { return NewLogisticRegression() })
	r.Register(ModelRandomForest, func(seed int64) Classifier { return NewRandomForest(seed) })
	r.Register(ModelGradientBoosting, func(int64) Classifier { return NewGradientBoosting() })
	r.Register(ModelAdaBoost, func(int64) Classifier { return NewAdaBoost() })
	r.Register(ModelExtraTrees, func(seed int64) Classifier { return NewExtraTrees(seed) })
	r.Register(ModelKNeighbors, func(int64) Classifier { return NewKNeighbors() })
	r.Register(ModelDecisionTree, func(int64) Classifier { return NewDecisionTree() })
	r.Register(ModelLinearSVC, func(int64) Classifier { return NewLinearSVC() })
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// New builds an unfitted classifier.
func (r *Registry) New(name string, seed int64) (Classifier, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownModel, name)
	}
	return f(seed), nil
}

// Subset returns a registry restricted to names. An empty list keeps every
// model.
func (r *Registry) Subset(names []string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	sub := NewRegistry()
	for _, n := range names {
		f, ok := r.factories[n]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownModel, n)
		}
		sub.factories[n] = f
	}
	return sub, nil
}
