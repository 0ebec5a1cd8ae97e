package ml

import (
	"encoding/json"
	"errors"
	"fmt"

	"offer-classifier/internal/models"
)

// Pipeline is a TF-IDF vectorizer followed by a classifier. Inputs are
// already-normalized texts.
type Pipeline struct {
	Name       string
	Vectorizer *TfidfVectorizer
	Classifier Classifier

	// constant is set when training saw a single class.
	constant *bool
}

// NewPipeline wraps an unfitted classifier.
func NewPipeline(name string, c Classifier) *Pipeline {
	return &Pipeline{Name: name, Vectorizer: &TfidfVectorizer{}, Classifier: c}
}

// Fit learns the vocabulary from texts and fits the classifier. When every
// label is the same the pipeline becomes a constant predictor.
func (p *Pipeline) Fit(texts []string, y []bool) error {
	if len(texts) != len(y) {
		return errors.New("text and label counts differ")
	}
	if err := p.Vectorizer.Fit(texts); err != nil {
		return err
	}

	p.constant = nil
	if single, ok := singleClass(y); ok {
		p.constant = &single
		return nil
	}
	return p.Classifier.Fit(p.Vectorizer.TransformAll(texts), y, p.Vectorizer.Dim())
}

// Predict classifies one normalized text.
func (p *Pipeline) Predict(text string) bool {
	if p.constant != nil {
		return *p.constant
	}
	return p.Classifier.Predict(p.Vectorizer.Transform(text))
}

// SupportsProbability reports whether Score returns a probability.
func (p *Pipeline) SupportsProbability() bool {
	if p.constant != nil {
		return true
	}
	_, ok := p.Classifier.(ProbabilityEstimator)
	return ok
}

// Score returns P(suspicious) when the classifier supports it, otherwise the
// decision function value.
func (p *Pipeline) Score(text string) (float64, models.ScoreKind) {
	if p.constant != nil {
		return target(*p.constant), models.ScoreProbability
	}
	x := p.Vectorizer.Transform(text)
	switch c := p.Classifier.(type) {
	case ProbabilityEstimator:
		return c.PredictProba(x), models.ScoreProbability
	case DecisionFunction:
		return c.Decision(x), models.ScoreDecision
	default:
		return target(p.Classifier.Predict(x)), models.ScoreProbability
	}
}

type pipelineEnvelope struct {
	Name       string           `json:"name"`
	Vectorizer *TfidfVectorizer `json:"vectorizer"`
	Constant   *bool            `json:"constant,omitempty"`
	Classifier json.RawMessage  `json:"classifier,omitempty"`
}

// MarshalJSON encodes the fitted pipeline.
func (p *Pipeline) MarshalJSON() ([]byte, error) {
	env := pipelineEnvelope{Name: p.Name, Vectorizer: p.Vectorizer, Constant: p.constant}
	if p.constant == nil {
		raw, err := json.Marshal(p.Classifier)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", p.Name, err)
		}
		env.Classifier = raw
	}
	return json.Marshal(env)
}

// DecodePipeline restores a pipeline, using reg to build the classifier
// named in the payload.
func DecodePipeline(data []byte, reg *Registry) (*Pipeline, error) {
	var env pipelineEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline: %w", err)
	}
	if env.Vectorizer == nil {
		return nil, errors.New("pipeline has no vectorizer")
	}

	c, err := reg.New(env.Name, 0)
	if err != nil {
		return nil, err
	}
	if env.Constant == nil {
		if len(env.Classifier) == 0 {
			return nil, fmt.Errorf("pipeline %s has no classifier state", env.Name)
		}
		if err := json.Unmarshal(env.Classifier, c); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Name, err)
		}
	}

	return &Pipeline{
		Name:       env.Name,
		Vectorizer: env.Vectorizer,
		Classifier: c,
		constant:   env.Constant,
	}, nil
}

func singleClass(y []bool) (bool, bool) {
	for _, v := range y[1:] {
		if v != y[0] {
			return false, false
		}
	}
	return y[0], true
}
