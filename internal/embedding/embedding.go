package embedding

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without vectors.
var ErrEmptyResponse = errors.New("empty embedding response")

// Result holds one vector per input text together with the versioned name
// of the model that produced them.
type Result struct {
	Vectors      [][]float32
	ModelVersion string
}

// Model encodes texts into fixed-length vectors. Implementations must
// return exactly one vector per input, in input order, all produced by the
// same model.
type Model interface {
	Embed(ctx context.Context, texts []string) (*Result, error)
	Close() error
	GetModelInfo() map[string]interface{}
}

func checkResult(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return errors.New("embedding count does not match input count")
	}
	dim := -1
	for _, v := range vectors {
		if len(v) == 0 {
			return ErrEmptyResponse
		}
		if dim >= 0 && len(v) != dim {
			return errors.New("embedding dimensions differ within one response")
		}
		dim = len(v)
	}
	return nil
}
