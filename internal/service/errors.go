package service

import (
	"errors"
	"fmt"
)

// ErrArtifactNotFound is returned when no fitted pipeline exists for a
// (model, mode) slot.
var ErrArtifactNotFound = errors.New("model artifact not found")

// Training stages reported by StageError.
const (
	StageDatasetBuild = "dataset build"
	StageFit          = "fit"
	StageEvaluate     = "evaluate"
	StagePersist      = "persist"
)

// StageError says which model failed and during which training stage.
// Model is empty for failures that are not specific to one model.
type StageError struct {
	Model string
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Model, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
