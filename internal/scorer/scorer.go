// Package scorer answers prediction requests against the persisted
// Model Artifact. The artifact is re-read from disk on every request:
// each request is independent and always sees the latest trained model,
// at the cost of a file read per call.
package scorer

import (
	"context"
	"errors"
	"io"
	"os"

	"marsd/internal/artifact"
	"marsd/internal/dataset"
)

// Scorer loads the artifact from a fixed directory and predicts. It
// holds no mutable state, so one Scorer serves concurrent requests.
type Scorer struct {
	modelDir string
}

// New returns a Scorer reading its artifact from modelDir.
func New(modelDir string) *Scorer {
	return &Scorer{modelDir: modelDir}
}

// Score parses a delimited-text request body and returns one prediction
// per row. Parse and schema failures are bad requests; a missing
// artifact means the endpoint has no model to serve yet.
func (s *Scorer) Score(ctx context.Context, body io.Reader) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := artifact.Load(s.modelDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, artifactUnavailableError{dir: s.modelDir}
		}
		return nil, err
	}
	frame, err := dataset.Read(body)
	if err != nil {
		return nil, badRequestError{err: err}
	}
	preds, err := model.Predict(frame)
	if err != nil {
		return nil, badRequestError{err: err}
	}
	return preds, nil
}
