// Package artifact persists the training outputs: the Model Artifact
// itself plus the fitted-values file and the success marker the
// orchestrating platform looks for. The artifact is written once per
// training run and re-read by every prediction request.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"marsd/internal/mars"
)

const (
	// ModelFile is the artifact filename inside the model directory.
	ModelFile = "mars-model.json"
	// FittedFile holds the in-sample fitted values, one per line.
	FittedFile = "fitted.csv"
	// SuccessFile is the zero-byte marker written after a clean run.
	SuccessFile = "success"
)

// Save writes the model bundle into dir as JSON.
func Save(dir string, m *mars.Model) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("model dir: %w", err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ModelFile), b, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load reads the model bundle from dir. A missing artifact surfaces as
// an os.ErrNotExist-wrapped error so callers can distinguish "not yet
// trained" from a corrupt file.
func Load(dir string) (*mars.Model, error) {
	b, err := os.ReadFile(filepath.Join(dir, ModelFile))
	if err != nil {
		return nil, err
	}
	var m mars.Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &m, nil
}

// WriteFitted writes the in-sample fitted values under dir, one value
// per line so the row count matches the training row count.
func WriteFitted(dir string, fitted []float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	buf := make([]byte, 0, len(fitted)*12)
	for _, v := range fitted {
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		buf = append(buf, '\n')
	}
	if err := os.WriteFile(filepath.Join(dir, FittedFile), buf, 0o644); err != nil {
		return fmt.Errorf("write fitted values: %w", err)
	}
	return nil
}

// WriteSuccess drops the zero-byte success marker under dir.
func WriteSuccess(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SuccessFile), nil, 0o644); err != nil {
		return fmt.Errorf("write success marker: %w", err)
	}
	return nil
}
