// Package trainer runs the one-shot training routine: hyperparameters
// in, Model Artifact out. Any error aborts the run and propagates to
// the caller, which is expected to exit non-zero so the orchestrating
// platform sees the failure.
package trainer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"marsd/internal/artifact"
	"marsd/internal/config"
	"marsd/internal/dataset"
	"marsd/internal/mars"
)

// Trainer wires the configured container paths to a training run.
type Trainer struct {
	cfg config.Config
	log zerolog.Logger
}

// New returns a Trainer over the given paths.
func New(cfg config.Config, log zerolog.Logger) *Trainer {
	return &Trainer{cfg: cfg, log: log}
}

// Run executes one training pass: load hyperparameters, load and
// concatenate the training files, fit, persist the trimmed artifact,
// write the fitted values and the success marker.
func (t *Trainer) Run(ctx context.Context) error {
	hp, err := config.LoadHyperparameters(t.cfg.HyperparamsFile)
	if err != nil {
		return err
	}
	t.log.Info().Str("target", hp.Target).Int("degree", hp.Degree).Msg("hyperparameters loaded")

	data, err := dataset.ReadDir(t.cfg.InputDir)
	if err != nil {
		return err
	}
	t.log.Info().Int("rows", data.NumRows()).Int("columns", len(data.Columns)).Msg("training data loaded")

	if err := ctx.Err(); err != nil {
		return err
	}
	model, fitted, err := mars.Train(data, hp.Target, hp.Degree)
	if err != nil {
		return fmt.Errorf("fit model: %w", err)
	}
	t.log.Info().Int("terms", len(model.Terms)).Msg("model fitted")

	if err := artifact.Save(t.cfg.ModelDir, model); err != nil {
		return err
	}
	if err := artifact.WriteFitted(t.cfg.OutputDir, fitted); err != nil {
		return err
	}
	if err := artifact.WriteSuccess(t.cfg.OutputDir); err != nil {
		return err
	}
	t.log.Info().Str("model_dir", t.cfg.ModelDir).Str("output_dir", t.cfg.OutputDir).Msg("training complete")
	return nil
}
