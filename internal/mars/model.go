package mars

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"marsd/internal/dataset"
)

// Model is the serving-ready bundle produced by training: the pruned
// basis terms with their coefficients, plus the feature schema
// (including the category-level mapping) needed to encode inference
// inputs identically to training. Nothing else — raw inputs, residuals
// and fitted values are never persisted.
type Model struct {
	Target string    `json:"target"`
	Degree int       `json:"degree"`
	Schema *Schema   `json:"schema"`
	Terms  []Term    `json:"terms"`
	Coeffs []float64 `json:"coefficients"`
}

// Train fits a MARS model predicting the target column of f from all
// remaining columns. It returns the model and the in-sample fitted
// values. Training is deterministic for fixed input.
func Train(f *dataset.Frame, target string, degree int) (*Model, []float64, error) {
	schema, err := NewSchema(f, target)
	if err != nil {
		return nil, nil, err
	}
	y, err := f.Floats(target)
	if err != nil {
		return nil, nil, fmt.Errorf("target column: %w", err)
	}
	x, err := schema.Encode(f)
	if err != nil {
		return nil, nil, err
	}
	terms, coeffs, fitted, err := fit(x, y, FitConfig{Degree: degree})
	if err != nil {
		return nil, nil, err
	}
	m := &Model{
		Target: target,
		Degree: degree,
		Schema: schema,
		Terms:  terms,
		Coeffs: coeffs,
	}
	return m, fitted, nil
}

// Predict encodes f with the training-time schema and evaluates the
// basis, returning one prediction per row.
func (m *Model) Predict(f *dataset.Frame) ([]float64, error) {
	if m.Schema == nil || len(m.Terms) == 0 || len(m.Terms) != len(m.Coeffs) {
		return nil, fmt.Errorf("model is incomplete")
	}
	x, err := m.Schema.Encode(f)
	if err != nil {
		return nil, err
	}
	n, p := x.Dims()
	row := make([]float64, p)
	out := make([]float64, n)
	for r := 0; r < n; r++ {
		mat.Row(row, r, x)
		var v float64
		for i, t := range m.Terms {
			v += m.Coeffs[i] * t.value(row)
		}
		out[r] = v
	}
	return out, nil
}
