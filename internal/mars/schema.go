package mars

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"marsd/internal/dataset"
)

// Schema is the feature layout observed at training time. It is
// persisted inside the Model Artifact so that inference-time encoding
// reproduces the training column layout exactly, whatever category
// values a given batch happens to contain.
type Schema struct {
	// Raw feature columns in training order (target excluded).
	Columns []string `json:"columns"`
	// Levels maps each categorical column to its sorted level list.
	// Numeric columns have no entry.
	Levels map[string][]string `json:"levels"`
	// Encoded design-matrix column names, fixed at training time.
	Encoded []string `json:"encoded"`
}

// NewSchema inspects a training frame and records the feature layout.
// A column is numeric when every cell parses as a float; anything else
// is categorical and its distinct values become the level list, sorted
// lexically so the layout is deterministic.
func NewSchema(f *dataset.Frame, target string) (*Schema, error) {
	if f.Index(target) < 0 {
		return nil, fmt.Errorf("target column %q not found in %v", target, f.Columns)
	}
	if f.NumRows() == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	s := &Schema{Levels: map[string][]string{}}
	for _, col := range f.Columns {
		if col == target {
			continue
		}
		s.Columns = append(s.Columns, col)
		if f.IsNumeric(col) {
			s.Encoded = append(s.Encoded, col)
			continue
		}
		vals, _ := f.Column(col)
		seen := map[string]bool{}
		var levels []string
		for _, v := range vals {
			if !seen[v] {
				seen[v] = true
				levels = append(levels, v)
			}
		}
		sort.Strings(levels)
		s.Levels[col] = levels
		// Treatment coding: the first level is the baseline and gets
		// no indicator column.
		for _, lv := range levels[1:] {
			s.Encoded = append(s.Encoded, col+"="+lv)
		}
	}
	if len(s.Encoded) == 0 {
		return nil, fmt.Errorf("no feature columns besides target %q", target)
	}
	return s, nil
}

// Encode expands a frame into the numeric design matrix this schema
// defines. Every schema column must be present in the frame; extra
// frame columns are ignored. Categorical cells matching the baseline
// level, or a value never seen during training, encode as all-zero
// indicators, so the column count never varies with the batch.
func (s *Schema) Encode(f *dataset.Frame) (*mat.Dense, error) {
	n := f.NumRows()
	if n == 0 {
		return nil, fmt.Errorf("no rows to encode")
	}
	idx := make([]int, len(s.Columns))
	for i, col := range s.Columns {
		j := f.Index(col)
		if j < 0 {
			return nil, fmt.Errorf("column %q required by the model is missing", col)
		}
		idx[i] = j
	}
	x := mat.NewDense(n, len(s.Encoded), nil)
	for r := 0; r < n; r++ {
		c := 0
		for i, col := range s.Columns {
			cell := f.Rows[r][idx[i]]
			levels, categorical := s.Levels[col]
			if !categorical {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", col, r+2, err)
				}
				x.Set(r, c, v)
				c++
				continue
			}
			for _, lv := range levels[1:] {
				if cell == lv {
					x.Set(r, c, 1)
				}
				c++
			}
		}
	}
	return x, nil
}
