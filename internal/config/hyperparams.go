package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// DefaultDegree is the interaction degree used when the hyperparameter
// file omits "degree".
const DefaultDegree = 2

// Hyperparameters are the training knobs passed by the orchestrating
// platform. Loaded once at training start; immutable afterwards.
type Hyperparameters struct {
	// Target names the column to predict. Required.
	Target string
	// Degree bounds interaction order in the fitted basis.
	Degree int
}

// LoadHyperparameters parses the JSON hyperparameter file. Platforms
// pass every value as a string, so "degree" is accepted either as a
// JSON number or as a numeric string. A missing "degree" defaults to
// DefaultDegree; a missing "target" is a configuration error.
func LoadHyperparameters(path string) (Hyperparameters, error) {
	var hp Hyperparameters
	b, err := os.ReadFile(path)
	if err != nil {
		return hp, fmt.Errorf("read hyperparameters: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return hp, fmt.Errorf("parse hyperparameters: %w", err)
	}
	if v, ok := raw["target"]; ok {
		if err := json.Unmarshal(v, &hp.Target); err != nil {
			return hp, fmt.Errorf("hyperparameter target: %w", err)
		}
	}
	if hp.Target == "" {
		return hp, fmt.Errorf("hyperparameter target is required")
	}
	hp.Degree = DefaultDegree
	if v, ok := raw["degree"]; ok {
		d, err := parseIntValue(v)
		if err != nil {
			return hp, fmt.Errorf("hyperparameter degree: %w", err)
		}
		hp.Degree = d
	}
	if hp.Degree < 1 {
		return hp, fmt.Errorf("hyperparameter degree must be >= 1, got %d", hp.Degree)
	}
	return hp, nil
}

// parseIntValue accepts a JSON number or a numeric string.
func parseIntValue(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("expected number or numeric string, got %s", string(raw))
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return n, nil
}
