package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the container paths and listen address for a run.
// Zero values mean "unspecified" and are replaced by Default values
// in main, so a partial config file only overrides what it names.
type Config struct {
	Addr            string `json:"addr" yaml:"addr" toml:"addr"`
	HyperparamsFile string `json:"hyperparams_file" yaml:"hyperparams_file" toml:"hyperparams_file"`
	InputDir        string `json:"input_dir" yaml:"input_dir" toml:"input_dir"`
	ModelDir        string `json:"model_dir" yaml:"model_dir" toml:"model_dir"`
	OutputDir       string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
}

// Default returns the conventional container layout.
func Default() Config {
	return Config{
		Addr:            ":8080",
		HyperparamsFile: "/opt/ml/input/config/hyperparameters.json",
		InputDir:        "/opt/ml/input/data/train",
		ModelDir:        "/opt/ml/model",
		OutputDir:       "/opt/ml/output",
	}
}

// Merge fills unset fields of c from other.
func (c Config) Merge(other Config) Config {
	if c.Addr == "" {
		c.Addr = other.Addr
	}
	if c.HyperparamsFile == "" {
		c.HyperparamsFile = other.HyperparamsFile
	}
	if c.InputDir == "" {
		c.InputDir = other.InputDir
	}
	if c.ModelDir == "" {
		c.ModelDir = other.ModelDir
	}
	if c.OutputDir == "" {
		c.OutputDir = other.OutputDir
	}
	return c
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
