package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func writeTrainingInputs(t *testing.T) (hyperparams, inputDir, modelDir, outputDir string) {
	t.Helper()
	root := t.TempDir()
	inputDir = filepath.Join(root, "input")
	modelDir = filepath.Join(root, "model")
	outputDir = filepath.Join(root, "output")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	hyperparams = filepath.Join(root, "hyperparameters.json")
	if err := os.WriteFile(hyperparams, []byte(`{"target": "y", "degree": "2"}`), 0o644); err != nil {
		t.Fatalf("write hyperparams: %v", err)
	}
	var b bytes.Buffer
	b.WriteString("x,cat,y\n")
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 60; i++ {
		x := rng.Float64() * 10
		cat := []string{"a", "b"}[i%2]
		off := 0.0
		if cat == "b" {
			off = 3
		}
		fmt.Fprintf(&b, "%.3f,%s,%.3f\n", x, cat, 1+0.5*x+off)
	}
	if err := os.WriteFile(filepath.Join(inputDir, "data.csv"), b.Bytes(), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	return hyperparams, inputDir, modelDir, outputDir
}

func TestTrainCommand(t *testing.T) {
	hp, in, model, out := writeTrainingInputs(t)
	cmd := newRootCmd()
	cmd.SetArgs([]string{"train",
		"--hyperparams", hp,
		"--input-dir", in,
		"--model-dir", model,
		"--output-dir", out,
		"--log-level", "error",
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("train: %v", err)
	}
	if _, err := os.Stat(filepath.Join(model, "mars-model.json")); err != nil {
		t.Fatalf("artifact: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "success")); err != nil {
		t.Fatalf("marker: %v", err)
	}
}

func TestTrainCommand_FailsOnBadHyperparams(t *testing.T) {
	hp, in, model, out := writeTrainingInputs(t)
	if err := os.WriteFile(hp, []byte(`{"degree": "2"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cmd := newRootCmd()
	cmd.SetArgs([]string{"train", "--hyperparams", hp, "--input-dir", in, "--model-dir", model, "--output-dir", out})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing target")
	}
	if _, err := os.Stat(filepath.Join(out, "success")); err == nil {
		t.Fatal("success marker must not exist after a failed run")
	}
}

func TestUnknownModeRejected(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"bogus"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestConflictingModesRejected(t *testing.T) {
	// "train serve" is not a valid invocation: modes are exclusive
	// subcommands, not free-text keywords.
	cmd := newRootCmd()
	cmd.SetArgs([]string{"train", "serve"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for conflicting modes")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, b ,,c ")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("got %v", got)
	}
	if splitList("") != nil {
		t.Fatal("empty input should yield nil")
	}
}
