package httpapi

import (
	"context"
	"strings"
	"testing"

	"marsd/internal/artifact"
	"marsd/internal/mars"
	"marsd/internal/scorer"
)

// scorerArtifactMissing produces the scorer's artifact-unavailable error
// by scoring against an empty model dir.
func scorerArtifactMissing(t *testing.T) error {
	t.Helper()
	_, err := scorer.New(t.TempDir()).Score(context.Background(), strings.NewReader("x\n1\n"))
	if err == nil || !scorer.IsArtifactUnavailable(err) {
		t.Fatalf("expected artifact-unavailable error, got %v", err)
	}
	return err
}

// scorerBadRequest produces the scorer's bad-request error by sending an
// empty body against a present artifact.
func scorerBadRequest(t *testing.T) error {
	t.Helper()
	dir := t.TempDir()
	m := &mars.Model{
		Target: "y",
		Degree: 1,
		Schema: &mars.Schema{Columns: []string{"x"}, Levels: map[string][]string{}, Encoded: []string{"x"}},
		Terms:  []mars.Term{{}},
		Coeffs: []float64{1},
	}
	if err := artifact.Save(dir, m); err != nil {
		t.Fatalf("save: %v", err)
	}
	_, err := scorer.New(dir).Score(context.Background(), strings.NewReader(""))
	if err == nil || !scorer.IsBadRequest(err) {
		t.Fatalf("expected bad-request error, got %v", err)
	}
	return err
}
