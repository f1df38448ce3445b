package mars

import (
	"strings"
	"testing"

	"marsd/internal/dataset"
)

func frameFrom(t *testing.T, csv string) *dataset.Frame {
	t.Helper()
	f, err := dataset.Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestNewSchema_Layout(t *testing.T) {
	f := frameFrom(t, "num,cat,y\n1.0,b,10\n2.0,a,20\n3.0,c,30\n")
	s, err := NewSchema(f, "y")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if len(s.Columns) != 2 || s.Columns[0] != "num" || s.Columns[1] != "cat" {
		t.Fatalf("columns=%v", s.Columns)
	}
	// Levels are sorted; the first is the baseline and gets no column.
	lv := s.Levels["cat"]
	if len(lv) != 3 || lv[0] != "a" || lv[1] != "b" || lv[2] != "c" {
		t.Fatalf("levels=%v", lv)
	}
	want := []string{"num", "cat=b", "cat=c"}
	if len(s.Encoded) != len(want) {
		t.Fatalf("encoded=%v", s.Encoded)
	}
	for i := range want {
		if s.Encoded[i] != want[i] {
			t.Fatalf("encoded=%v want %v", s.Encoded, want)
		}
	}
}

func TestNewSchema_Errors(t *testing.T) {
	f := frameFrom(t, "a,b\n1,2\n")
	if _, err := NewSchema(f, "missing"); err == nil {
		t.Fatal("expected missing target error")
	}
	empty := frameFrom(t, "a,b\n")
	if _, err := NewSchema(empty, "b"); err == nil {
		t.Fatal("expected empty frame error")
	}
	only := frameFrom(t, "y\n1\n")
	if _, err := NewSchema(only, "y"); err == nil {
		t.Fatal("expected no-features error")
	}
}

func TestEncode_ReusesTrainingLayout(t *testing.T) {
	train := frameFrom(t, "num,cat,y\n1.0,b,10\n2.0,a,20\n3.0,c,30\n")
	s, err := NewSchema(train, "y")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	// An inference batch with only a subset of the training levels
	// still encodes to the training column layout.
	batch := frameFrom(t, "num,cat\n5.0,a\n6.0,b\n")
	x, err := s.Encode(batch)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	r, c := x.Dims()
	if r != 2 || c != 3 {
		t.Fatalf("dims=%dx%d", r, c)
	}
	// Baseline level "a" encodes as all zeros.
	if x.At(0, 1) != 0 || x.At(0, 2) != 0 {
		t.Fatalf("baseline row: %v %v", x.At(0, 1), x.At(0, 2))
	}
	if x.At(1, 1) != 1 || x.At(1, 2) != 0 {
		t.Fatalf("level b row: %v %v", x.At(1, 1), x.At(1, 2))
	}
}

func TestEncode_UnseenLevelIsBaseline(t *testing.T) {
	train := frameFrom(t, "num,cat,y\n1.0,b,10\n2.0,a,20\n3.0,c,30\n")
	s, err := NewSchema(train, "y")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	batch := frameFrom(t, "num,cat\n5.0,zebra\n")
	x, err := s.Encode(batch)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, c := x.Dims(); c != 3 {
		t.Fatalf("column count changed: %d", c)
	}
	if x.At(0, 1) != 0 || x.At(0, 2) != 0 {
		t.Fatal("unseen level must encode as all-zero indicators")
	}
}

func TestEncode_SchemaMismatch(t *testing.T) {
	train := frameFrom(t, "num,cat,y\n1.0,b,10\n2.0,a,20\n")
	s, err := NewSchema(train, "y")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := s.Encode(frameFrom(t, "num\n1.0\n")); err == nil {
		t.Fatal("expected error for missing trained column")
	}
	if _, err := s.Encode(frameFrom(t, "num,cat\nNaNope,a\n")); err == nil {
		t.Fatal("expected error for non-numeric cell")
	}
	// Extra columns are ignored.
	if _, err := s.Encode(frameFrom(t, "num,cat,extra\n1.0,a,zzz\n")); err != nil {
		t.Fatalf("extra column should be ignored: %v", err)
	}
}
