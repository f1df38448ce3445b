package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Frame is an in-memory delimited-text table: a header of column names
// and the rows beneath it. Cells are kept as raw strings; numeric
// interpretation happens at encoding time.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// Read parses CSV data with a header line from r.
func Read(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	f := &Frame{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(f.Rows)+2, err)
		}
		f.Rows = append(f.Rows, rec)
	}
	return f, nil
}

// ReadFile parses a single CSV file.
func ReadFile(path string) (*Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	f, err := Read(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ReadDir loads every regular file in dir (sorted by name) and
// concatenates the rows into one Frame. All files must share the same
// header.
func ReadDir(dir string) (*Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no input files in %s", dir)
	}
	sort.Strings(names)

	var out *Frame
	for _, name := range names {
		f, err := ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = f
			continue
		}
		if !sameHeader(out.Columns, f.Columns) {
			return nil, fmt.Errorf("%s: header %v does not match %v", name, f.Columns, out.Columns)
		}
		out.Rows = append(out.Rows, f.Rows...)
	}
	return out, nil
}

func sameHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Index returns the position of the named column, or -1.
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the cells of the named column.
func (f *Frame) Column(name string) ([]string, bool) {
	i := f.Index(name)
	if i < 0 {
		return nil, false
	}
	vals := make([]string, len(f.Rows))
	for r, row := range f.Rows {
		vals[r] = row[i]
	}
	return vals, true
}

// Drop returns a copy of the frame without the named column. Dropping
// a column that is not present returns the frame unchanged.
func (f *Frame) Drop(name string) *Frame {
	i := f.Index(name)
	if i < 0 {
		return f
	}
	out := &Frame{Columns: make([]string, 0, len(f.Columns)-1)}
	out.Columns = append(out.Columns, f.Columns[:i]...)
	out.Columns = append(out.Columns, f.Columns[i+1:]...)
	out.Rows = make([][]string, len(f.Rows))
	for r, row := range f.Rows {
		nr := make([]string, 0, len(row)-1)
		nr = append(nr, row[:i]...)
		nr = append(nr, row[i+1:]...)
		out.Rows[r] = nr
	}
	return out
}

// NumRows reports the number of data rows.
func (f *Frame) NumRows() int { return len(f.Rows) }

// IsNumeric reports whether every cell of the named column parses as a
// floating point number. An absent column is not numeric.
func (f *Frame) IsNumeric(name string) bool {
	i := f.Index(name)
	if i < 0 {
		return false
	}
	for _, row := range f.Rows {
		if _, err := strconv.ParseFloat(row[i], 64); err != nil {
			return false
		}
	}
	return len(f.Rows) > 0
}

// Floats parses the named column as float64 values.
func (f *Frame) Floats(name string) ([]float64, error) {
	i := f.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]float64, len(f.Rows))
	for r, row := range f.Rows {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, r+2, err)
		}
		out[r] = v
	}
	return out, nil
}
