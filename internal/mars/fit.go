package mars

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Defaults applied when the corresponding FitConfig fields are unset.
const (
	defaultMaxTerms = 21
	maxKnotsPerCol  = 20
	// Minimum relative RSS improvement for the forward pass to accept
	// a new term pair.
	minImprovement = 1e-9
)

// FitConfig holds the tunables of a single fit.
type FitConfig struct {
	// Degree bounds the number of hinge factors per basis term.
	Degree int
	// MaxTerms bounds the basis size grown by the forward pass
	// (intercept included). 0 picks a default scaled to the data.
	MaxTerms int
	// Penalty is the GCV cost per forward-pass knot. 0 picks the
	// conventional value for the degree (3, or 2 when Degree is 1).
	Penalty float64
}

// Hinge is a single mirrored-pair factor: max(0, x-Knot), or
// max(0, Knot-x) when Neg is set. Col indexes the encoded design
// matrix.
type Hinge struct {
	Col  int     `json:"col"`
	Knot float64 `json:"knot"`
	Neg  bool    `json:"neg,omitempty"`
}

// Term is a product of hinges. The empty term is the intercept.
type Term struct {
	Hinges []Hinge `json:"hinges,omitempty"`
}

func (t Term) uses(col int) bool {
	for _, h := range t.Hinges {
		if h.Col == col {
			return true
		}
	}
	return false
}

// value evaluates the term on one encoded row.
func (t Term) value(row []float64) float64 {
	v := 1.0
	for _, h := range t.Hinges {
		d := row[h.Col] - h.Knot
		if h.Neg {
			d = -d
		}
		if d <= 0 {
			return 0
		}
		v *= d
	}
	return v
}

// fit runs the forward/backward MARS passes against an encoded design
// matrix. It returns the pruned basis, its least-squares coefficients
// and the in-sample fitted values. The search is deterministic: knots
// and parents are visited in fixed order and ties keep the first
// candidate.
func fit(x *mat.Dense, y []float64, cfg FitConfig) ([]Term, []float64, []float64, error) {
	n, p := x.Dims()
	if n != len(y) {
		return nil, nil, nil, fmt.Errorf("design matrix has %d rows, target has %d", n, len(y))
	}
	if cfg.Degree < 1 {
		return nil, nil, nil, fmt.Errorf("degree must be >= 1, got %d", cfg.Degree)
	}
	maxTerms := cfg.MaxTerms
	if maxTerms <= 0 {
		maxTerms = defaultMaxTerms
	}
	// Keep the system overdetermined.
	if lim := n/2 + 1; maxTerms > lim {
		maxTerms = lim
	}
	if maxTerms < 1 {
		maxTerms = 1
	}
	penalty := cfg.Penalty
	if penalty <= 0 {
		if cfg.Degree > 1 {
			penalty = 3
		} else {
			penalty = 2
		}
	}

	rows := denseRows(x)
	knots := knotCandidates(x, p)

	terms := []Term{{}}
	basis := [][]float64{ones(n)}
	coef, rss, err := lstsq(basis, y)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("intercept fit: %w", err)
	}

	// Forward pass: grow the basis with mirrored hinge pairs.
	for len(terms)+2 <= maxTerms && len(terms)+2 < n {
		type candidate struct {
			terms []Term
			cols  [][]float64
			rss   float64
		}
		var best *candidate
		for pi := range terms {
			parent := terms[pi]
			if len(parent.Hinges) >= cfg.Degree {
				continue
			}
			pcol := basis[pi]
			for j := 0; j < p; j++ {
				if parent.uses(j) {
					continue
				}
				for _, t := range knots[j] {
					pos := make([]float64, n)
					neg := make([]float64, n)
					posZero, negZero := true, true
					for r := 0; r < n; r++ {
						if d := rows[r][j] - t; d > 0 {
							pos[r] = pcol[r] * d
							if pos[r] != 0 {
								posZero = false
							}
						} else if d < 0 {
							neg[r] = pcol[r] * -d
							if neg[r] != 0 {
								negZero = false
							}
						}
					}
					var cand candidate
					if !posZero {
						cand.terms = append(cand.terms, childTerm(parent, Hinge{Col: j, Knot: t}))
						cand.cols = append(cand.cols, pos)
					}
					if !negZero {
						cand.terms = append(cand.terms, childTerm(parent, Hinge{Col: j, Knot: t, Neg: true}))
						cand.cols = append(cand.cols, neg)
					}
					if len(cand.cols) == 0 {
						continue
					}
					_, candRSS, err := lstsq(append(append([][]float64{}, basis...), cand.cols...), y)
					if err != nil {
						continue
					}
					cand.rss = candRSS
					if best == nil || cand.rss < best.rss {
						c := cand
						best = &c
					}
				}
			}
		}
		if best == nil || best.rss >= rss-minImprovement*math.Max(rss, 1) {
			break
		}
		terms = append(terms, best.terms...)
		basis = append(basis, best.cols...)
		rss = best.rss
	}

	// Backward pass: prune terms by GCV, keeping the best subset seen.
	keep := allIndices(len(terms))
	bestKeep := append([]int(nil), keep...)
	bestGCV := gcv(rss, len(keep), n, penalty)
	curKeep := keep
	curRSS := rss
	for len(curKeep) > 1 {
		var nextKeep []int
		nextRSS := math.Inf(1)
		for drop := 1; drop < len(curKeep); drop++ { // never drop the intercept
			trial := without(curKeep, drop)
			_, trialRSS, err := lstsq(selectCols(basis, trial), y)
			if err != nil {
				continue
			}
			if trialRSS < nextRSS {
				nextRSS = trialRSS
				nextKeep = trial
			}
		}
		if nextKeep == nil {
			break
		}
		curKeep, curRSS = nextKeep, nextRSS
		if g := gcv(curRSS, len(curKeep), n, penalty); g < bestGCV {
			bestGCV = g
			bestKeep = append([]int(nil), curKeep...)
		}
	}

	finalTerms := make([]Term, len(bestKeep))
	for i, k := range bestKeep {
		finalTerms[i] = terms[k]
	}
	coef, _, err = lstsq(selectCols(basis, bestKeep), y)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("final fit: %w", err)
	}
	fitted := make([]float64, n)
	for r := 0; r < n; r++ {
		var v float64
		for i, k := range bestKeep {
			v += coef[i] * basis[k][r]
		}
		fitted[r] = v
	}
	return finalTerms, coef, fitted, nil
}

func childTerm(parent Term, h Hinge) Term {
	hs := make([]Hinge, 0, len(parent.Hinges)+1)
	hs = append(hs, parent.Hinges...)
	hs = append(hs, h)
	return Term{Hinges: hs}
}

// knotCandidates returns, per column, the sorted distinct values thinned
// to at most maxKnotsPerCol entries. The column maximum is excluded: a
// hinge there is identically zero on the training data.
func knotCandidates(x *mat.Dense, p int) [][]float64 {
	n, _ := x.Dims()
	out := make([][]float64, p)
	for j := 0; j < p; j++ {
		vals := make([]float64, n)
		mat.Col(vals, j, x)
		sort.Float64s(vals)
		var distinct []float64
		for i, v := range vals {
			if i == 0 || v != distinct[len(distinct)-1] {
				distinct = append(distinct, v)
			}
		}
		if len(distinct) > 1 {
			distinct = distinct[:len(distinct)-1]
		}
		if len(distinct) <= maxKnotsPerCol {
			out[j] = distinct
			continue
		}
		thinned := make([]float64, 0, maxKnotsPerCol)
		for i := 0; i < maxKnotsPerCol; i++ {
			thinned = append(thinned, distinct[i*len(distinct)/maxKnotsPerCol])
		}
		out[j] = thinned
	}
	return out
}

func denseRows(x *mat.Dense) [][]float64 {
	n, p := x.Dims()
	rows := make([][]float64, n)
	for r := 0; r < n; r++ {
		rows[r] = make([]float64, p)
		mat.Row(rows[r], r, x)
	}
	return rows
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func without(s []int, i int) []int {
	out := make([]int, 0, len(s)-1)
	out = append(out, s[:i]...)
	out = append(out, s[i+1:]...)
	return out
}

func selectCols(cols [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, k := range idx {
		out[i] = cols[k]
	}
	return out
}

// gcv computes the generalized cross-validation score for a basis of m
// terms: the average RSS inflated by the effective parameter count
// m + penalty*(m-1)/2.
func gcv(rss float64, m, n int, penalty float64) float64 {
	c := float64(m) + penalty*float64(m-1)/2
	d := 1 - c/float64(n)
	if d <= 0 {
		return math.Inf(1)
	}
	return rss / float64(n) / (d * d)
}

// lstsq solves min ||A c - y|| over the given basis columns via QR and
// returns the coefficients with the residual sum of squares.
// Ill-conditioned systems are tolerated; rank-deficient ones error out
// and the caller skips the candidate.
func lstsq(cols [][]float64, y []float64) ([]float64, float64, error) {
	n := len(y)
	m := len(cols)
	if m == 0 || m > n {
		return nil, 0, fmt.Errorf("cannot solve %d columns with %d rows", m, n)
	}
	a := mat.NewDense(n, m, nil)
	for j, col := range cols {
		a.SetCol(j, col)
	}
	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, mat.NewDense(n, 1, append([]float64(nil), y...))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, 0, err
		}
	}
	coef := make([]float64, m)
	for j := 0; j < m; j++ {
		coef[j] = sol.At(j, 0)
	}
	var rss float64
	for r := 0; r < n; r++ {
		var v float64
		for j := 0; j < m; j++ {
			v += coef[j] * cols[j][r]
		}
		d := y[r] - v
		rss += d * d
	}
	if math.IsNaN(rss) || math.IsInf(rss, 0) {
		return nil, 0, fmt.Errorf("unstable solve")
	}
	return coef, rss, nil
}
