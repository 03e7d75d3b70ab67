// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qp

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/polytraj/lsq"
)

// negative eigenvalues below -nonConvexTol × λₘₐₓ of the normalized Hessian are rejected
const nonConvexTol = 1e-8

// LeastSquares solves a convex QP as a dense least-distance problem.
//
// The Hessian is normalized by its largest diagonal entry and factorized as 𝐕𝚲𝐕ᵀ.
// With a ridge ρ added to the spectrum the objective becomes
//
//	½‖ 𝐄𝐱 - 𝐟 ‖₂  where 𝐄 = (𝚲 + ρ𝐈)¹ᐟ²𝐕ᵀ and 𝐟 = -(𝚲 + ρ𝐈)⁻¹ᐟ²𝐕ᵀ𝐪
//
// which LSEI minimizes subject to the equality rows and the finite sides of
// the inequality rows. 𝐄 is square and non-singular whatever the rank of 𝐏.
//
// It holds no state and is safe for concurrent use.
type LeastSquares struct{}

var _ Solver = LeastSquares{}

// NewLeastSquares returns the least-squares backend.
func NewLeastSquares() LeastSquares { return LeastSquares{} }

// factor is the spectral decomposition of the normalized Hessian.
type factor struct {
	n      int
	scale  float64
	values []float64
	vecs   *mat.Dense
	q      []float64 // 𝐪 / scale
}

// objective returns 𝐄 and 𝐟 in column-major order for the ridge rho.
func (f *factor) objective(rho float64) (e, rhs []float64) {
	n := f.n
	e = make([]float64, n*n)
	rhs = make([]float64, n)
	for k := 0; k < n; k++ {
		s := math.Sqrt(f.values[k] + rho)
		var vq float64
		for j := 0; j < n; j++ {
			v := f.vecs.At(j, k)
			e[k+n*j] = s * v
			vq += v * f.q[j]
		}
		rhs[k] = -vq / s
	}
	return
}

func factorize(p *Problem) (*factor, Status) {
	n := p.P.Cols
	dense := p.P.ToDense()

	scale := 0.0
	for i := 0; i < n; i++ {
		scale = math.Max(scale, math.Abs(dense.At(i, i)))
	}
	if scale == 0 {
		for j := 0; j < p.P.NNZ(); j++ {
			scale = math.Max(scale, math.Abs(p.P.Values[j]))
		}
	}
	if scale == 0 {
		scale = 1
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(dense.At(i, j)+dense.At(j, i))/scale)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, Unsolved
	}
	values := eig.Values(nil)
	vecs := new(mat.Dense)
	eig.VectorsTo(vecs)

	lmax := math.Max(floats.Max(values), 0)
	if lmin := floats.Min(values); lmin < -nonConvexTol*math.Max(1, lmax) {
		return nil, NonConvex
	}
	for k, v := range values {
		values[k] = math.Max(v, 0)
	}

	q := make([]float64, n)
	floats.ScaleTo(q, 1/scale, p.Q)
	return &factor{n: n, scale: scale, values: values, vecs: vecs, q: q}, Solved
}

// rows splits the constraints into equality rows 𝐂𝐱 = 𝐝 and inequality rows 𝐆𝐱 ≥ 𝐡.
// Every row is normalized to unit length. Empty rows are dropped when 0 satisfies
// them and make the problem infeasible otherwise.
type rows struct {
	n      int
	c, d   []float64 // row-major
	g, h   []float64
	infeas bool
}

func (r *rows) collect(p *Problem, s Settings) {
	m, n := p.A.Rows, p.A.Cols
	r.n = n
	a := mat.NewDense(max(m, 1), n, nil)
	for j := 0; j < n; j++ {
		for k := p.A.ColPtr[j]; k < p.A.ColPtr[j+1]; k++ {
			a.Set(p.A.RowIdx[k], j, p.A.Values[k])
		}
	}
	for i := 0; i < m; i++ {
		row := a.RawRowView(i)
		lo, up := p.L[i], p.U[i]
		hasLo, hasUp := lo > -s.Infinity, up < s.Infinity
		norm := floats.Norm(row, 2)
		if norm == 0 {
			if (hasLo && lo > s.FeasibilityTolerance) || (hasUp && up < -s.FeasibilityTolerance) {
				r.infeas = true
			}
			continue
		}
		switch {
		case hasLo && hasUp && up-lo <= s.EqualityTolerance:
			r.c = appendScaled(r.c, row, 1/norm)
			r.d = append(r.d, 0.5*(lo+up)/norm)
		default:
			if hasLo {
				r.g = appendScaled(r.g, row, 1/norm)
				r.h = append(r.h, lo/norm)
			}
			if hasUp {
				r.g = appendScaled(r.g, row, -1/norm)
				r.h = append(r.h, -up/norm)
			}
		}
	}
}

func appendScaled(dst, row []float64, s float64) []float64 {
	for _, v := range row {
		dst = append(dst, s*v)
	}
	return dst
}

// colMajor transposes a row-major block of rows × n entries.
func colMajor(src []float64, n int) []float64 {
	m := len(src) / max(n, 1)
	dst := make([]float64, len(src))
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			dst[i+m*j] = src[i*n+j]
		}
	}
	return dst
}

func modeStatus(m lsq.Mode) Status {
	switch m {
	case lsq.HasSolution:
		return Solved
	case lsq.ConsIncompatible:
		return PrimalInfeasible
	case lsq.NNLSExceedMaxIter:
		return MaxIterReached
	}
	return Unsolved
}

// Solve implements Solver.
func (LeastSquares) Solve(p *Problem, s Settings) (*Result, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}
	s = s.withDefaults()
	var log *slog.Logger
	if s.Verbose {
		log = s.Logger
	}

	n := p.P.Cols
	res := &Result{ObjVal: math.Inf(1)}
	if n == 0 {
		res.Status = Unsolved
		return res, nil
	}

	fac, st := factorize(p)
	if st != Solved {
		res.Status = st
		if log != nil {
			log.Warn("hessian factorization failed", "status", st)
		}
		return res, nil
	}

	var r rows
	r.collect(p, s)
	if log != nil {
		log.Debug("least-squares problem",
			slog.Int("vars", n),
			slog.Int("rows", p.A.Rows),
			slog.Int("eq", len(r.d)),
			slog.Int("ineq", len(r.h)),
			slog.Float64("scale", fac.scale))
	}
	if r.infeas {
		res.Status = PrimalInfeasible
		return res, nil
	}

	e, f := fac.objective(s.Regularization)
	prob := lsq.Problem{
		N:       n,
		C:       colMajor(r.c, n),
		D:       r.d,
		E:       e,
		F:       f,
		G:       colMajor(r.g, n),
		H:       r.h,
		MaxIter: s.MaxIterNNLS,
	}
	sol, err := prob.Solve()
	if err != nil {
		// dimensions are consistent by construction, only too many equalities remain
		res.Status = Unsolved
		if log != nil {
			log.Warn("least-squares setup rejected", "err", err)
		}
		return res, nil
	}
	res.Iter = 1
	res.Status = modeStatus(sol.Mode)
	if log != nil {
		log.Debug("least-squares solve", "mode", sol.Mode)
	}
	if res.Status != Solved {
		return res, nil
	}

	res.X = sol.X
	res.ObjVal = p.Objective(sol.X)
	if v := p.Violation(sol.X); v > s.FeasibilityTolerance {
		if len(r.d) == n && len(r.h) > 0 {
			// the equalities pin the point and the inequalities reject it
			res.Status = PrimalInfeasible
		} else {
			res.Status = SolvedInaccurate
		}
		if log != nil {
			log.Warn("constraint violation", "max", v, "status", res.Status)
		}
		return res, nil
	}

	if s.Polish && len(r.h) > 0 {
		polish(p, s, fac, &r, sol, res, log)
	}

	if log != nil {
		log.Info("qp solved",
			slog.String("status", res.Status.String()),
			slog.Float64("obj", res.ObjVal),
			slog.Bool("polished", res.Polished),
			slog.Int("iter", res.Iter))
	}
	return res, nil
}

// polish re-solves with the active inequality rows promoted to equalities and
// keeps the polished point only when it is feasible and not worse.
func polish(p *Problem, s Settings, fac *factor, r *rows, sol *lsq.Result, res *Result, log *slog.Logger) {
	n := r.n
	mc := len(r.d)
	c := append([]float64(nil), r.c...)
	d := append([]float64(nil), r.d...)
	active := 0
	for i := range r.h {
		if mc+active >= n {
			break
		}
		row := r.g[i*n : (i+1)*n]
		slack := floats.Dot(row, sol.X) - r.h[i]
		if slack <= s.FeasibilityTolerance*math.Max(1, math.Abs(r.h[i])) {
			c = append(c, row...)
			d = append(d, r.h[i])
			active++
		}
	}
	if active == 0 {
		return
	}

	e, f := fac.objective(s.PolishRegularization)
	prob := lsq.Problem{N: n, C: colMajor(c, n), D: d, E: e, F: f, MaxIter: s.MaxIterNNLS}
	pol, err := prob.Solve()
	if err != nil {
		return
	}
	res.Iter++
	if pol.Mode != lsq.HasSolution {
		if log != nil {
			log.Debug("polish failed", "active", active, "mode", pol.Mode)
		}
		return
	}
	obj := p.Objective(pol.X)
	viol := p.Violation(pol.X)
	if viol > s.FeasibilityTolerance || obj > res.ObjVal+s.FeasibilityTolerance*math.Max(1, math.Abs(res.ObjVal)) {
		if log != nil {
			log.Debug("polish rejected", "active", active, "obj", obj, "violation", viol)
		}
		return
	}
	res.X = pol.X
	res.ObjVal = obj
	res.Polished = true
}
