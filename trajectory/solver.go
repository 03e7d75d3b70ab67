// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trajectory

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/polytraj/qp"
	"github.com/curioloop/polytraj/sparse"
)

// Solver formulates and solves minimum-derivative trajectory problems.
// It holds only its options and is safe for concurrent use when the
// backend is.
type Solver struct {
	opts Options
}

// NewSolver validates the options and returns a solver.
func NewSolver(opts Options) (*Solver, error) {
	if err := opts.Check(); err != nil {
		return nil, err
	}
	return &Solver{opts: opts.withDefaults()}, nil
}

// Options returns the effective options.
func (s *Solver) Options() Options { return s.opts }

// Formulation is the QP of one set of node times and bounds.
type Formulation struct {
	Info  Info
	Times []float64
	// Segment lengths used by the basis, all one with UnitSegments.
	Durations []float64

	plan *rowPlan
}

// Formulate validates the input and sizes the problem without solving it.
func (s *Solver) Formulate(times []float64, eq []NodeEqualityBound, neq []NodeInequalityBound, seg []SegmentInequalityBound) (*Formulation, error) {
	if err := s.opts.Check(); err != nil {
		return nil, err
	}
	if err := checkTimes(times); err != nil {
		return nil, err
	}
	info := newInfo(&s.opts, len(times))
	if err := info.checkBounds(eq, neq, seg); err != nil {
		return nil, err
	}

	plan := info.plan(eq, neq, seg, s.opts.SegmentSamples)
	info.NumConstraints = plan.rows
	if info.NumConstraints < info.MinNumConstraints {
		return nil, fmt.Errorf("%w: %d rows, need at least %d", ErrUnderConstrained, info.NumConstraints, info.MinNumConstraints)
	}

	return &Formulation{
		Info:      info,
		Times:     append([]float64(nil), times...),
		Durations: durations(times, s.opts.UnitSegments),
		plan:      plan,
	}, nil
}

// Constraints writes the NumConstraints × TotalNumParams constraint matrix into dst
// and returns the row bounds.
func (f *Formulation) Constraints(dst sparse.Setter) (lower, upper []float64) {
	return f.Info.writeConstraints(f.plan, f.Durations, dst)
}

// Cost writes the TotalNumParams × TotalNumParams Hessian into dst.
func (f *Formulation) Cost(dst sparse.Setter) {
	f.Info.writeCost(f.Durations, dst)
}

// Problem assembles the sparse QP with a zero linear term.
func (f *Formulation) Problem() (*qp.Problem, error) {
	return f.assemble(nil)
}

// assemble builds the QP in the variables 𝐲 with 𝐱 = scale ⊙ 𝐲, or in 𝐱 itself
// when scale is nil. Row bounds and the objective value are unchanged by the
// substitution.
func (f *Formulation) assemble(scale []float64) (*qp.Problem, error) {
	n, m := f.Info.TotalNumParams, f.Info.NumConstraints

	ab := sparse.NewBuilder(m, n)
	var adst sparse.Setter = ab
	if scale != nil {
		adst = scaledColumns{dst: ab, s: scale}
	}
	lower, upper := f.Constraints(adst)
	a, err := ab.Compress(sparse.DropTolerance)
	if err != nil {
		return nil, fmt.Errorf("trajectory: constraint matrix: %w", err)
	}

	pb := sparse.NewBuilder(n, n)
	var pdst sparse.Setter = pb
	if scale != nil {
		pdst = scaledSym{dst: pb, s: scale}
	}
	f.Cost(pdst)
	p, err := pb.Compress(sparse.DropTolerance)
	if err != nil {
		return nil, fmt.Errorf("trajectory: cost matrix: %w", err)
	}

	return &qp.Problem{P: p, A: a, Q: make([]float64, n), L: lower, U: upper}, nil
}

// Run solves for the node polynomials through the given times and bounds.
//
// The backend receives the QP in column-scaled variables whose cost blocks
// have unit diagonal, so long and short segments are equally well
// conditioned; the coefficients are scaled back before they are returned.
//
// A solver that fails to converge or finds the problem infeasible is not an
// error: the outcome is reported through Solution.Status and StatusVal.
func (s *Solver) Run(times []float64, eq []NodeEqualityBound, neq []NodeInequalityBound, seg []SegmentInequalityBound) (*Solution, error) {
	f, err := s.Formulate(times, eq, neq, seg)
	if err != nil {
		return nil, err
	}
	scale := f.Info.columnScale(f.Durations)
	prob, err := f.assemble(scale)
	if err != nil {
		return nil, err
	}

	log := s.logger()
	if log != nil {
		log.Debug("trajectory formulated",
			slog.Int("dims", f.Info.NumDimensions),
			slog.Int("nodes", f.Info.NumNodes),
			slog.Int("params", f.Info.TotalNumParams),
			slog.Int("rows", f.Info.NumConstraints),
			slog.Int("min_rows", f.Info.MinNumConstraints),
			slog.Int("nnz_p", prob.P.NNZ()),
			slog.Int("nnz_a", prob.A.NNZ()))
	}

	res, err := s.opts.Backend.Solve(prob, s.opts.settings())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: no result", ErrBackend)
	}

	sol := &Solution{
		Status:    res.Status.String(),
		StatusVal: int(res.Status),
		ObjVal:    res.ObjVal,
		Polished:  res.Polished,
		Times:     f.Times,
		unit:      s.opts.UnitSegments,
	}
	if res.X != nil {
		if len(res.X) != f.Info.TotalNumParams {
			return nil, fmt.Errorf("%w: %d values, want %d", ErrBackend, len(res.X), f.Info.TotalNumParams)
		}
		x := make([]float64, len(res.X))
		floats.MulTo(x, scale, res.X)
		sol.Coefficients = f.Info.unpack(x)
	}

	if log != nil {
		log.Debug("trajectory solved",
			slog.String("status", sol.Status),
			slog.Float64("obj", sol.ObjVal),
			slog.Bool("polished", sol.Polished))
	}
	return sol, nil
}

func (s *Solver) logger() *slog.Logger {
	if s.opts.Verbose {
		return s.opts.Logger
	}
	return nil
}

// unpack splits the decision vector into one (P+1) × NumNodes matrix per dimension.
func (info *Info) unpack(x []float64) []*mat.Dense {
	coeffs := make([]*mat.Dense, info.NumDimensions)
	for dim := range coeffs {
		m := mat.NewDense(info.NumParamsPerNodePerDim, info.NumNodes, nil)
		for node := 0; node < info.NumNodes; node++ {
			for k := 0; k < info.NumParamsPerNodePerDim; k++ {
				m.Set(k, node, x[info.ParamIndex(dim, node, k)])
			}
		}
		coeffs[dim] = m
	}
	return coeffs
}
