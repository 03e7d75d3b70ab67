// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qp defines the boundary to convex quadratic program solvers
//
//	𝚖𝚒𝚗 ½𝐱ᵀ𝐏𝐱 + 𝐪ᵀ𝐱  subject to  𝐥 ≤ 𝐀𝐱 ≤ 𝐮
//
// and ships a dense least-squares backend built on the Lawson-Hanson kernels.
package qp

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/curioloop/polytraj/sparse"
)

// ErrProblem reports a malformed problem passed to a solver.
var ErrProblem = errors.New("qp: invalid problem")

// Problem is a QP in compressed sparse column form.
// P is stored with both triangles.
type Problem struct {
	P *sparse.CSC
	A *sparse.CSC
	Q []float64
	L []float64
	U []float64
}

// Check verifies the problem dimensions.
func (p *Problem) Check() (err error) {
	switch {
	case p.P == nil || p.A == nil:
		err = errors.New("missing matrix")
	case p.P.Rows != p.P.Cols:
		err = fmt.Errorf("P is %d×%d, want square", p.P.Rows, p.P.Cols)
	case p.A.Cols != p.P.Cols:
		err = fmt.Errorf("A has %d columns, want %d", p.A.Cols, p.P.Cols)
	case len(p.Q) != p.P.Cols:
		err = fmt.Errorf("q has length %d, want %d", len(p.Q), p.P.Cols)
	case len(p.L) != p.A.Rows || len(p.U) != p.A.Rows:
		err = fmt.Errorf("bounds have length %d/%d, want %d", len(p.L), len(p.U), p.A.Rows)
	}
	if err == nil {
		err = p.P.Check()
	}
	if err == nil {
		err = p.A.Check()
	}
	if err == nil {
		for i := range p.L {
			if math.IsNaN(p.L[i]) || math.IsNaN(p.U[i]) || p.L[i] > p.U[i] {
				err = fmt.Errorf("row %d has bounds [%g, %g]", i, p.L[i], p.U[i])
				break
			}
		}
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrProblem, err)
	}
	return
}

// Objective returns ½𝐱ᵀ𝐏𝐱 + 𝐪ᵀ𝐱.
func (p *Problem) Objective(x []float64) float64 {
	obj := 0.5 * p.P.QuadForm(x)
	for i, qi := range p.Q {
		obj += qi * x[i]
	}
	return obj
}

// Violation returns the largest scaled violation of 𝐥 ≤ 𝐀𝐱 ≤ 𝐮,
// where each violation is divided by max(1, |bound|).
func (p *Problem) Violation(x []float64) float64 {
	ax := p.A.MulVec(x)
	var worst float64
	for i, v := range ax {
		if d := p.L[i] - v; d > 0 {
			worst = math.Max(worst, d/math.Max(1, math.Abs(p.L[i])))
		}
		if d := v - p.U[i]; d > 0 {
			worst = math.Max(worst, d/math.Max(1, math.Abs(p.U[i])))
		}
	}
	return worst
}

// Status of a solve, numbered after the OSQP exit codes.
type Status int

const (
	Unknown          Status = 0
	Solved           Status = 1
	SolvedInaccurate Status = 2
	MaxIterReached   Status = -2
	PrimalInfeasible Status = -3
	NonConvex        Status = -7
	Unsolved         Status = -10
)

func (s Status) String() string {
	switch s {
	case Solved:
		return "solved"
	case SolvedInaccurate:
		return "solved inaccurate"
	case MaxIterReached:
		return "maximum iterations reached"
	case PrimalInfeasible:
		return "primal infeasible"
	case NonConvex:
		return "problem non convex"
	case Unsolved:
		return "unsolved"
	}
	return "unknown"
}

// Settings tune a solve. Zero fields take the values of DefaultSettings.
type Settings struct {
	// Polish re-solves with the active inequality set as equalities.
	Polish bool
	// Verbose emits diagnostics to Logger, or to a colored stderr handler when Logger is nil.
	Verbose bool
	Logger  *slog.Logger

	// Ridge added to the normalized Hessian spectrum.
	Regularization float64
	// Ridge used by the polish solve.
	PolishRegularization float64
	// Rows with |u - l| at or below this are equalities.
	EqualityTolerance float64
	// Largest scaled violation accepted as solved.
	FeasibilityTolerance float64
	// Bounds at or beyond ±Infinity are absent.
	Infinity float64
	// NNLS iteration limit, 3×(inequality rows) when zero.
	MaxIterNNLS int
}

// DefaultSettings returns the settings used for zero fields.
func DefaultSettings() Settings {
	return Settings{
		Regularization:       1e-10,
		PolishRegularization: 1e-13,
		EqualityTolerance:    1e-12,
		FeasibilityTolerance: 1e-6,
		Infinity:             1e30,
	}
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.Regularization <= 0 {
		s.Regularization = def.Regularization
	}
	if s.PolishRegularization <= 0 {
		s.PolishRegularization = def.PolishRegularization
	}
	if s.EqualityTolerance <= 0 {
		s.EqualityTolerance = def.EqualityTolerance
	}
	if s.FeasibilityTolerance <= 0 {
		s.FeasibilityTolerance = def.FeasibilityTolerance
	}
	if s.Infinity <= 0 {
		s.Infinity = def.Infinity
	}
	if s.Verbose && s.Logger == nil {
		s.Logger = DefaultLogger()
	}
	return s
}

// Result of a solve. X is nil unless the status carries a primal point.
type Result struct {
	X        []float64
	Status   Status
	ObjVal   float64
	Polished bool
	// Number of least-squares solves performed.
	Iter int
}

// Solver solves a QP. Failures of the algorithm are reported through
// Result.Status; errors are reserved for malformed problems.
type Solver interface {
	Solve(p *Problem, s Settings) (*Result, error)
}
