// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timealloc

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/polytraj/numdiff"
	"github.com/curioloop/polytraj/trajectory"
)

// Status reports why the optimizer stopped.
type Status int

const (
	// Converged the relative improvement fell below Tolerance or the projected gradient vanished.
	Converged Status = iota
	// MaxIterations the iteration budget is exhausted.
	MaxIterations
	// StepRejected no candidate within the backtracking budget lowered the cost.
	StepRejected
	// InfeasibleStart the initial times do not yield a solved trajectory.
	InfeasibleStart
	// GradientFailed a gradient component stays non-finite after the retries.
	GradientFailed
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case MaxIterations:
		return "maximum iterations reached"
	case StepRejected:
		return "step rejected"
	case InfeasibleStart:
		return "infeasible start"
	case GradientFailed:
		return "gradient failed"
	}
	return "unknown"
}

// Result of a Run.
type Result struct {
	// Best node times found, starting at the initial first time.
	Times []float64
	// Trajectory solved at Times.
	Solution *trajectory.Solution
	// Cost at Times and at the initial times.
	Cost        float64
	InitialCost float64
	// Accepted steps.
	NumIter int
	// Trajectory solves including gradient probes.
	NumSolves int
	Status    Status
}

// Optimizer searches the segment durations minimizing the trajectory cost
//
//	J(Δ) = ObjVal(times(Δ)) + TimeWeight·∑Δᵢ
//
// by projected steepest descent with finite difference gradients and a
// backtracking step. A candidate whose trajectory is not solved costs +Inf.
//
// With a zero TimeWeight the total duration is held at its initial value and
// candidates are projected onto { ∑Δᵢ = T, Δᵢ ≥ MinDuration }. Otherwise
// candidates only keep Δᵢ ≥ MinDuration.
type Optimizer struct {
	opts Options
}

// New validates the options and returns an optimizer.
func New(opts Options) (*Optimizer, error) {
	opts = opts.withDefaults()
	if err := opts.check(); err != nil {
		return nil, err
	}
	return &Optimizer{opts: opts}, nil
}

// run holds the state of one Run.
type run struct {
	opts   *Options
	t0     float64
	solves atomic.Int64
}

func (r *run) times(dur []float64) []float64 {
	t := make([]float64, len(dur)+1)
	t[0] = r.t0
	floats.CumSum(t[1:], dur)
	floats.AddConst(r.t0, t[1:])
	return t
}

func (r *run) eval(dur []float64) (*trajectory.Solution, float64, error) {
	b := &r.opts.Bounds
	sol, err := r.opts.Solver.Run(r.times(dur), b.Equality, b.Inequality, b.Segment)
	r.solves.Add(1)
	if err != nil {
		return nil, math.Inf(1), err
	}
	if !sol.Solved() {
		return sol, math.Inf(1), nil
	}
	return sol, sol.ObjVal + r.opts.TimeWeight*floats.Sum(dur), nil
}

func (o *Optimizer) durations(times []float64) ([]float64, error) {
	if len(times) < 2 {
		return nil, fmt.Errorf("%w: %d node times, want at least 2", ErrInput, len(times))
	}
	dur := make([]float64, len(times)-1)
	for i := range dur {
		if !finite(times[i]) || !finite(times[i+1]) {
			return nil, fmt.Errorf("%w: node time is not finite", ErrInput)
		}
		dur[i] = times[i+1] - times[i]
		if dur[i] < o.opts.MinDuration {
			return nil, fmt.Errorf("%w: segment %d lasts %g, below %g", ErrInput, i, dur[i], o.opts.MinDuration)
		}
	}
	return dur, nil
}

// Run optimizes the node times starting from initial. Only malformed input
// and errors of the first trajectory solve are returned as errors.
func (o *Optimizer) Run(initial []float64) (*Result, error) {
	dur, err := o.durations(initial)
	if err != nil {
		return nil, err
	}

	opts := &o.opts
	r := &run{opts: opts, t0: initial[0]}
	sol, cost, err := r.eval(dur)
	if err != nil {
		return nil, fmt.Errorf("timealloc: initial solve: %w", err)
	}

	res := &Result{
		Times:       r.times(dur),
		Solution:    sol,
		Cost:        cost,
		InitialCost: cost,
	}
	if math.IsInf(cost, 1) {
		res.Status = InfeasibleStart
		res.NumSolves = int(r.solves.Load())
		return res, nil
	}

	var log *slog.Logger
	if opts.Verbose {
		log = opts.Logger
	}

	n := len(dur)
	lo := opts.MinDuration
	fixed := opts.TimeWeight == 0
	total := floats.Sum(dur)
	alpha := opts.Step * total / float64(n)

	bounds := make([]numdiff.Bound, n)
	for i := range bounds {
		bounds[i] = numdiff.Bound{lo, math.Inf(1)}
	}
	spec := numdiff.Spec{
		N: n,
		Func: func(x []float64) float64 {
			_, j, _ := r.eval(x)
			return j
		},
		Method:      opts.Method,
		Bounds:      bounds,
		Concurrency: opts.Concurrency,
	}

	g := make([]float64, n)
	status := MaxIterations
	for res.NumIter < opts.MaxIterations {
		if err := spec.Grad(dur, g); err != nil {
			status = GradientFailed
			break
		}
		if !allFinite(g) && !retryGradient(spec.Func, dur, g, cost, lo, opts.MaxBacktracks) {
			status = GradientFailed
			break
		}
		projectGradient(g, dur, lo, fixed)
		norm := floats.Norm(g, 2)
		if norm == 0 {
			status = Converged
			break
		}
		floats.Scale(-1/norm, g)

		var (
			next    []float64
			nextSol *trajectory.Solution
			nextJ   = math.Inf(1)
		)
		for b := 0; b <= opts.MaxBacktracks; b++ {
			cand := make([]float64, n)
			floats.AddScaledTo(cand, dur, alpha, g)
			if fixed {
				cand = projectSimplex(cand, total, lo)
			} else {
				cand = clampBelow(cand, lo)
			}
			if floats.Equal(cand, dur) {
				break
			}
			s, j, _ := r.eval(cand)
			if j < cost {
				next, nextSol, nextJ = cand, s, j
				break
			}
			alpha *= opts.Shrink
		}
		if next == nil {
			status = StepRejected
			break
		}

		gain := (cost - nextJ) / math.Max(math.Abs(cost), math.SmallestNonzeroFloat64)
		dur, sol, cost = next, nextSol, nextJ
		res.NumIter++
		alpha *= opts.Grow

		if log != nil {
			log.Debug("time allocation step",
				slog.Int("iter", res.NumIter),
				slog.Float64("cost", cost),
				slog.Float64("gain", gain),
				slog.Float64("step", alpha),
				slog.Float64("grad", norm))
		}
		if gain < opts.Tolerance {
			status = Converged
			break
		}
	}

	res.Times = r.times(dur)
	res.Solution = sol
	res.Cost = cost
	res.Status = status
	res.NumSolves = int(r.solves.Load())
	if log != nil {
		log.Info("time allocation done",
			slog.String("status", status.String()),
			slog.Float64("cost", cost),
			slog.Float64("initial", res.InitialCost),
			slog.Int("iter", res.NumIter),
			slog.Int("solves", res.NumSolves))
	}
	return res, nil
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if !finite(x) {
			return false
		}
	}
	return true
}
