// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timealloc

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/curioloop/polytraj/numdiff"
	"github.com/curioloop/polytraj/qp"
	"github.com/curioloop/polytraj/trajectory"
)

var (
	// ErrConfig reports invalid Options.
	ErrConfig = errors.New("timealloc: invalid options")
	// ErrInput reports malformed initial times.
	ErrInput = errors.New("timealloc: invalid input")
)

// Bounds of the trajectory re-solved for every candidate time vector.
type Bounds struct {
	Equality   []trajectory.NodeEqualityBound
	Inequality []trajectory.NodeInequalityBound
	Segment    []trajectory.SegmentInequalityBound
}

// Options configure the time-allocation optimizer.
type Options struct {
	Solver *trajectory.Solver
	Bounds Bounds

	// Cost per unit of total duration. Zero keeps the total duration fixed.
	TimeWeight float64
	// Shortest admissible segment.
	MinDuration float64

	MaxIterations int
	// Stop when the relative cost improvement of an iteration falls below it.
	Tolerance float64

	// Initial step length as a fraction of the mean segment duration.
	Step float64
	// Step factor after a rejected candidate.
	Shrink float64
	// Step factor after an accepted candidate.
	Grow float64
	// Rejected candidates tolerated per iteration.
	MaxBacktracks int

	// Finite difference scheme of the gradient.
	Method numdiff.Method
	// Inner solves run in parallel while estimating the gradient.
	Concurrency int

	Verbose bool
	Logger  *slog.Logger
}

const (
	defaultMinDuration   = 1e-3
	defaultMaxIterations = 50
	defaultTolerance     = 1e-6
	defaultStep          = 0.1
	defaultShrink        = 0.5
	defaultGrow          = 1.5
	defaultMaxBacktracks = 10
)

func (o Options) withDefaults() Options {
	if o.MinDuration == 0 {
		o.MinDuration = defaultMinDuration
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = defaultMaxIterations
	}
	if o.Tolerance == 0 {
		o.Tolerance = defaultTolerance
	}
	if o.Step == 0 {
		o.Step = defaultStep
	}
	if o.Shrink == 0 {
		o.Shrink = defaultShrink
	}
	if o.Grow == 0 {
		o.Grow = defaultGrow
	}
	if o.MaxBacktracks == 0 {
		o.MaxBacktracks = defaultMaxBacktracks
	}
	if o.Verbose && o.Logger == nil {
		o.Logger = qp.DefaultLogger()
	}
	return o
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// check validates options after defaults were applied.
func (o *Options) check() (err error) {
	switch {
	case o.Solver == nil:
		err = errors.New("missing trajectory solver")
	case !finite(o.TimeWeight) || o.TimeWeight < 0:
		err = fmt.Errorf("time weight %g", o.TimeWeight)
	case !finite(o.MinDuration) || o.MinDuration <= 0:
		err = fmt.Errorf("minimum duration %g", o.MinDuration)
	case o.MaxIterations < 0:
		err = fmt.Errorf("maximum iterations %d", o.MaxIterations)
	case !finite(o.Tolerance) || o.Tolerance < 0:
		err = fmt.Errorf("tolerance %g", o.Tolerance)
	case !finite(o.Step) || o.Step <= 0:
		err = fmt.Errorf("step %g", o.Step)
	case !(o.Shrink > 0 && o.Shrink < 1):
		err = fmt.Errorf("shrink factor %g outside (0,1)", o.Shrink)
	case !finite(o.Grow) || o.Grow < 1:
		err = fmt.Errorf("grow factor %g below 1", o.Grow)
	case o.MaxBacktracks < 0:
		err = fmt.Errorf("maximum backtracks %d", o.MaxBacktracks)
	case o.Method != numdiff.Forward && o.Method != numdiff.Central:
		err = fmt.Errorf("finite difference method %d", o.Method)
	case o.Concurrency < 0:
		err = fmt.Errorf("concurrency %d", o.Concurrency)
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return
}
