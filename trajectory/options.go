// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trajectory

import (
	"fmt"
	"log/slog"

	"github.com/curioloop/polytraj/poly"
	"github.com/curioloop/polytraj/qp"
)

// DefaultSegmentSamples is the number of evaluation points per segment
// used for segment inequality bounds when Options.SegmentSamples is zero.
const DefaultSegmentSamples = 8

// Options configure the trajectory formulation.
type Options struct {
	// Number of independent dimensions sharing the node times.
	NumDimensions int
	// Polynomial order P of every node polynomial.
	PolynomialOrder int
	// Derivative whose squared integral is minimized.
	DerivativeOrder int
	// Highest derivative matched across segment boundaries.
	ContinuityOrder int

	// Evenly spaced points per segment at which segment bounds hold.
	SegmentSamples int
	// Treat every segment as spanning one time unit whatever the node times.
	UnitSegments bool

	// Polish the QP solution.
	Polish bool
	// Emit solver diagnostics.
	Verbose bool

	// QP backend, qp.LeastSquares when nil.
	Backend qp.Solver
	// Backend settings. Polish, Verbose and Logger are taken from Options.
	Settings qp.Settings
	// Diagnostics sink, a colored stderr handler when nil and Verbose is set.
	Logger *slog.Logger
}

// Check validates the options.
func (o *Options) Check() (err error) {
	switch {
	case o.NumDimensions < 1:
		err = fmt.Errorf("%w: number of dimensions %d < 1", ErrConfig, o.NumDimensions)
	case o.DerivativeOrder < 0:
		err = fmt.Errorf("%w: negative derivative order %d", ErrConfig, o.DerivativeOrder)
	case o.ContinuityOrder < 0:
		err = fmt.Errorf("%w: negative continuity order %d", ErrConfig, o.ContinuityOrder)
	case o.PolynomialOrder < o.DerivativeOrder+3:
		err = fmt.Errorf("%w: polynomial order %d < derivative order %d + 3", ErrConfig, o.PolynomialOrder, o.DerivativeOrder)
	case o.PolynomialOrder <= o.ContinuityOrder:
		err = fmt.Errorf("%w: polynomial order %d <= continuity order %d", ErrConfig, o.PolynomialOrder, o.ContinuityOrder)
	case o.PolynomialOrder > poly.MaxOrder:
		err = fmt.Errorf("%w: polynomial order %d > %d", ErrConfig, o.PolynomialOrder, poly.MaxOrder)
	case o.SegmentSamples < 0:
		err = fmt.Errorf("%w: negative segment samples %d", ErrConfig, o.SegmentSamples)
	}
	return
}

func (o Options) withDefaults() Options {
	if o.SegmentSamples == 0 {
		o.SegmentSamples = DefaultSegmentSamples
	}
	if o.Backend == nil {
		o.Backend = qp.NewLeastSquares()
	}
	if o.Verbose && o.Logger == nil {
		o.Logger = qp.DefaultLogger()
	}
	return o
}

func (o *Options) settings() qp.Settings {
	s := o.Settings
	s.Polish = o.Polish
	s.Verbose = o.Verbose
	s.Logger = o.Logger
	return s
}
