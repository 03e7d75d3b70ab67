// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trajectory

import (
	"fmt"
	"math"
)

// Info holds the sizes of one formulation.
type Info struct {
	NumDimensions   int
	PolynomialOrder int
	DerivativeOrder int
	ContinuityOrder int

	NumNodes    int
	NumSegments int

	// P+1 coefficients per node and dimension.
	NumParamsPerNodePerDim int
	// Coefficients of one node over every dimension.
	NumParamsPerNode int
	TotalNumParams   int

	// Structural lower bound on the number of constraint rows.
	MinNumConstraints int
	// Rows actually emitted.
	NumConstraints int
}

func newInfo(o *Options, numNodes int) Info {
	info := Info{
		NumDimensions:   o.NumDimensions,
		PolynomialOrder: o.PolynomialOrder,
		DerivativeOrder: o.DerivativeOrder,
		ContinuityOrder: o.ContinuityOrder,
		NumNodes:        numNodes,
		NumSegments:     numNodes - 1,
	}
	info.NumParamsPerNodePerDim = info.PolynomialOrder + 1
	info.NumParamsPerNode = info.NumParamsPerNodePerDim * info.NumDimensions
	info.TotalNumParams = info.NumParamsPerNode * info.NumNodes
	info.MinNumConstraints = MinConstraints(info.NumDimensions, info.NumNodes, info.ContinuityOrder)
	return info
}

// MinConstraints returns the smallest row count a well-posed problem can have:
// the start state and every node position of each dimension, plus the
// continuity rows of every segment.
func MinConstraints(dims, nodes, continuity int) int {
	segs := nodes - 1
	return 3*dims + (nodes-1)*dims + segs*(continuity+1)*dims
}

// ParamIndex returns the position of coefficient coeff of the node polynomial
// of dimension dim in the stacked decision vector.
func (info *Info) ParamIndex(dim, node, coeff int) int {
	return coeff + info.NumParamsPerNodePerDim*node + info.NumParamsPerNodePerDim*info.NumNodes*dim
}

// checkTimes verifies that times are finite and strictly increasing.
func checkTimes(times []float64) error {
	if len(times) < 2 {
		return fmt.Errorf("%w: %d node times, want at least 2", ErrInput, len(times))
	}
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: node time %d is %g", ErrInput, i, t)
		}
		if i > 0 && t <= times[i-1] {
			return fmt.Errorf("%w: node times not strictly increasing at %d (%g <= %g)", ErrInput, i, t, times[i-1])
		}
	}
	return nil
}

// durations returns the segment lengths, all one when unit is set.
func durations(times []float64, unit bool) []float64 {
	dt := make([]float64, len(times)-1)
	for i := range dt {
		if unit {
			dt[i] = 1
		} else {
			dt[i] = times[i+1] - times[i]
		}
	}
	return dt
}
