// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trajectory

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sampler evaluates a solution on a uniform time grid.
type Sampler struct {
	// Samples per time unit.
	Frequency float64
	// Derivative to evaluate, 0 for position.
	Derivative int
}

// Run returns a (1+dims) × n matrix. Row 0 holds the sample times from the
// first to the last node time, which is always included, and row 1+d the
// values of dimension d.
func (s Sampler) Run(sol *Solution) (*mat.Dense, error) {
	if s.Frequency <= 0 || math.IsInf(s.Frequency, 0) || math.IsNaN(s.Frequency) {
		return nil, fmt.Errorf("%w: sampling frequency %g", ErrInput, s.Frequency)
	}
	if s.Derivative < 0 {
		return nil, fmt.Errorf("%w: negative derivative %d", ErrInput, s.Derivative)
	}
	if sol == nil || sol.Coefficients == nil {
		return nil, errNoCoefficients
	}

	t0, t1 := sol.Times[0], sol.Times[len(sol.Times)-1]
	span := t1 - t0
	steps := int(math.Floor(span * s.Frequency * (1 + 1e-12)))
	ts := make([]float64, 0, steps+2)
	for k := 0; k <= steps; k++ {
		ts = append(ts, math.Min(t0+float64(k)/s.Frequency, t1))
	}
	if end := len(ts) - 1; t1-ts[end] > 1e-9*math.Max(1, span) {
		ts = append(ts, t1)
	} else if end > 0 {
		ts[end] = t1
	}

	dims := len(sol.Coefficients)
	out := mat.NewDense(1+dims, len(ts), nil)
	out.SetRow(0, ts)
	for dim := 0; dim < dims; dim++ {
		for j, t := range ts {
			v, err := sol.Evaluate(dim, s.Derivative, t)
			if err != nil {
				return nil, err
			}
			out.Set(1+dim, j, v)
		}
	}
	return out, nil
}
