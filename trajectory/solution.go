// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trajectory

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/polytraj/poly"
	"github.com/curioloop/polytraj/qp"
)

// Solution of one Run.
type Solution struct {
	// One (P+1) × NumNodes matrix per dimension. Column j holds the Taylor
	// coefficients of the polynomial starting at node j.
	// Nil when the backend produced no point.
	Coefficients []*mat.Dense

	Status    string
	StatusVal int
	ObjVal    float64
	Polished  bool

	Times []float64

	unit bool
}

var errNoCoefficients = errors.New("trajectory: solution has no coefficients")

// Solved reports whether the backend converged.
func (s *Solution) Solved() bool { return s.StatusVal == int(qp.Solved) }

// Evaluate returns the derivative of dimension dim at time t, which must lie
// within the node times. A time on an inner node is evaluated at the end of
// the segment that precedes it.
func (s *Solution) Evaluate(dim, derivative int, t float64) (float64, error) {
	if s.Coefficients == nil {
		return 0, errNoCoefficients
	}
	if dim < 0 || dim >= len(s.Coefficients) {
		return 0, fmt.Errorf("%w: dimension %d out of range", ErrInput, dim)
	}
	if derivative < 0 {
		return 0, fmt.Errorf("%w: negative derivative %d", ErrInput, derivative)
	}
	last := len(s.Times) - 1
	if math.IsNaN(t) || t < s.Times[0] || t > s.Times[last] {
		return 0, fmt.Errorf("%w: time %g outside [%g, %g]", ErrInput, t, s.Times[0], s.Times[last])
	}

	seg := max(sort.SearchFloat64s(s.Times, t)-1, 0)
	tau := t - s.Times[seg]
	coeffs := mat.Col(nil, seg, s.Coefficients[dim])
	if !s.unit {
		return poly.Evaluate(coeffs, derivative, tau), nil
	}
	// the unit basis runs over [0, 1] whatever the segment length
	dt := s.Times[seg+1] - s.Times[seg]
	return poly.Evaluate(coeffs, derivative, tau/dt) / math.Pow(dt, float64(derivative)), nil
}
