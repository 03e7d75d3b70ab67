// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trajectory

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/polytraj/poly"
	"github.com/curioloop/polytraj/sparse"
)

func TestParamIndex(t *testing.T) {
	info := newInfo(&Options{NumDimensions: 2, PolynomialOrder: 5}, 3)
	require.Equal(t, 6, info.NumParamsPerNodePerDim)
	require.Equal(t, 12, info.NumParamsPerNode)
	require.Equal(t, 36, info.TotalNumParams)

	seen := make(map[int]bool)
	for dim := 0; dim < 2; dim++ {
		for node := 0; node < 3; node++ {
			for k := 0; k <= 5; k++ {
				idx := info.ParamIndex(dim, node, k)
				require.False(t, seen[idx])
				seen[idx] = true
			}
		}
	}
	require.Len(t, seen, 36)
	require.Equal(t, 0, info.ParamIndex(0, 0, 0))
	require.Equal(t, 9, info.ParamIndex(0, 1, 3))
	require.Equal(t, 18+6+2, info.ParamIndex(1, 1, 2))
}

func TestMinConstraints(t *testing.T) {
	require.Equal(t, 3+2+2*3, MinConstraints(1, 3, 2))
	require.Equal(t, 6+4+2*4*2, MinConstraints(2, 3, 3))
	require.Equal(t, 3+1+2, MinConstraints(1, 2, 1))
}

func TestSampleOffsets(t *testing.T) {
	require.Equal(t, []float64{0, 1, 2, 3, 4}, sampleOffsets(5, 4))
	require.Equal(t, []float64{1.5}, sampleOffsets(1, 3))
	require.Equal(t, []float64{0, 2}, sampleOffsets(2, 2))
}

func TestConstraintRowOrder(t *testing.T) {
	s, err := NewSolver(Options{
		NumDimensions:   1,
		PolynomialOrder: 3,
		DerivativeOrder: 0,
		ContinuityOrder: 1,
		SegmentSamples:  2,
	})
	require.NoError(t, err)

	eq := []NodeEqualityBound{
		{Dimension: 0, Node: 1, Derivative: 1, Value: 0},
		{Dimension: 0, Node: 0, Derivative: 1, Value: 0},
		{Dimension: 0, Node: 0, Derivative: 0, Value: 0},
		{Dimension: 0, Node: 0, Derivative: 0, Value: 5}, // ignored
		{Dimension: 0, Node: 1, Derivative: 0, Value: 1},
	}
	neq := []NodeInequalityBound{
		{Dimension: 0, Node: 0, Derivative: 2, Lower: -1, Upper: 1},
	}
	seg := []SegmentInequalityBound{
		{Segment: 0, Derivative: 1, Mapping: []float64{2}, Value: 3},
	}
	f, err := s.Formulate([]float64{0, 2}, eq, neq, seg)
	require.NoError(t, err)
	require.Equal(t, 9, f.Info.NumConstraints)
	require.Equal(t, 6, f.Info.MinNumConstraints)
	require.Equal(t, []float64{2}, f.Durations)

	a := mat.NewDense(f.Info.NumConstraints, f.Info.TotalNumParams, nil)
	lower, upper := f.Constraints(a)

	want := mat.NewDense(9, 8, []float64{
		1, 0, 0, 0, 0, 0, 0, 0, // node 0, p = 0
		0, 1, 0, 0, 0, 0, 0, 0, // node 0, v = 0
		0, 0, 1, 0, 0, 0, 0, 0, // node 0, -1 ≤ a ≤ 1
		1, 2, 2, 8.0 / 6, -1, 0, 0, 0, // position continuity
		0, 1, 2, 2, 0, -1, 0, 0, // velocity continuity
		0, 0, 0, 0, 1, 0, 0, 0, // node 1, p = 1
		0, 0, 0, 0, 0, 1, 0, 0, // node 1, v = 0
		0, 2, 0, 0, 0, 0, 0, 0, // 2v(0) ≤ 3
		0, 2, 4, 4, 0, 0, 0, 0, // 2v(2) ≤ 3
	})
	require.True(t, mat.EqualApprox(want, a, 1e-14), "got\n%v", mat.Formatted(a))

	inf := math.Inf(1)
	if d := cmp.Diff([]float64{0, 0, -1, 0, 0, 1, 0, -inf, -inf}, lower); d != "" {
		t.Errorf("lower bounds (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]float64{0, 0, 1, 0, 0, 1, 0, 3, 3}, upper); d != "" {
		t.Errorf("upper bounds (-want +got):\n%s", d)
	}
}

func TestExplicitRowsByDerivative(t *testing.T) {
	s, err := NewSolver(Options{NumDimensions: 1, PolynomialOrder: 3, DerivativeOrder: 0, ContinuityOrder: 0})
	require.NoError(t, err)

	eq := []NodeEqualityBound{
		{Dimension: 0, Node: 0, Derivative: 2, Value: 7},
		{Dimension: 0, Node: 0, Derivative: 0, Value: 1},
		{Dimension: 0, Node: 1, Derivative: 0, Value: 2},
	}
	neq := []NodeInequalityBound{
		{Dimension: 0, Node: 0, Derivative: 1, Lower: -1, Upper: 1},
		{Dimension: 0, Node: 0, Derivative: 0, Lower: 0, Upper: 4},
		{Dimension: 0, Node: 0, Derivative: 3, Lower: -2, Upper: 2},
	}
	f, err := s.Formulate([]float64{0, 1}, eq, neq, nil)
	require.NoError(t, err)
	require.Equal(t, 7, f.Info.NumConstraints)

	a := mat.NewDense(f.Info.NumConstraints, f.Info.TotalNumParams, nil)
	lower, upper := f.Constraints(a)

	// node 0 rows select derivatives 0 (equality), 0, 1, 2 (equality), 3
	for row, k := range []int{0, 0, 1, 2, 3} {
		want := make([]float64, f.Info.TotalNumParams)
		want[k] = 1
		require.Equal(t, want, mat.Row(nil, row, a), "row %d", row)
	}
	if d := cmp.Diff([]float64{1, 0, -1, 7, -2, 0, 2}, lower); d != "" {
		t.Errorf("lower bounds (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]float64{1, 4, 1, 7, 2, 0, 2}, upper); d != "" {
		t.Errorf("upper bounds (-want +got):\n%s", d)
	}
}

func TestConstraintsMatchSparse(t *testing.T) {
	s, err := NewSolver(Options{NumDimensions: 2, PolynomialOrder: 5, DerivativeOrder: 2, ContinuityOrder: 3})
	require.NoError(t, err)
	eq, _ := planarBounds()
	seg := []SegmentInequalityBound{{Segment: 1, Derivative: 1, Mapping: []float64{1, -1}, Value: 4}}
	f, err := s.Formulate([]float64{0, 1, 3}, eq, nil, seg)
	require.NoError(t, err)

	dense := mat.NewDense(f.Info.NumConstraints, f.Info.TotalNumParams, nil)
	dl, du := f.Constraints(dense)

	prob, err := f.Problem()
	require.NoError(t, err)
	require.NoError(t, prob.A.Check())
	require.True(t, mat.Equal(dense, prob.A.ToDense()))
	require.Equal(t, dl, prob.L)
	require.Equal(t, du, prob.U)
	require.Equal(t, make([]float64, f.Info.TotalNumParams), prob.Q)
}

func TestCostLayout(t *testing.T) {
	s, err := NewSolver(Options{NumDimensions: 2, PolynomialOrder: 7, DerivativeOrder: 4, ContinuityOrder: 2})
	require.NoError(t, err)
	eq := []NodeEqualityBound{
		{Dimension: 0, Node: 0, Derivative: 0}, {Dimension: 0, Node: 0, Derivative: 1}, {Dimension: 0, Node: 0, Derivative: 2},
		{Dimension: 1, Node: 0, Derivative: 0}, {Dimension: 1, Node: 0, Derivative: 1}, {Dimension: 1, Node: 0, Derivative: 2},
		{Dimension: 0, Node: 1, Derivative: 0}, {Dimension: 1, Node: 1, Derivative: 0},
		{Dimension: 0, Node: 2, Derivative: 0}, {Dimension: 1, Node: 2, Derivative: 0},
	}
	f, err := s.Formulate([]float64{0, 2, 10}, eq, nil, nil)
	require.NoError(t, err)

	n := f.Info.TotalNumParams
	p := mat.NewDense(n, n, nil)
	f.Cost(p)
	require.True(t, mat.Equal(p, p.T()))

	for dim := 0; dim < 2; dim++ {
		for node, dt := range []float64{2, 8} {
			q := poly.QuadraticMatrix(7, 4, dt)
			base := f.Info.ParamIndex(dim, node, 0)
			block := p.Slice(base, base+8, base, base+8)
			require.True(t, mat.EqualApprox(q, block, 1e-12))
		}
		// the last node owns no segment
		base := f.Info.ParamIndex(dim, 2, 0)
		require.Zero(t, mat.Norm(p.Slice(base, base+8, base, base+8), 1))
	}
	// no coupling between dimensions
	require.Zero(t, mat.Norm(p.Slice(0, 24, 24, 48), 1))

	pb := sparse.NewBuilder(n, n)
	f.Cost(pb)
	csc, err := pb.Compress(sparse.DropTolerance)
	require.NoError(t, err)
	require.True(t, mat.Equal(p, csc.ToDense()))
}

func TestUnitSegmentDurations(t *testing.T) {
	require.Equal(t, []float64{2, 8}, durations([]float64{0, 2, 10}, false))
	require.Equal(t, []float64{1, 1}, durations([]float64{0, 2, 10}, true))
}
