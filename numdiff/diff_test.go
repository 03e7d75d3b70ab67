// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Errorf("unexpected result (-want +got):\n%s", d)
	}
}

func rel(tol float64) cmp.Option { return cmpopts.EquateApprox(tol, 0) }

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py (TestAdjustSchemeToBounds)
func TestAdjustToBounds(t *testing.T) {
	dummy := func(x []float64) float64 { return 0 }

	t.Run("no bounds", func(t *testing.T) {
		x0 := []float64{0, 0, 0}
		h0 := []float64{0.01, 0.01, 0.01}

		s := Spec{N: 3, Func: dummy, Method: Forward}
		require.NoError(t, s.Check(x0, make([]float64, 3)))
		copy(s.absStep, h0)
		s.adjustToBounds(x0, false)
		require.Equal(t, h0, s.absStep)
		require.Empty(t, s.oneSide)

		s.Method = Central
		require.NoError(t, s.Check(x0, make([]float64, 3)))
		copy(s.absStep, h0)
		s.adjustToBounds(x0, false)
		require.Equal(t, h0, s.absStep)
		require.Equal(t, []bool{false, false, false}, s.oneSide)
	})

	t.Run("with bounds", func(t *testing.T) {
		x0 := []float64{0, 0.85, -0.85}
		h0 := []float64{0.1, 0.1, -0.1}
		bounds := []Bound{{-1, 1}, {-1, 1}, {-1, 1}}

		s := Spec{N: 3, Func: dummy, Method: Forward, Bounds: bounds}
		require.NoError(t, s.Check(x0, make([]float64, 3)))
		copy(s.absStep, h0)
		s.adjustToBounds(x0, true)
		require.Equal(t, h0, s.absStep)

		s.Method = Central
		require.NoError(t, s.Check(x0, make([]float64, 3)))
		copy(s.absStep, h0)
		s.adjustToBounds(x0, true)
		require.Equal(t, []float64{0.1, 0.1, 0.1}, s.absStep)
		require.Equal(t, []bool{false, false, false}, s.oneSide)
	})

	t.Run("tight bounds", func(t *testing.T) {
		x0 := []float64{0.0, 0.03}
		h0 := []float64{-0.1, -0.1}
		bounds := []Bound{{-0.03, 0.05}, {-0.03, 0.05}}

		s := Spec{N: 2, Func: dummy, Method: Forward, Bounds: bounds}
		require.NoError(t, s.Check(x0, make([]float64, 2)))
		copy(s.absStep, h0)
		s.adjustToBounds(x0, true)
		diff(t, []float64{0.05, -0.06}, s.absStep, rel(1e-12))

		s.Method = Central
		require.NoError(t, s.Check(x0, make([]float64, 2)))
		copy(s.absStep, h0)
		s.adjustToBounds(x0, true)
		diff(t, []float64{0.03, -0.03}, s.absStep, rel(1e-12))
		require.Equal(t, []bool{false, true}, s.oneSide)
	})
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py (test_absolute_step_sign)
func TestAbsoluteStep(t *testing.T) {
	x0 := []float64{1e-5, 0, 1, 1e5}
	neg := []float64{-1e-5, 0, -1, -1e5}
	dummy := func(x []float64) float64 { return 0 }

	for method, eps := range map[Method]float64{Forward: sqrtEps, Central: cubeEps} {
		s := Spec{N: 4, Func: dummy, Method: method}
		require.NoError(t, s.Check(x0, make([]float64, 4)))

		s.absoluteStep(x0)
		diff(t, []float64{eps, eps, eps, eps * 1e5}, s.absStep, rel(1e-12))

		s.absoluteStep(neg)
		diff(t, []float64{-eps, eps, -eps, -eps * 1e5}, s.absStep, rel(1e-12))
	}

	for _, step := range []float64{0.1, 1, 10, 100} {
		s := Spec{N: 4, Func: dummy, Method: Forward, RelStep: step}
		require.NoError(t, s.Check(x0, make([]float64, 4)))

		s.absoluteStep(x0)
		diff(t, []float64{step * x0[0], sqrtEps, step * x0[2], step * x0[3]}, s.absStep, rel(1e-12))

		s.absoluteStep(neg)
		diff(t, []float64{-step * x0[0], sqrtEps, -step * x0[2], -step * x0[3]}, s.absStep, rel(1e-12))
	}
}

func TestAbsoluteStepSign(t *testing.T) {
	f := func(x []float64) float64 { return -math.Abs(x[0]+1) + math.Abs(x[1]+1) }
	x0 := []float64{-1, -1}
	inf := math.Inf(1)

	for _, tc := range []struct {
		name   string
		step   float64
		bounds []Bound
		want   []float64
	}{
		{"positive", 1e-8, nil, []float64{-1, 1}},
		{"negative", -1e-8, nil, []float64{1, -1}},
		{"upper bound flips", 1e-8, []Bound{{-inf, -1}, {-inf, -1}}, []float64{1, -1}},
		{"lower bound flips", -1e-8, []Bound{{-1, inf}, {-1, inf}}, []float64{-1, 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			grad := make([]float64, 2)
			s := Spec{N: 2, Func: f, Method: Forward, AbsStep: tc.step, Bounds: tc.bounds}
			require.NoError(t, s.Grad(x0, grad))
			diff(t, tc.want, grad, rel(1e-7))
		})
	}
}

func TestScalar(t *testing.T) {
	x0 := []float64{1.0}
	f := func(x []float64) float64 { return math.Sinh(x[0]) }
	want := []float64{math.Cosh(x0[0])}

	for method, tol := range map[Method]float64{Forward: 1e-6, Central: 1e-9} {
		grad := make([]float64, 1)
		s := Spec{N: 1, Func: f, Method: method}
		require.NoError(t, s.Grad(x0, grad))
		diff(t, want, grad, rel(tol))
	}
}

func TestVector(t *testing.T) {
	x0 := []float64{100.0, -0.5}
	f := func(x []float64) float64 { return math.Sin(x[0]*x[1]) * math.Log(x[0]) }
	want := []float64{
		x0[1]*math.Cos(x0[0]*x0[1])*math.Log(x0[0]) + math.Sin(x0[0]*x0[1])/x0[0],
		x0[0] * math.Cos(x0[0]*x0[1]) * math.Log(x0[0]),
	}

	for method, tol := range map[Method]float64{Forward: 1e-6, Central: 1e-7} {
		grad := make([]float64, 2)
		s := Spec{N: 2, Func: f, Method: method}
		require.NoError(t, s.Grad(x0, grad))
		diff(t, want, grad, rel(tol))
	}
}

func TestStaysInsideBounds(t *testing.T) {
	// the square root is undefined below zero
	f := func(x []float64) float64 {
		if x[0] < 0 || x[1] < 0 {
			return math.NaN()
		}
		return math.Sqrt(x[0]) + x[1]*x[1]
	}
	x0 := []float64{1e-3, 0}
	bounds := []Bound{{0, math.Inf(1)}, {0, 1}}
	want := []float64{0.5 / math.Sqrt(x0[0]), 0}

	for _, method := range []Method{Forward, Central} {
		grad := make([]float64, 2)
		s := Spec{N: 2, Func: f, Method: method, Bounds: bounds}
		require.NoError(t, s.Grad(x0, grad))
		for _, g := range grad {
			require.False(t, math.IsNaN(g))
		}
		require.InEpsilon(t, want[0], grad[0], 1e-3)
		require.InDelta(t, want[1], grad[1], 1e-6)
	}
}

func TestConcurrent(t *testing.T) {
	var calls atomic.Int64
	f := func(x []float64) float64 {
		calls.Add(1)
		var s float64
		for i, v := range x {
			s += float64(i+1) * v * v
		}
		return s
	}
	x0 := []float64{1, -2, 0.5, 3, -1}
	want := []float64{2, -8, 3, 24, -10}

	for _, method := range []Method{Forward, Central} {
		seq := make([]float64, len(x0))
		par := make([]float64, len(x0))

		calls.Store(0)
		s := Spec{N: len(x0), Func: f, Method: method}
		require.NoError(t, s.Grad(x0, seq))
		evals := calls.Load()
		require.Equal(t, int64(len(x0)*(int(method)+1)+1), evals)

		calls.Store(0)
		s = Spec{N: len(x0), Func: f, Method: method, Concurrency: 3}
		require.NoError(t, s.Grad(x0, par))
		require.Equal(t, evals, calls.Load())

		require.Equal(t, seq, par)
		diff(t, want, par, rel(1e-5))
	}
	require.Equal(t, []float64{1, -2, 0.5, 3, -1}, x0)
}

func TestCheck(t *testing.T) {
	f := func(x []float64) float64 { return x[0] }
	for name, tc := range map[string]struct {
		spec Spec
		x0   []float64
		grad []float64
	}{
		"dimension": {Spec{N: 0, Func: f}, nil, nil},
		"method":    {Spec{N: 1, Func: f, Method: 7}, []float64{0}, []float64{0}},
		"function":  {Spec{N: 1}, []float64{0}, []float64{0}},
		"x0":        {Spec{N: 2, Func: f}, []float64{0}, []float64{0, 0}},
		"gradient":  {Spec{N: 1, Func: f}, []float64{0}, nil},
		"bounds":    {Spec{N: 1, Func: f, Bounds: []Bound{{0, 1}, {0, 1}}}, []float64{0}, []float64{0}},
		"range":     {Spec{N: 1, Func: f, Bounds: []Bound{{1, 0}}}, []float64{0.5}, []float64{0}},
		"outside":   {Spec{N: 1, Func: f, Bounds: []Bound{{0, 1}}}, []float64{2}, []float64{0}},
	} {
		t.Run(name, func(t *testing.T) {
			require.Error(t, tc.spec.Grad(tc.x0, tc.grad))
		})
	}
}
