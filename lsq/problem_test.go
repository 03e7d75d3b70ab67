// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProblemSolve(t *testing.T) {
	p := &Problem{
		N: 3,
		C: []float64{
			-1, 2,
			0, 1,
			0, -1,
		},
		D: []float64{-3, 2},
		E: []float64{
			3, 1, 2, 0,
			2, 0, 0, 1,
			1, 0, 2, 0,
		},
		F: []float64{2, 1, 8, 3},
		G: []float64{0, 1, 0},
		H: []float64{3},
	}
	c := append([]float64(nil), p.C...)

	res, err := p.Solve()
	require.NoError(t, err)
	require.Equal(t, HasSolution, res.Mode)
	require.InDeltaSlice(t, []float64{3, 3, 7}, res.X, 1e-8)
	require.InDeltaSlice(t, []float64{-174, -44, 84}, res.Multipliers, 1e-8)
	require.Equal(t, c, p.C, "input must not be modified")

	// solving twice gives the same answer
	again, err := p.Solve()
	require.NoError(t, err)
	require.InDeltaSlice(t, res.X, again.X, 1e-12)
}

func TestProblemIncompatible(t *testing.T) {
	// x ≥ 1 and -x ≥ 0 cannot both hold
	p := &Problem{
		N: 1,
		E: []float64{1},
		F: []float64{0},
		G: []float64{1, -1},
		H: []float64{1, 0},
	}
	res, err := p.Solve()
	require.NoError(t, err)
	require.Equal(t, ConsIncompatible, res.Mode)
	require.False(t, res.Mode.Success())
	require.Nil(t, res.Multipliers)
}

func TestProblemCheck(t *testing.T) {
	for name, p := range map[string]*Problem{
		"no variables":  {N: 0},
		"too many rows": {N: 1, C: []float64{1, 1}, D: []float64{0, 0}},
		"bad C":         {N: 2, C: []float64{1}, D: []float64{0}},
		"bad E":         {N: 2, E: []float64{1, 2, 3}, F: []float64{0}},
		"bad G":         {N: 2, G: []float64{1}, H: []float64{0}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Solve()
			require.Error(t, err)
		})
	}
}

func TestProblemUnconstrained(t *testing.T) {
	p := &Problem{
		N: 2,
		E: []float64{
			1, 0, 1,
			0, 1, 1,
		},
		F: []float64{1, 2, 4},
	}
	res, err := p.Solve()
	require.NoError(t, err)
	require.Equal(t, HasSolution, res.Mode)
	require.InDeltaSlice(t, []float64{4.0 / 3, 7.0 / 3}, res.X, 1e-12)
	require.InDelta(t, math.Sqrt(3)/3, res.Norm, 1e-12)
	require.Empty(t, res.Multipliers)

	singular := &Problem{N: 2, E: []float64{1, 0, 0, 0}, F: []float64{1, 1}}
	res, err = singular.Solve()
	require.NoError(t, err)
	require.Equal(t, LSESingularE, res.Mode)
	require.Equal(t, "matrix E singular in LSE", res.Mode.String())
}
