// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timealloc

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// projectSimplex returns the Euclidean projection of y onto
// { x : ∑ xᵢ = total, xᵢ ≥ lo }.
//
// # Reference:
//
//	J. Duchi, S. Shalev-Shwartz, Y. Singer, T. Chandra,
//	'Efficient projections onto the l1-ball for learning in high dimensions', ICML 2008.
func projectSimplex(y []float64, total, lo float64) []float64 {
	n := len(y)
	x := make([]float64, n)
	s := total - float64(n)*lo
	if s <= 0 {
		for i := range x {
			x[i] = lo
		}
		return x
	}

	u := make([]float64, n)
	copy(u, y)
	floats.AddConst(-lo, u)
	sort.Sort(sort.Reverse(sort.Float64Slice(u)))

	var css, theta float64
	for j, v := range u {
		css += v
		if t := (css - s) / float64(j+1); v > t {
			theta = t
		}
	}
	for i, v := range y {
		x[i] = max(v-lo-theta, 0) + lo
	}
	return x
}

// clampBelow returns y with every entry raised to at least lo.
func clampBelow(y []float64, lo float64) []float64 {
	x := make([]float64, len(y))
	for i, v := range y {
		x[i] = max(v, lo)
	}
	return x
}

// projectGradient zeroes the components that would push a duration held at
// its lower bound further down and, when the total is fixed, removes the mean
// of the remaining ones.
func projectGradient(g, dur []float64, lo float64, fixedTotal bool) {
	held := make([]bool, len(g))
	free := 0
	var sum float64
	for i, v := range g {
		if dur[i] <= lo && v > 0 {
			g[i], held[i] = 0, true
			continue
		}
		free++
		sum += v
	}
	if !fixedTotal || free == 0 {
		return
	}
	if free == 1 {
		// a single free duration cannot move with the total fixed
		floats.Scale(0, g)
		return
	}
	mean := sum / float64(free)
	for i := range g {
		if !held[i] {
			g[i] -= mean
		}
	}
}
