// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"math"
)

// LDP (Least Distance Programming) solves 𝚖𝚒𝚗‖ 𝐱 ‖₂ subject to 𝐆𝐱 ≥ 𝐡 for an m × n
// matrix 𝐆 of any rank.
//
// The dual is the NNLS problem 𝚖𝚒𝚗‖ 𝐀𝐮 - 𝐛 ‖₂, 𝐮 ≥ 0 with
//
//	𝐀 = [𝐆 : 𝐡]ᵀ   (n+1) × m
//	𝐛 = [0 ··· 0 : 1]ᵀ
//
// Its residual 𝐫 = 𝐀𝐮 - 𝐛 satisfies ‖ 𝐫 ‖₂² = -𝐫ₙ₊₁ = 1 - 𝐡ᵀ𝐮. The constraints are
// incompatible when the residual vanishes, otherwise
//
//	𝐱 = 𝐆ᵀ𝐮 / (1 - 𝐡ᵀ𝐮)   and   𝛌 = 𝐮 / (1 - 𝐡ᵀ𝐮)
//
// where 𝛌 ≥ 0 are the multipliers of 𝐆𝐱 ≥ 𝐡, returned in w[:m].
//
// Lawson & Hanson, 'Solving least squares problems', Chapter 23, Algorithm 23.27.
func LDP(
	m, n int,
	// m × n matrix 𝐆 with leading dimension mdg
	g []float64, mdg int,
	// m-vector 𝐡
	h []float64,
	// n-vector solution 𝐱
	x []float64,
	// dim(w): (n+1)×(m+2) + 2×m
	w []float64,
	// dim(jw): m
	jw []int,
	maxIter int,
) (xnorm float64, mode Mode) {

	if n <= 0 {
		return math.NaN(), BadArgument
	}
	if m <= 0 {
		return 0, OK
	}
	if m > mdg || mdg*n > len(g) || m > len(h) || n > len(x) || (n+1)*(m+2)+2*m > len(w) || m > len(jw) {
		panic("lsq: LDP slice shorter than its dimension")
	}

	// w = [ 𝐀 ((n+1)×m) | 𝐛 (n+1) | 𝐳 (n+1) | 𝐮 (m) | dual (m) ]
	k := n + 1
	a, rest := w[:m*k], w[m*k:]
	b, rest := rest[:k], rest[k:]
	z, rest := rest[:k], rest[k:]
	u, rest := rest[:m], rest[m:]
	dual := rest[:m]

	for j := 0; j < m; j++ {
		col := a[j*k : (j+1)*k]
		dcopy(n, g[j:], mdg, col, 1)
		col[n] = h[j]
	}
	dzero(b[:n])
	b[n] = one

	rnorm, mode := NNLS(k, m, a, k, b, u, dual, z, jw, maxIter)
	if mode != HasSolution {
		return math.NaN(), mode
	}
	if rnorm <= zero {
		return math.NaN(), ConsIncompatible
	}
	fac := one - ddot(m, h, 1, u, 1)
	if math.IsNaN(fac) || fac < eps {
		return math.NaN(), ConsIncompatible
	}

	for j := 0; j < n; j++ {
		x[j] = ddot(m, g[mdg*j:], 1, u, 1) / fac
	}
	for j := 0; j < m; j++ {
		w[j] = u[j] / fac
	}
	return dnrm2(n, x, 1), HasSolution
}
