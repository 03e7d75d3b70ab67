// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"math"
)

// NNLS (Non-Negative Least-Squares) solves 𝚖𝚒𝚗‖ 𝐀𝐱 - 𝐛 ‖₂ subject to 𝐱 ≥ 0 with an active-set method.
//   - 𝐀 is m × n column-major matrix
//   - 𝐱 ∈ ℝⁿ
//   - 𝐛 ∈ ℝᵐ
//
// Indices are split into the zero set ℤ (𝐱ⱼ held at 0) and the passive set ℙ (𝐱ⱼ > 0).
// Each outer step moves the index with the largest dual 𝐰ⱼ = [𝐀ᵀ(𝐛 - 𝐀𝐱)]ⱼ from ℤ to ℙ,
// then solves the unconstrained least-squares sub-problem on the columns in ℙ with a
// Householder QR that is updated in place. When the sub-problem solution 𝐳 has a
// non-positive component the iterate is moved along 𝐱 + 𝛂(𝐳 - 𝐱) to the first
// boundary and the blocking index returns to ℤ (Givens rotations restore the
// triangular factor).
//
// The loop stops when every 𝐰ⱼ ≤ 0 for j ∈ ℤ, which are the Kuhn-Tucker conditions
// of the problem, or when all m rows have been triangularized.
//
// On return 𝐚 and 𝐛 hold 𝐐𝐀 and 𝐐𝐛, 𝐱 holds the primal solution and 𝐰 the dual vector.
//
// Lawson & Hanson, 'Solving least squares problems', Chapter 23, Algorithm 23.10.
func NNLS(
	m, n int,
	// m × n matrix 𝐀 (leading dimension mda), overwritten by 𝐐𝐀.
	a []float64, mda int,
	// m-vector 𝐛, overwritten by 𝐐𝐛.
	b []float64,
	// n-vector solution 𝐱.
	x []float64,
	// n-vector dual 𝐰.
	w []float64,
	// working space
	z []float64, index []int,
	// maximum number of iterations (3n when not positive)
	maxIter int) (float64, Mode) {

	const factor = 0.01

	if m <= 0 || n <= 0 || mda < m ||
		len(a) < mda*n || len(b) < m || len(x) < n || len(w) < n || len(z) < m || len(index) < n {
		return math.NaN(), BadArgument
	}
	if maxIter <= 0 {
		maxIter = 3 * n
	}

	// index[:np] is the passive set ℙ and index[np:] the zero set ℤ
	index = index[:n]
	for i := range index {
		index[i] = i
	}
	dzero(x[:n])
	np, iter := 0, 0

	done := func() (float64, Mode) {
		var rnorm float64
		if np < m {
			rnorm = dnrm2(m-np, b[np:], 1) // ‖ 𝐐ᵀ𝐛₂ ‖₂
		} else {
			dzero(w[:n])
		}
		if iter > maxIter {
			return rnorm, NNLSExceedMaxIter
		}
		return rnorm, HasSolution
	}

	for np < n && np < m {
		// 𝐰 = 𝐀ᵀ(𝐛 - 𝐀𝐱) on ℤ
		for _, j := range index[np:] {
			w[j] = ddot(m-np, a[np+mda*j:], 1, b[np:], 1)
		}

		// move t = 𝚊𝚛𝚐𝚖𝚊𝚡 { 𝐰ⱼ > 0 : j ∈ ℤ } into ℙ, skipping columns nearly dependent on ℙ
		for {
			t, wmax := -1, zero
			for i, j := range index[np:] {
				if w[j] > wmax {
					t, wmax = np+i, w[j]
				}
			}
			if t < 0 {
				return done()
			}

			j := index[t]
			aj := a[mda*j : mda*j+m : mda*j+m]
			pivot := aj[np]
			up := h1(np, np+1, m, aj, 1)
			w[j] = zero

			if math.Abs(aj[np])*factor >= dnrm2(np, aj, 1)*eps {
				copy(z[:m], b[:m])
				h2(np, np+1, m, aj, 1, up, z, 1, 1, 1)
				if z[np]/aj[np] > zero {
					copy(b[:m], z[:m])
					index[t], index[np] = index[np], j
					np++
					for _, k := range index[np:] {
						h2(np-1, np, m, aj, 1, up, a[k*mda:], 1, mda, 1)
					}
					if np < m {
						dzero(aj[np:m])
					}
					break
				}
			}
			aj[np] = pivot
		}

		// drop indices from ℙ until the sub-problem solution is positive
		for {
			// 𝐳 = 𝐑⁻¹𝐐𝐛 on ℙ
			for ip, prev := np-1, -1; ip >= 0; ip-- {
				if prev >= 0 {
					daxpy(ip+1, -z[ip+1], a[prev*mda:], 1, z, 1)
				}
				prev = index[ip]
				z[ip] /= a[ip+prev*mda]
			}

			if iter++; iter > maxIter {
				return done()
			}

			// 𝛂 = 𝚖𝚒𝚗 { 𝐱ⱼ/(𝐱ⱼ-𝐳ⱼ) : 𝐳ⱼ ≤ 0, j ∈ ℙ }
			alpha, q := two, -1
			for ip, l := range index[:np] {
				if z[ip] <= zero {
					if t := -x[l] / (z[ip] - x[l]); alpha > t {
						alpha, q = t, ip
					}
				}
			}
			if q < 0 {
				for ip, l := range index[:np] {
					x[l] = z[ip]
				}
				break
			}

			for ip, l := range index[:np] {
				x[l] += alpha * (z[ip] - x[l])
			}

			// return index[q] to ℤ and restore 𝐑 with Givens rotations
			i := index[q]
			x[i] = zero
			for j := q + 1; j < np; j++ {
				ii := index[j]
				index[j-1] = ii
				cj := a[ii*mda:]
				var c, s float64
				c, s, cj[j-1] = g1(cj[j-1], cj[j])
				cj[j] = zero
				for l := 0; l < n; l++ {
					if l != ii {
						cl := a[l*mda:]
						cl[j-1], cl[j] = g2(c, s, cl[j-1], cl[j])
					}
				}
				b[j-1], b[j] = g2(c, s, b[j-1], b[j])
			}
			np--
			index[np] = i
			copy(z[:m], b[:m])
		}
	}
	return done()
}
