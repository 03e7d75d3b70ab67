// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LSEI (Least-Squares with linear Equality & Inequality) solves 𝚖𝚒𝚗‖ 𝐄𝐱 - 𝐟 ‖₂ subject to 𝐂𝐱 = 𝐝 and 𝐆𝐱 ≥ 𝐡
// for an me × n matrix 𝐄, an mc × n matrix 𝐂 of full row rank (mc ≤ n) and an mg × n matrix 𝐆.
//
// Householder reflections 𝐊 applied from the right make 𝐂𝐊 lower triangular:
//
//	⎡ 𝐂 ⎤      ⎡ 𝐂߬₁   ೦  ⎤ ]╴mc       𝐱 = 𝐊⎡ 𝐲₁ ⎤ ]╴ mc
//	⎥ 𝐄 ⎥ 𝐊 =  ⎥ 𝐄߬₁   𝐄߬₂ ⎥ ]╴me            ⎣ 𝐲₂ ⎦ ]╴ n-mc
//	⎣ 𝐆 ⎦      ⎣ 𝐆߬₁   𝐆߬₂ ⎦ ]╴mg
//
// 𝐲₁ solves the triangular system 𝐂߬₁𝐲₁ = 𝐝 and 𝐲₂ solves the reduced problem
// 𝚖𝚒𝚗‖ 𝐄߬₂𝐲₂ - (𝐟 - 𝐄߬₁𝐲₁) ‖₂ subject to 𝐆߬₂𝐲₂ ≥ 𝐡 - 𝐆߬₁𝐲₁, by LSI when mg > 0 and by a
// QR least-squares solve otherwise.
//
// On success w[:mc] holds the equality multipliers 𝛍 = (𝐂ᵀ)⁻¹[𝐄ᵀ(𝐄𝐱 - 𝐟) - 𝐆ᵀ𝛌] and
// w[mc:mc+mg] the inequality multipliers 𝛌 ≥ 0.
//
// Lawson & Hanson, 'Solving least squares problems', Chapter 20 (Algorithm 20.24) and Chapter 23.
func LSEI(
	// dim(c) :   formal (lc,n),    actual (mc,n)
	// dim(d) :   formal (lc  ),    actual (mc  )
	c []float64, d []float64,
	// dim(e) :   formal (le,n),    actual (me,n)
	// dim(f) :   formal (le  ),    actual (me  )
	e []float64, f []float64,
	// dim(g) :   formal (lg,n),    actual (mg,n)
	// dim(h) :   formal (lg  ),    actual (mg  )
	g []float64, h []float64,
	lc, mc, le, me, lg, mg, n int,
	// dim(x) :   formal (n   ),    actual (n   )
	x []float64,
	// dim(w) :   2×mc+me+(me+mg)×(n-mc)
	//             + (n-mc+1)×(mg+2)+2×mg  for LSI
	w []float64,
	// dim(jw):   mg
	jw []int,
	maxIterLs int,
) (norm float64, mode Mode) {

	if n < 1 || mc < 0 || mc > n || me < 0 || mg < 0 {
		return math.NaN(), BadArgument
	}
	if n > len(x) || mc > len(c) || mc > len(d) || me > len(e) || me > len(f) || mg > len(g) || mg > len(h) {
		panic("lsq: LSEI slice shorter than its dimension")
	}

	l := n - mc

	// w = [ 𝛍 (mc) | LSI space | 𝐊 pivots (mc) | 𝐄߬₂ (me×l) | 𝐟 - 𝐄߬₁𝐲₁ (me) | 𝐆߬₂ (mg×l) ]
	ws := w[mc : mc+(l+1)*(mg+2)+2*mg]
	rest := w[mc+len(ws):]
	wp, rest := rest[:mc], rest[mc:]
	we, rest := rest[:me*l], rest[me*l:]
	wf, rest := rest[:me], rest[me:]
	wg := rest[:mg*l]

	// 𝐂𝐊 = [𝐂߬₁ ೦], 𝐄𝐊 = [𝐄߬₁ 𝐄߬₂], 𝐆𝐊 = [𝐆߬₁ 𝐆߬₂]
	for i := 0; i < mc; i++ {
		j := min(i+1, lc-1)
		wp[i] = h1(i, i+1, n, c[i:], lc)
		h2(i, i+1, n, c[i:], lc, wp[i], c[j:], lc, 1, mc-i-1)
		h2(i, i+1, n, c[i:], lc, wp[i], e, le, 1, me)
		h2(i, i+1, n, c[i:], lc, wp[i], g, lg, 1, mg)
	}

	// forward substitution 𝐂߬₁𝐲₁ = 𝐝
	for i := 0; i < mc; i++ {
		diag := c[i+lc*i]
		if math.Abs(diag) < eps {
			return math.NaN(), LSEISingularC
		}
		x[i] = (d[i] - ddot(i, c[i:], lc, x, 1)) / diag
	}

	// inequality multipliers stay zero without inequality rows
	dzero(ws[:mg])

	if l > 0 {
		for i := 0; i < me; i++ {
			wf[i] = f[i] - ddot(mc, e[i:], le, x, 1)
			dcopy(l, e[i+le*mc:], le, we[i:], me)
		}
		for i := 0; i < mg; i++ {
			dcopy(l, g[i+lg*mc:], lg, wg[i:], mg)
			h[i] -= ddot(mc, g[i:], lg, x, 1)
		}

		if mg > 0 {
			norm, mode = LSI(we, wf, wg, h, me, me, mg, mg, l, x[mc:n], ws, jw, maxIterLs)
			if mc == 0 {
				// ws aliases w, the multipliers are already in place
				return
			}
			if mode != HasSolution {
				return math.NaN(), mode
			}
			t := dnrm2(mc, x, 1)
			norm = math.Hypot(norm, t)
		} else {
			var full bool
			if norm, full = leastSquares(we, wf, me, l, x[mc:n]); !full {
				return norm, LSESingularE
			}
		}
	}

	// 𝐟 ← 𝐄𝐱 - 𝐟 and 𝐝 ← 𝐄ᵀ(𝐄𝐱 - 𝐟) - 𝐆ᵀ𝛌 in the rotated basis
	for i := 0; i < me; i++ {
		f[i] = ddot(n, e[i:], le, x, 1) - f[i]
	}
	for i := 0; i < mc; i++ {
		d[i] = ddot(me, e[i*le:], 1, f, 1) - ddot(mg, g[i*lg:], 1, ws[:mg], 1)
	}

	// 𝐱 = 𝐊[𝐲₁ 𝐲₂]
	for i := mc - 1; i >= 0; i-- {
		h2(i, i+1, n, c[i:], lc, wp[i], x, 1, 1, 1)
	}

	// back substitution 𝐂߬₁ᵀ𝛍 = 𝐝
	for i := mc - 1; i >= 0; i-- {
		j := min(i+1, lc-1)
		w[i] = (d[i] - ddot(mc-i-1, c[j+lc*i:], 1, w[j:], 1)) / c[i+lc*i]
	}
	return norm, HasSolution
}

// LSI (Least-Squares with linear Inequality) solves 𝚖𝚒𝚗‖ 𝐄𝐱 - 𝐟 ‖₂ subject to 𝐆𝐱 ≥ 𝐡
// for an me × n matrix 𝐄 of full column rank and an mg × n matrix 𝐆.
//
// A QR factorization 𝐐𝐄 = [𝐑 ; ೦] splits 𝐐𝐟 into 𝐟߫₁ (n) and 𝐟߫₂ (me-n). With 𝐳 = 𝐑𝐱 - 𝐟߫₁
// the problem reduces to the LDP 𝚖𝚒𝚗‖ 𝐳 ‖₂ subject to 𝐆𝐑⁻¹𝐳 ≥ 𝐡 - 𝐆𝐑⁻¹𝐟߫₁, and the
// residual norm is (‖ 𝐳 ‖₂² + ‖ 𝐟߫₂ ‖₂²)¹ᐟ².
//
// Lawson & Hanson, 'Solving least squares problems', Chapter 23, Section 5.
func LSI(
	// dim(e) :   formal (le,n),    actual (me,n)
	// dim(f) :   formal (le  ),    actual (me  )
	e []float64, f []float64,
	// dim(g) :   formal (lg,n),    actual (mg,n)
	// dim(h) :   formal (lg  ),    actual (mg  )
	g []float64, h []float64,
	le, me, lg, mg, n int,
	// dim(x) :   n
	x []float64,
	// dim(w) :   (n+1)×(mg+2) + 2×mg
	w []float64,
	//  dim(jw):  lg
	jw []int,
	maxIterLs int) (xnorm float64, mode Mode) {

	if n < 1 {
		return 0, BadArgument
	}

	// 𝐐𝐄 = 𝐑, 𝐐𝐟 = [ 𝐟߫₁ : 𝐟߫₂ ]
	for i := 0; i < n; i++ {
		j := min(i+1, n-1)
		t := h1(i, i+1, me, e[i*le:], 1)
		h2(i, i+1, me, e[i*le:], 1, t, e[j*le:], 1, le, n-i-1)
		h2(i, i+1, me, e[i*le:], 1, t, f, 1, 1, 1)
	}

	// 𝐆 ← 𝐆𝐑⁻¹, 𝐡 ← 𝐡 - 𝐆𝐑⁻¹𝐟߫₁
	for i := 0; i < mg; i++ {
		for j := 0; j < n; j++ {
			diag := e[j+le*j]
			if math.Abs(diag) < eps || math.IsNaN(diag) {
				return math.NaN(), LSISingularE // 𝚛𝚊𝚗𝚔(𝐄) < n
			}
			g[i+lg*j] = (g[i+lg*j] - ddot(j, g[i:], lg, e[j*le:], 1)) / diag
		}
		h[i] -= ddot(n, g[i:], lg, f, 1)
	}

	if xnorm, mode = LDP(mg, n, g, lg, h, x, w, jw, maxIterLs); mode == HasSolution {
		daxpy(n, one, f, 1, x, 1) // 𝐳 + 𝐟߫₁
		for i := n - 1; i >= 0; i-- {
			j := min(i+1, n-1)
			x[i] = (x[i] - ddot(n-i-1, e[i+le*j:], le, x[j:], 1)) / e[i+le*i]
		}
		j := min(n, me-1)
		t := dnrm2(me-n, f[j:], 1) // ‖ 𝐟߫₂ ‖₂
		xnorm = math.Hypot(xnorm, t)
	}
	return
}

// leastSquares solves 𝚖𝚒𝚗‖ 𝐀𝐲 - 𝐛 ‖₂ for the m × n column-major 𝐀 (m ≥ n) by QR and
// returns the residual norm. It reports false when 𝐀 is singular to working precision.
func leastSquares(a, b []float64, m, n int, y []float64) (float64, bool) {
	if m < n {
		return math.NaN(), false
	}
	am := mat.NewDense(m, n, nil)
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			am.Set(i, j, a[i+m*j])
		}
	}
	bv := mat.NewVecDense(m, append([]float64(nil), b[:m]...))

	var sol mat.VecDense
	if err := sol.SolveVec(am, bv); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return math.NaN(), false
		}
	}
	for i := 0; i < n; i++ {
		y[i] = sol.AtVec(i)
	}

	var r mat.VecDense
	r.MulVec(am, &sol)
	r.SubVec(&r, bv)
	return mat.Norm(&r, 2), true
}
