// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"math"
)

// h1 builds the Householder reflection 𝐐 = 𝐈 + b⁻¹𝐮𝐮ᵀ (b = s·𝐮ₚ) that zeroes the
// entries l ··· m-1 of the vector v (stride ive) against its pivot entry p.
//
// On return v[p] holds s = ∓‖v‖ and the other entries hold 𝐮, except 𝐮ₚ which is
// returned. Nothing is done when p < 0, p ≥ l or l ≥ m, or when v is zero.
//
// Lawson & Hanson, 'Solving least squares problems', Chapter 10.
func h1(p, l, m int, v []float64, ive int) (up float64) {
	if p < 0 || p >= l || l >= m {
		return
	}

	ip := p * ive
	scale := math.Abs(v[ip])
	for i := l; i < m; i++ {
		scale = math.Max(scale, math.Abs(v[i*ive]))
	}
	if scale <= 0 {
		return
	}

	inv := 1 / scale
	sum := (v[ip] * inv) * (v[ip] * inv)
	for i := l; i < m; i++ {
		r := v[i*ive] * inv
		sum += r * r
	}

	s := scale * math.Sqrt(sum)
	if v[ip] > 0 {
		s = -s
	}
	up = v[ip] - s
	v[ip] = s
	return
}

// h2 applies the reflection built by h1 from u (stride iue) to ncv vectors
// stored in c. Element i of vector j lives at c[j·icv + i·ice].
func h2(p, l, m int, u []float64, iue int, up float64, c []float64, ice, icv, ncv int) {
	if p < 0 || p >= l || l >= m || ncv <= 0 {
		return
	}

	b := u[p*iue] * up
	if b >= 0 {
		return // identity
	}
	b = 1 / b

	for j := 0; j < ncv; j++ {
		base := j * icv
		ip := base + p*ice
		sm := c[ip] * up
		for i := l; i < m; i++ {
			sm += c[base+i*ice] * u[i*iue]
		}
		if sm == 0 {
			continue
		}
		sm *= b
		c[ip] += sm * up
		for i := l; i < m; i++ {
			c[base+i*ice] += sm * u[i*iue]
		}
	}
}

// g1 returns the Givens rotation that maps (a, b) to (sig, 0)
//
//	⎡ c s⎤⎡a⎤ = ⎡sig⎤   sig = (a² + b²)¹ᐟ²
//	⎣-s c⎦⎣b⎦   ⎣ 0 ⎦
//
// computed without overflow.
func g1(a, b float64) (c, s, sig float64) {
	xa, xb := math.Abs(a), math.Abs(b)
	switch {
	case xa > xb:
		r := b / a
		y := math.Sqrt(1 + r*r)
		c = math.Copysign(1/y, a)
		s = c * r
		sig = xa * y
	case xb > 0:
		r := a / b
		y := math.Sqrt(1 + r*r)
		s = math.Copysign(1/y, b)
		c = s * r
		sig = xb * y
	default:
		s = 1
	}
	return
}

// g2 applies the rotation (c, s) to (x, y).
func g2(c, s float64, x, y float64) (xr, yr float64) {
	return c*x + s*y, -s*x + c*y
}
