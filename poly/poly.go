// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package poly provides the basis algebra of Taylor-form polynomial segments.
//
// A segment of order P is parameterized by its derivatives at the segment start:
//
//	p(t) = ∑ cₖ tᵏ / k!   (k = 0 ··· P)
//
// so that the derivative of order d evaluated at local time t is the dot product of
// the coefficients with CoefficientVector(P, d, t), and the integral of its square
// over [0, Δt] is the quadratic form of QuadraticMatrix(P, d, Δt).
package poly

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MaxOrder is the largest polynomial order whose factorials are tabulated.
const MaxOrder = 12

var factorial = [MaxOrder + 1]float64{
	1, 1, 2, 6, 24, 120, 720, 5040, 40320, 362880, 3628800, 39916800, 479001600,
}

// Factorial returns k! for 0 ≤ k ≤ MaxOrder and panics otherwise.
func Factorial(k int) float64 {
	if k < 0 || k > MaxOrder {
		panic(fmt.Sprintf("poly: factorial of %d out of range [0,%d]", k, MaxOrder))
	}
	return factorial[k]
}

func checkOrder(order, derivative int) {
	if order < 0 || order > MaxOrder {
		panic(fmt.Sprintf("poly: order %d out of range [0,%d]", order, MaxOrder))
	}
	if derivative < 0 {
		panic(fmt.Sprintf("poly: negative derivative %d", derivative))
	}
}

// CoefficientVector returns the (order+1)-vector 𝐯 with 𝐯[k+d] = Δtᵏ/k! for k = 0 ··· order-d
// and zero elsewhere. A derivative above order gives the zero vector.
func CoefficientVector(order, derivative int, dt float64) []float64 {
	checkOrder(order, derivative)
	v := make([]float64, order+1)
	pow := 1.0
	for k := 0; k+derivative <= order; k++ {
		v[k+derivative] = pow / factorial[k]
		pow *= dt
	}
	return v
}

// QuadraticMatrix returns the (order+1)×(order+1) matrix 𝐐 with
//
//	𝐐[i+d, j+d] = Δtⁱ⁺ʲ⁺¹ / (i! j! (i+j+1))   (i, j = 0 ··· order-d)
//
// so that 𝐜ᵀ𝐐𝐜 = ∫₀^Δt (p⁽ᵈ⁾(t))² dt.
func QuadraticMatrix(order, derivative int, dt float64) *mat.SymDense {
	checkOrder(order, derivative)
	n := order + 1
	q := mat.NewSymDense(n, nil)
	for i := 0; i+derivative <= order; i++ {
		for j := i; j+derivative <= order; j++ {
			e := i + j + 1
			q.SetSym(i+derivative, j+derivative, math.Pow(dt, float64(e))/(factorial[i]*factorial[j]*float64(e)))
		}
	}
	return q
}

// Evaluate returns p⁽ᵈ⁾(Δt) for the Taylor-form coefficients.
func Evaluate(coeffs []float64, derivative int, dt float64) float64 {
	v := CoefficientVector(len(coeffs)-1, derivative, dt)
	return floats.Dot(v, coeffs)
}
