// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trajectory formulates piecewise-polynomial trajectories as sparse
// quadratic programs and solves them.
//
// Every node j of every dimension owns a polynomial of order P in Taylor form
//
//	pⱼ(τ) = ∑ₖ cⱼₖ τᵏ/k!   τ ∈ [0, Δtⱼ]
//
// so that cⱼₖ is the k-th derivative at the node. The decision vector stacks
// the coefficients by dimension, node and coefficient (see Info.ParamIndex).
//
// The objective is ∑ ∫ (pⱼ⁽ᴰ⁾)² over every segment and dimension. The
// constraints pin or bound node derivatives, join consecutive polynomials up
// to derivative C and keep linear combinations of the dimensions below a limit
// at evenly spaced points of a segment.
//
// A Solver validates the input, assembles the problem through a Formulation
// and hands it to a qp.Solver backend. Backend failures such as infeasibility
// are reported through Solution.Status, not as errors.
package trajectory
