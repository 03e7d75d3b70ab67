// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trajectory

import (
	"math"

	"github.com/curioloop/polytraj/poly"
	"github.com/curioloop/polytraj/sparse"
)

// columnScale returns s such that substituting 𝐱 = s ⊙ 𝐲 gives every cost
// block a unit diagonal, so the scaled Hessian no longer depends on the
// segment durations. Coefficients below the derivative order carry no cost
// and follow the same power law Δt^(D-k-½). The last node reuses the
// duration of the last segment.
func (info *Info) columnScale(dt []float64) []float64 {
	s := make([]float64, info.TotalNumParams)
	deriv := info.DerivativeOrder
	for node := 0; node < info.NumNodes; node++ {
		h := dt[min(node, info.NumSegments-1)]
		block := make([]float64, info.NumParamsPerNodePerDim)
		for k := range block {
			if k < deriv {
				block[k] = math.Pow(h, float64(deriv-k)-0.5)
				continue
			}
			i := k - deriv
			block[k] = poly.Factorial(i) * math.Sqrt(float64(2*i+1)) * math.Pow(h, -float64(i)-0.5)
		}
		for dim := 0; dim < info.NumDimensions; dim++ {
			copy(s[info.ParamIndex(dim, node, 0):], block)
		}
	}
	return s
}

// scaledColumns scales every entry of column j by s[j].
type scaledColumns struct {
	dst sparse.Setter
	s   []float64
}

func (c scaledColumns) Set(i, j int, v float64) { c.dst.Set(i, j, v*c.s[j]) }

// scaledSym applies the congruence diag(s)·𝐏·diag(s).
type scaledSym struct {
	dst sparse.Setter
	s   []float64
}

func (c scaledSym) Set(i, j int, v float64) { c.dst.Set(i, j, v*c.s[i]*c.s[j]) }
