// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trajectory

import (
	"github.com/curioloop/polytraj/poly"
	"github.com/curioloop/polytraj/sparse"
)

// writeCost emits the block-diagonal Hessian of ∑ ∫ (p⁽ᴰ⁾)² over every segment
// and dimension. Both triangles are written. The last node has no segment and
// contributes nothing.
func (info *Info) writeCost(dt []float64, dst sparse.Setter) {
	n := info.NumParamsPerNodePerDim
	for dim := 0; dim < info.NumDimensions; dim++ {
		for node := 0; node < info.NumSegments; node++ {
			q := poly.QuadraticMatrix(info.PolynomialOrder, info.DerivativeOrder, dt[node])
			base := info.ParamIndex(dim, node, 0)
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if v := q.At(i, j); v != 0 {
						dst.Set(base+i, base+j, v)
					}
				}
			}
		}
	}
}
