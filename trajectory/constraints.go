// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trajectory

import (
	"math"
	"sort"

	"github.com/curioloop/polytraj/poly"
	"github.com/curioloop/polytraj/sparse"
)

// rowPlan groups the bounds in emission order.
type rowPlan struct {
	// per dim*NumNodes+node, sorted by derivative
	eq  [][]NodeEqualityBound
	neq [][]NodeInequalityBound
	// per segment, input order
	seg     [][]SegmentInequalityBound
	samples int
	rows    int
}

func (info *Info) plan(eq []NodeEqualityBound, neq []NodeInequalityBound, seg []SegmentInequalityBound, samples int) *rowPlan {
	blocks := info.NumDimensions * info.NumNodes
	p := &rowPlan{
		eq:      make([][]NodeEqualityBound, blocks),
		neq:     make([][]NodeInequalityBound, blocks),
		seg:     make([][]SegmentInequalityBound, info.NumSegments),
		samples: samples,
	}

	type key struct{ dim, node, deriv int }
	seen := make(map[key]bool, len(eq))
	for _, b := range eq {
		k := key{b.Dimension, b.Node, b.Derivative}
		if seen[k] {
			continue // first bound wins
		}
		seen[k] = true
		blk := b.Dimension*info.NumNodes + b.Node
		p.eq[blk] = append(p.eq[blk], b)
	}
	for _, b := range neq {
		blk := b.Dimension*info.NumNodes + b.Node
		p.neq[blk] = append(p.neq[blk], b)
	}
	for blk := 0; blk < blocks; blk++ {
		sort.SliceStable(p.eq[blk], func(i, j int) bool { return p.eq[blk][i].Derivative < p.eq[blk][j].Derivative })
		sort.SliceStable(p.neq[blk], func(i, j int) bool { return p.neq[blk][i].Derivative < p.neq[blk][j].Derivative })
		p.rows += len(p.eq[blk]) + len(p.neq[blk])
	}
	for _, b := range seg {
		p.seg[b.Segment] = append(p.seg[b.Segment], b)
		p.rows += samples
	}
	p.rows += info.NumDimensions * info.NumSegments * (info.ContinuityOrder + 1)
	return p
}

// sampleOffsets returns n evenly spaced offsets covering [0, dt].
// A single sample sits at the midpoint.
func sampleOffsets(n int, dt float64) []float64 {
	if n == 1 {
		return []float64{dt / 2}
	}
	tau := make([]float64, n)
	for k := range tau {
		tau[k] = dt * float64(k) / float64(n-1)
	}
	return tau
}

// writeConstraints emits every constraint row into dst and returns the row bounds.
//
// Rows are ordered by dimension then node. Each node contributes its explicit
// rows by derivative, an equality ahead of the inequalities on the same
// derivative, then its continuity rows with the next node. The segment rows
// follow, by segment, bound and sample.
func (info *Info) writeConstraints(p *rowPlan, dt []float64, dst sparse.Setter) (lower, upper []float64) {
	lower = make([]float64, 0, p.rows)
	upper = make([]float64, 0, p.rows)
	order := info.PolynomialOrder
	row := 0

	for dim := 0; dim < info.NumDimensions; dim++ {
		for node := 0; node < info.NumNodes; node++ {
			blk := dim*info.NumNodes + node
			// both lists are sorted by derivative, equalities go first on a tie
			eqs, neqs := p.eq[blk], p.neq[blk]
			for len(eqs) > 0 || len(neqs) > 0 {
				var deriv int
				var lo, up float64
				if len(neqs) == 0 || (len(eqs) > 0 && eqs[0].Derivative <= neqs[0].Derivative) {
					deriv, lo, up = eqs[0].Derivative, eqs[0].Value, eqs[0].Value
					eqs = eqs[1:]
				} else {
					deriv, lo, up = neqs[0].Derivative, neqs[0].Lower, neqs[0].Upper
					neqs = neqs[1:]
				}
				dst.Set(row, info.ParamIndex(dim, node, deriv), 1)
				lower = append(lower, lo)
				upper = append(upper, up)
				row++
			}
			if node >= info.NumSegments {
				continue
			}
			base := info.ParamIndex(dim, node, 0)
			for d := 0; d <= info.ContinuityOrder; d++ {
				for k, v := range poly.CoefficientVector(order, d, dt[node]) {
					if v != 0 {
						dst.Set(row, base+k, v)
					}
				}
				dst.Set(row, info.ParamIndex(dim, node+1, d), -1)
				lower = append(lower, 0)
				upper = append(upper, 0)
				row++
			}
		}
	}

	for s, bounds := range p.seg {
		tau := sampleOffsets(p.samples, dt[s])
		for _, b := range bounds {
			for _, t := range tau {
				v := poly.CoefficientVector(order, b.Derivative, t)
				for dim, m := range b.Mapping {
					if m == 0 {
						continue
					}
					base := info.ParamIndex(dim, s, 0)
					for k, c := range v {
						if c != 0 {
							dst.Set(row, base+k, m*c)
						}
					}
				}
				lower = append(lower, math.Inf(-1))
				upper = append(upper, b.Value)
				row++
			}
		}
	}
	return
}
