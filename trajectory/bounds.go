// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trajectory

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// NodeEqualityBound pins one derivative of one dimension at one node.
type NodeEqualityBound struct {
	Dimension  int
	Node       int
	Derivative int
	Value      float64
}

// NodeInequalityBound keeps one derivative of one dimension at one node
// within [Lower, Upper]. Either side may be infinite.
type NodeInequalityBound struct {
	Dimension  int
	Node       int
	Derivative int
	Lower      float64
	Upper      float64
}

// SegmentInequalityBound constrains dot(Mapping, d) ≤ Value along a segment,
// where d holds the derivative of every dimension.
type SegmentInequalityBound struct {
	Segment    int
	Derivative int
	Mapping    []float64
	Value      float64
}

// checkBounds reports every malformed bound, each wrapping ErrInput.
func (info *Info) checkBounds(eq []NodeEqualityBound, neq []NodeInequalityBound, seg []SegmentInequalityBound) (err error) {
	node := func(kind string, i, dim, node, deriv int) (err error) {
		if dim < 0 || dim >= info.NumDimensions {
			err = multierr.Append(err, fmt.Errorf("%w: %s bound %d: dimension %d out of range", ErrInput, kind, i, dim))
		}
		if node < 0 || node >= info.NumNodes {
			err = multierr.Append(err, fmt.Errorf("%w: %s bound %d: node %d out of range", ErrInput, kind, i, node))
		}
		if deriv < 0 || deriv > info.PolynomialOrder {
			err = multierr.Append(err, fmt.Errorf("%w: %s bound %d: derivative %d out of range", ErrInput, kind, i, deriv))
		}
		return
	}

	for i, b := range eq {
		err = multierr.Append(err, node("equality", i, b.Dimension, b.Node, b.Derivative))
		if math.IsNaN(b.Value) || math.IsInf(b.Value, 0) {
			err = multierr.Append(err, fmt.Errorf("%w: equality bound %d: value %g", ErrInput, i, b.Value))
		}
	}
	for i, b := range neq {
		err = multierr.Append(err, node("inequality", i, b.Dimension, b.Node, b.Derivative))
		if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || b.Lower > b.Upper {
			err = multierr.Append(err, fmt.Errorf("%w: inequality bound %d: range [%g, %g]", ErrInput, i, b.Lower, b.Upper))
		}
	}
	for i, b := range seg {
		if b.Segment < 0 || b.Segment >= info.NumSegments {
			err = multierr.Append(err, fmt.Errorf("%w: segment bound %d: segment %d out of range", ErrInput, i, b.Segment))
		}
		if b.Derivative < 0 || b.Derivative > info.PolynomialOrder {
			err = multierr.Append(err, fmt.Errorf("%w: segment bound %d: derivative %d out of range", ErrInput, i, b.Derivative))
		}
		if len(b.Mapping) != info.NumDimensions {
			err = multierr.Append(err, fmt.Errorf("%w: segment bound %d: mapping has %d entries, want %d", ErrInput, i, len(b.Mapping), info.NumDimensions))
		}
		for _, m := range b.Mapping {
			if math.IsNaN(m) || math.IsInf(m, 0) {
				err = multierr.Append(err, fmt.Errorf("%w: segment bound %d: mapping entry %g", ErrInput, i, m))
				break
			}
		}
		if math.IsNaN(b.Value) || math.IsInf(b.Value, 0) {
			err = multierr.Append(err, fmt.Errorf("%w: segment bound %d: value %g", ErrInput, i, b.Value))
		}
	}
	return
}
