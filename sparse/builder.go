// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import (
	"fmt"
	"math"
	"sort"
)

type triplet struct {
	i, j int
	v    float64
}

// Builder collects matrix entries as triplets and compresses them once.
// A repeated (i, j) keeps the last value written.
type Builder struct {
	rows, cols int
	entries    []triplet
	sealed     bool
	err        error
}

// NewBuilder returns a builder for a rows × cols matrix.
func NewBuilder(rows, cols int) *Builder {
	return &Builder{rows: rows, cols: cols}
}

// Dims returns the dimensions of the matrix under construction.
func (b *Builder) Dims() (r, c int) { return b.rows, b.cols }

// Set records an entry. Errors are deferred to Compress.
func (b *Builder) Set(i, j int, v float64) {
	switch {
	case b.err != nil:
	case b.sealed:
		b.err = ErrSealed
	case i < 0 || i >= b.rows || j < 0 || j >= b.cols:
		b.err = fmt.Errorf("%w: (%d,%d) in %d×%d", ErrOutOfRange, i, j, b.rows, b.cols)
	default:
		b.entries = append(b.entries, triplet{i, j, v})
	}
}

// Err returns the first error recorded by Set.
func (b *Builder) Err() error { return b.err }

// Compress builds the CSC matrix, dropping entries with magnitude at or below tol.
// The builder can be compressed only once.
func (b *Builder) Compress(tol float64) (*CSC, error) {
	if b.sealed {
		return nil, ErrSealed
	}
	b.sealed = true
	if b.err != nil {
		return nil, b.err
	}

	// stable sort keeps insertion order among duplicates, the last one wins
	sort.SliceStable(b.entries, func(x, y int) bool {
		ex, ey := b.entries[x], b.entries[y]
		if ex.j != ey.j {
			return ex.j < ey.j
		}
		return ex.i < ey.i
	})

	m := &CSC{Rows: b.rows, Cols: b.cols, ColPtr: make([]int, b.cols+1)}
	for k, e := range b.entries {
		if k+1 < len(b.entries) {
			if n := b.entries[k+1]; n.i == e.i && n.j == e.j {
				continue
			}
		}
		if math.Abs(e.v) <= tol {
			continue
		}
		m.RowIdx = append(m.RowIdx, e.i)
		m.Values = append(m.Values, e.v)
		m.ColPtr[e.j+1]++
	}
	for j := 0; j < b.cols; j++ {
		m.ColPtr[j+1] += m.ColPtr[j]
	}
	b.entries = nil
	return m, nil
}
