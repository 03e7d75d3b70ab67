// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sparse bridges dense assembly to the compressed sparse column form
// consumed by QP solvers.
package sparse

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// DropTolerance is the default magnitude at or below which entries are not stored.
const DropTolerance = 1e-20

var (
	ErrSealed     = errors.New("sparse: builder already compressed")
	ErrOutOfRange = errors.New("sparse: index out of range")
	ErrShape      = errors.New("sparse: malformed matrix")
)

// Setter receives matrix entries. Both *mat.Dense and *Builder satisfy it.
type Setter interface {
	Set(i, j int, v float64)
}

var (
	_ Setter     = (*mat.Dense)(nil)
	_ Setter     = (*Builder)(nil)
	_ mat.Matrix = (*CSC)(nil)
)

// CSC is a matrix in compressed sparse column form.
//
// The row indices of column j are RowIdx[ColPtr[j]:ColPtr[j+1]] in increasing order
// and Values holds the matching entries.
type CSC struct {
	Rows, Cols int
	ColPtr     []int
	RowIdx     []int
	Values     []float64
}

// Dims returns the dimensions of the matrix.
func (m *CSC) Dims() (r, c int) { return m.Rows, m.Cols }

// At returns the element at row i, column j.
func (m *CSC) At(i, j int) float64 {
	if uint(i) >= uint(m.Rows) || uint(j) >= uint(m.Cols) {
		panic(mat.ErrIndexOutOfRange)
	}
	lo, hi := m.ColPtr[j], m.ColPtr[j+1]
	rows := m.RowIdx[lo:hi]
	if k := sort.SearchInts(rows, i); k < len(rows) && rows[k] == i {
		return m.Values[lo+k]
	}
	return 0
}

// T returns the implicit transpose.
func (m *CSC) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// NNZ returns the number of stored entries.
func (m *CSC) NNZ() int { return len(m.Values) }

// Check verifies the structural invariants of the matrix.
func (m *CSC) Check() error {
	switch {
	case m.Rows < 0 || m.Cols < 0:
		return fmt.Errorf("%w: negative dimension %d×%d", ErrShape, m.Rows, m.Cols)
	case len(m.ColPtr) != m.Cols+1:
		return fmt.Errorf("%w: column pointer length %d, want %d", ErrShape, len(m.ColPtr), m.Cols+1)
	case m.ColPtr[0] != 0 || m.ColPtr[m.Cols] != len(m.RowIdx):
		return fmt.Errorf("%w: column pointers do not span row indices", ErrShape)
	case len(m.RowIdx) != len(m.Values):
		return fmt.Errorf("%w: %d row indices for %d values", ErrShape, len(m.RowIdx), len(m.Values))
	}
	for j := 0; j < m.Cols; j++ {
		lo, hi := m.ColPtr[j], m.ColPtr[j+1]
		if lo > hi {
			return fmt.Errorf("%w: column pointers decrease at column %d", ErrShape, j)
		}
		for k := lo; k < hi; k++ {
			if r := m.RowIdx[k]; r < 0 || r >= m.Rows || (k > lo && r <= m.RowIdx[k-1]) {
				return fmt.Errorf("%w: row index %d in column %d", ErrShape, r, j)
			}
		}
	}
	return nil
}

// MulVec returns 𝐀𝐱.
func (m *CSC) MulVec(x []float64) []float64 {
	if len(x) != m.Cols {
		panic(mat.ErrShape)
	}
	y := make([]float64, m.Rows)
	for j, xj := range x {
		if xj == 0 {
			continue
		}
		for k := m.ColPtr[j]; k < m.ColPtr[j+1]; k++ {
			y[m.RowIdx[k]] += m.Values[k] * xj
		}
	}
	return y
}

// QuadForm returns 𝐱ᵀ𝐀𝐱 for a square matrix.
func (m *CSC) QuadForm(x []float64) float64 {
	if m.Rows != m.Cols || len(x) != m.Cols {
		panic(mat.ErrShape)
	}
	var s float64
	for j, xj := range x {
		if xj == 0 {
			continue
		}
		for k := m.ColPtr[j]; k < m.ColPtr[j+1]; k++ {
			s += x[m.RowIdx[k]] * m.Values[k] * xj
		}
	}
	return s
}

// ToDense expands the matrix.
func (m *CSC) ToDense() *mat.Dense {
	if m.Rows == 0 || m.Cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.Rows, m.Cols, nil)
	for j := 0; j < m.Cols; j++ {
		for k := m.ColPtr[j]; k < m.ColPtr[j+1]; k++ {
			d.Set(m.RowIdx[k], j, m.Values[k])
		}
	}
	return d
}

// FromDense compresses a matrix, dropping entries with magnitude at or below tol.
func FromDense(a mat.Matrix, tol float64) *CSC {
	r, c := a.Dims()
	m := &CSC{Rows: r, Cols: c, ColPtr: make([]int, c+1)}
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			if v := a.At(i, j); math.Abs(v) > tol {
				m.RowIdx = append(m.RowIdx, i)
				m.Values = append(m.Values, v)
			}
		}
		m.ColPtr[j+1] = len(m.Values)
	}
	return m
}
