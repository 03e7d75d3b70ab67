// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lsq implements the Lawson-Hanson family of constrained linear
// least-squares kernels (LSEI, LSI, LDP and NNLS) on column-major
// float64 slices.
package lsq

const (
	zero = 0.0
	one  = 1.0
	two  = 2.0
	eps  = float64(7)/3 - float64(4)/3 - 1.
)

// Mode reports how a kernel terminated.
type Mode int

const (
	OK Mode = iota
	// HasSolution problem solved successfully.
	HasSolution
	// BadArgument input dimension unacceptable.
	BadArgument
	// NNLSExceedMaxIter more than max iterations for solving NNLS
	NNLSExceedMaxIter
	// ConsIncompatible inequality constraints incompatible
	ConsIncompatible
	// LSISingularE matrix E is not of full rank in LSI
	LSISingularE
	// LSEISingularC matrix C is not of full rank in LSEI
	LSEISingularC
	// LSESingularE matrix E is rank deficient in the equality-only problem
	LSESingularE
)

func (m Mode) String() string {
	switch m {
	case OK:
		return "ok"
	case HasSolution:
		return "solution found"
	case BadArgument:
		return "bad argument"
	case NNLSExceedMaxIter:
		return "NNLS iteration limit exceeded"
	case ConsIncompatible:
		return "inequality constraints incompatible"
	case LSISingularE:
		return "matrix E singular in LSI"
	case LSEISingularC:
		return "matrix C singular in LSEI"
	case LSESingularE:
		return "matrix E singular in LSE"
	}
	return "unknown mode"
}

// Success reports whether the kernel produced a solution.
func (m Mode) Success() bool {
	return m == HasSolution
}
