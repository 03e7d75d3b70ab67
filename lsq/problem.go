// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import (
	"errors"
)

// Problem is a dense LSEI instance 𝚖𝚒𝚗‖ 𝐄𝐱 - 𝐟 ‖₂ subject to 𝐂𝐱 = 𝐝 and 𝐆𝐱 ≥ 𝐡.
// Matrices are column-major with leading dimension equal to their row count,
// which is taken from the length of the matching right-hand side.
type Problem struct {
	N int // number of variables

	C []float64 // len(D) × N
	D []float64
	E []float64 // len(F) × N
	F []float64
	G []float64 // len(H) × N
	H []float64

	MaxIter int // NNLS iteration limit (3N when not positive)
}

// Result of solving a Problem.
type Result struct {
	X []float64
	// Multipliers of the equality rows followed by those of the inequality rows.
	Multipliers []float64
	Norm        float64
	Mode        Mode
}

func (p *Problem) check() (err error) {
	mc, me, mg := len(p.D), len(p.F), len(p.H)
	switch {
	case p.N <= 0:
		err = errors.New("lsq: number of variables must be positive")
	case mc > p.N:
		err = errors.New("lsq: more equality rows than variables")
	case len(p.C) != mc*p.N:
		err = errors.New("lsq: C and D dimensions mismatch")
	case len(p.E) != me*p.N:
		err = errors.New("lsq: E and F dimensions mismatch")
	case len(p.G) != mg*p.N:
		err = errors.New("lsq: G and H dimensions mismatch")
	}
	return
}

// Solve runs LSEI on copies of the problem data, so p is left untouched.
// A kernel failure is reported through Result.Mode, not as an error.
func (p *Problem) Solve() (*Result, error) {
	if err := p.check(); err != nil {
		return nil, err
	}

	n := p.N
	mc, me, mg := len(p.D), len(p.F), len(p.H)
	l := n - mc

	c := append([]float64(nil), p.C...)
	d := append([]float64(nil), p.D...)
	e := append([]float64(nil), p.E...)
	f := append([]float64(nil), p.F...)
	g := append([]float64(nil), p.G...)
	h := append([]float64(nil), p.H...)

	x := make([]float64, n)
	w := make([]float64, 2*mc+me+(me+mg)*l+(l+1)*(mg+2)+2*mg)
	jw := make([]int, max(1, mg))

	norm, mode := LSEI(c, d, e, f, g, h, mc, mc, me, me, mg, mg, n, x, w, jw, p.MaxIter)

	res := &Result{X: x, Norm: norm, Mode: mode}
	if mode == HasSolution {
		res.Multipliers = append([]float64(nil), w[:mc+mg]...)
	}
	return res, nil
}
