// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numdiff estimates gradients of scalar functions by finite differences.
package numdiff

import (
	"errors"
	"math"
	"sync"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use central difference in interior points and the second order accuracy
	// forward or backward difference near the boundary.
	Central
)

// Bound is a closed interval [lower, upper]; infinite ends are unbounded.
type Bound [2]float64

// Spec estimates the gradient of a scalar function of N variables.
//
// Every evaluation point stays inside Bounds, so functions undefined outside
// their domain can be differentiated at its edge.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
type Spec struct {
	N int
	// Function to differentiate. It must not retain or modify x.
	Func func(x []float64) float64
	// Finite difference method to use.
	Method Method
	// Lower and upper bounds on the variables, nil when unbounded.
	Bounds []Bound
	// Relative step size used to compute absolute step size.
	// The default absolute step size is h = RelStep * sign(x0) * max(1, abs(x0)) with RelStep selected automatically.
	// Otherwise, h = RelStep * sign(x0) * abs(x0) when RelStep is provided.
	RelStep float64
	// Absolute step size to use, possibly adjusted to fit into the bounds.
	// For Central method the sign of AbsStep is ignored.
	AbsStep float64
	// Don't check if x0 is out of bounds.
	NotChkBnd bool
	// Maximum number of concurrent evaluations of Func, sequential when ≤ 1.
	// Func must be safe for concurrent use when set.
	Concurrency int

	absStep []float64
	oneSide []bool
}

// Check the parameters and allocate the working space.
func (s *Spec) Check(x0, grad []float64) (err error) {

	switch {
	case s.N <= 0:
		err = errors.New("numdiff: non-positive dimension")
	case s.Method != Forward && s.Method != Central:
		err = errors.New("numdiff: unknown method")
	case s.Func == nil:
		err = errors.New("numdiff: function is required")
	case s.N != len(x0):
		err = errors.New("numdiff: invalid x0 dimension")
	case s.N != len(grad):
		err = errors.New("numdiff: invalid gradient dimension")
	}

	if err == nil && s.Bounds != nil {
		if len(s.Bounds) != len(x0) {
			err = errors.New("numdiff: invalid bound dimension")
		} else {
			for i := range s.Bounds {
				b := &s.Bounds[i]
				if math.IsNaN(b[0]) {
					b[0] = math.Inf(-1)
				}
				if math.IsNaN(b[1]) {
					b[1] = math.Inf(1)
				}
				if b[0] > b[1] {
					err = errors.New("numdiff: invalid bound range")
					break
				}
				if !s.NotChkBnd && (x0[i] < b[0] || x0[i] > b[1]) {
					err = errors.New("numdiff: x0 violates bound constraints")
					break
				}
			}
		}
	}

	if len(s.absStep) != s.N {
		s.absStep = make([]float64, s.N)
	}
	if len(s.oneSide) != s.N*int(s.Method) {
		s.oneSide = make([]bool, s.N*int(s.Method))
	}
	return
}

// Grad stores the finite difference gradient at x0 in grad.
// The function is evaluated N+1 times for Forward and 2N+1 times for Central.
func (s *Spec) Grad(x0, grad []float64) error {

	if err := s.Check(x0, grad); err != nil {
		return err
	}

	bnd := false
	for _, b := range s.Bounds {
		if bnd = !(math.IsInf(b[0], 0) && math.IsInf(b[1], 0)); bnd {
			break
		}
	}

	s.absoluteStep(x0)
	s.adjustToBounds(x0, bnd)

	if s.Method == Central {
		s.approxCentral(x0, grad)
	} else {
		s.approxForward(x0, grad)
	}
	return nil
}

func (s *Spec) adjustToBounds(x0 []float64, bnd bool) {
	h, o := s.absStep, s.oneSide
	if s.Method == Central {
		for i, v := range h {
			h[i] = math.Abs(v)
		}
		for i := range o {
			o[i] = false
		}
	}

	if !bnd {
		return
	}

	b := s.Bounds
	if len(x0) != len(b) || len(x0) != len(h) {
		panic("bound check error")
	}

	if s.Method == Forward {
		for i, x0 := range x0 {
			ld, ud := x0-b[i][0], b[i][1]-x0
			x := x0 + h[i]
			violated := x < b[i][0] || x > b[i][1]
			fitting := math.Abs(h[i]) <= math.Max(ld, ud)
			switch {
			case violated && fitting:
				h[i] = -h[i]
			case !fitting && ud >= ld:
				h[i] = ud
			case !fitting:
				h[i] = -ld
			}
		}
		return
	}

	if len(x0) != len(o) {
		panic("bound check error")
	}
	for i, x0 := range x0 {
		ld, ud := x0-b[i][0], b[i][1]-x0
		central := ld >= h[i] && ud >= h[i]
		if !central {
			if ud >= ld {
				h[i] = math.Min(h[i], 0.5*ud)
			} else {
				h[i] = -math.Min(h[i], 0.5*ld)
			}
			o[i] = true
		}
		if minDist := math.Min(ud, ld); !central && math.Abs(h[i]) <= minDist {
			h[i] = minDist
			o[i] = false
		}
	}
}

func (s *Spec) absoluteStep(x0 []float64) {
	h := s.absStep
	if len(h) != len(x0) {
		panic("bound check error")
	}

	var eps float64
	switch s.Method {
	case Forward:
		eps = sqrtEps
	case Central:
		eps = cubeEps
	default:
		panic("unknown method")
	}

	if s.AbsStep == 0 && s.RelStep == 0 {
		for i, v := range x0 {
			h[i] = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
		}
		return
	}
	for i, v := range x0 {
		step := s.AbsStep
		if step == 0 {
			step = math.Copysign(s.RelStep, v) * math.Abs(v)
		}
		if (v+step)-v == 0 {
			step = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
		}
		h[i] = step
	}
}

// probe is an evaluation point x0 + Δ·eᵢ.
type probe struct {
	i     int
	delta float64
	f     float64
}

// evaluate fills the function value of every probe, the centre point when i < 0.
func (s *Spec) evaluate(x0 []float64, probes []probe) {
	at := func(p *probe) {
		x := append([]float64(nil), x0...)
		if p.i >= 0 {
			x[p.i] += p.delta
		}
		p.f = s.Func(x)
	}

	if s.Concurrency <= 1 {
		for k := range probes {
			at(&probes[k])
		}
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.Concurrency)
	for k := range probes {
		wg.Add(1)
		sem <- struct{}{}
		go func(p *probe) {
			defer func() { <-sem; wg.Done() }()
			at(p)
		}(&probes[k])
	}
	wg.Wait()
}

func (s *Spec) approxForward(x0, grad []float64) {
	h := s.absStep
	probes := make([]probe, 0, len(h)+1)
	probes = append(probes, probe{i: -1})
	for i, step := range h {
		probes = append(probes, probe{i: i, delta: step})
	}
	s.evaluate(x0, probes)

	f0 := probes[0].f
	for i, step := range h {
		grad[i] = (probes[i+1].f - f0) / step
	}
}

func (s *Spec) approxCentral(x0, grad []float64) {
	h, o := s.absStep, s.oneSide
	probes := make([]probe, 0, 2*len(h)+1)
	probes = append(probes, probe{i: -1})
	for i, step := range h {
		if o[i] {
			probes = append(probes, probe{i: i, delta: step}, probe{i: i, delta: 2 * step})
		} else {
			probes = append(probes, probe{i: i, delta: -step}, probe{i: i, delta: step})
		}
	}
	s.evaluate(x0, probes)

	f0 := probes[0].f
	for i, step := range h {
		f1, f2 := probes[2*i+1].f, probes[2*i+2].f
		d := 1.0 / (2 * step)
		if o[i] {
			grad[i] = (4*f1 - 3*f0 - f2) * d
		} else {
			grad[i] = (f2 - f1) * d
		}
	}
}
