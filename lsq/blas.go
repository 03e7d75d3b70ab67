// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lsq

import "gonum.org/v1/gonum/blas/blas64"

// Level 1 BLAS on strided slices. Non-positive lengths are no-ops, which the
// kernels rely on for empty blocks.

func daxpy(n int, da float64, dx []float64, incx int, dy []float64, incy int) {
	if n <= 0 || da == 0 {
		return
	}
	blas64.Implementation().Daxpy(n, da, dx, incx, dy, incy)
}

func ddot(n int, dx []float64, incx int, dy []float64, incy int) float64 {
	if n <= 0 {
		return 0
	}
	return blas64.Implementation().Ddot(n, dx, incx, dy, incy)
}

func dcopy(n int, dx []float64, incx int, dy []float64, incy int) {
	if n <= 0 {
		return
	}
	blas64.Implementation().Dcopy(n, dx, incx, dy, incy)
}

func dnrm2(n int, x []float64, incx int) float64 {
	if n < 1 || incx < 1 {
		return 0
	}
	return blas64.Implementation().Dnrm2(n, x, incx)
}

func dzero(dx []float64) { clear(dx) }
