// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timealloc

import (
	"math"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)

// retryGradient re-estimates every non-finite component of g at x by one-sided
// differences against f0 = f(x). Each attempt tries the forward then the
// backward step, stays above lo, and halves the step for the next attempt.
// It reports whether g ends up finite.
func retryGradient(f func([]float64) float64, x, g []float64, f0, lo float64, attempts int) bool {
	probe := make([]float64, len(x))
	for i, v := range g {
		if finite(v) {
			continue
		}
		h := sqrtEps * math.Max(1, math.Abs(x[i]))
		for k := 0; k <= attempts && !finite(g[i]); k++ {
			for _, step := range [2]float64{h, -h} {
				if x[i]+step < lo {
					continue
				}
				copy(probe, x)
				probe[i] += step
				if fi := f(probe); finite(fi) {
					g[i] = (fi - f0) / step
					break
				}
			}
			h /= 2
		}
		if !finite(g[i]) {
			return false
		}
	}
	return true
}
