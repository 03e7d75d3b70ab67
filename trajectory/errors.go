// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trajectory

import "errors"

var (
	// ErrConfig reports invalid Options.
	ErrConfig = errors.New("trajectory: invalid options")
	// ErrInput reports malformed times or bounds.
	ErrInput = errors.New("trajectory: invalid input")
	// ErrUnderConstrained reports fewer constraint rows than the structural minimum.
	ErrUnderConstrained = errors.New("trajectory: under-constrained problem")
	// ErrBackend reports a QP backend that rejected the problem or returned a malformed result.
	ErrBackend = errors.New("trajectory: solver backend failure")
)
