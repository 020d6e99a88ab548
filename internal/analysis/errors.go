// SPDX-License-Identifier: MIT
package analysis

import "errors"

var (
	// ErrInvalidBarCount is returned when a bar count below one is requested.
	ErrInvalidBarCount = errors.New("bar count must be at least 1")

	// ErrInvalidSampleRate is returned for a non-positive or non-finite
	// sample rate.
	ErrInvalidSampleRate = errors.New("sample rate must be a positive finite number")

	// ErrInvalidSettings is returned when a settings snapshot fails validation.
	ErrInvalidSettings = errors.New("invalid analysis settings")
)
