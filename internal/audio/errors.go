// SPDX-License-Identifier: MIT
package audio

import "errors"

var (
	ErrNotRunning        = errors.New("audio: source is not running")
	ErrAlreadyRunning    = errors.New("audio: source is already running")
	ErrUnsupportedFormat = errors.New("audio: unsupported file format")
	ErrDeviceNotFound    = errors.New("audio: capture device not found")
	ErrAlreadyRecording  = errors.New("audio: already recording")
	ErrDeviceLost        = errors.New("audio: capture device stopped delivering samples")
)
