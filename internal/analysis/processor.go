// SPDX-License-Identifier: MIT
package analysis

// SampleProcessor consumes chunks of mono float samples. Implementations are
// called from the capture callback, so they must not block and should not
// allocate per call. A processor may modify the chunk in place; later
// processors in a Chain see the modified samples.
type SampleProcessor interface {
	Process(samples []float32)
}

// ClosableProcessor combines SampleProcessor with a Close method for resource cleanup.
type ClosableProcessor interface {
	SampleProcessor
	Close() error
}

// Chain runs processors in order on the same chunk.
type Chain []SampleProcessor

func (c Chain) Process(samples []float32) {
	for _, p := range c {
		p.Process(samples)
	}
}

// Close closes every member that implements ClosableProcessor, returning
// the first error.
func (c Chain) Close() error {
	var first error
	for _, p := range c {
		if cp, ok := p.(ClosableProcessor); ok {
			if err := cp.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// ProcessorFunc adapts a plain function to SampleProcessor.
type ProcessorFunc func(samples []float32)

func (f ProcessorFunc) Process(samples []float32) { f(samples) }
