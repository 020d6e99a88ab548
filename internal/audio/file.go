// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"beanal/internal/log"
)

// FileSource replays a WAV, MP3, Ogg Vorbis or FLAC file in real time,
// standing in for a capture device. When the file ends the source stops
// and reports io.EOF, unless Loop is set.
type FileSource struct {
	path   string
	frames int
	loop   bool
	logger *log.Logger

	mu    sync.Mutex
	dec   pcmDecoder
	pacer *pacer

	sub        subscription
	sampleRate atomicFloat
	raw        []float32
	mono       []float32
}

// NewFileSource opens path and reads its header. framesPerChunk sets the
// delivery granularity, like a device's frames-per-buffer.
func NewFileSource(path string, framesPerChunk int, loop bool) (*FileSource, error) {
	if framesPerChunk <= 0 {
		framesPerChunk = 512
	}
	dec, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	s := &FileSource{
		path:   path,
		frames: framesPerChunk,
		loop:   loop,
		logger: log.New("file").With("path", filepath.Base(path)),
		dec:    dec,
	}
	s.sampleRate.Store(float64(dec.SampleRate()))
	return s, nil
}

// Start begins replay. deviceID is ignored; a file has a single stream.
func (s *FileSource) Start(_ string, onSamples SamplesFunc, onStopped StoppedFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pacer != nil {
		return ErrAlreadyRunning
	}
	if s.dec == nil {
		dec, err := openDecoder(s.path)
		if err != nil {
			return err
		}
		s.dec = dec
		s.sampleRate.Store(float64(dec.SampleRate()))
	}

	channels := s.dec.Channels()
	s.raw = make([]float32, s.frames*channels)
	s.mono = make([]float32, s.frames)

	s.sub.set(onSamples, onStopped)
	s.pacer = startPacer(chunkInterval(s.frames, s.SampleRate()), s.mono, s.fill, &s.sub)
	s.logger.With("rate", s.dec.SampleRate(), "channels", channels, "loop", s.loop).Infof("replay started")
	return nil
}

// fill runs on the pacer goroutine.
func (s *FileSource) fill(mono []float32) (int, error) {
	n, err := readFull(s.dec, s.raw)
	if errors.Is(err, io.EOF) && s.loop {
		if rerr := s.rewind(); rerr != nil {
			return 0, rerr
		}
		err = nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		err = fmt.Errorf("reading %s: %w", filepath.Base(s.path), err)
	}
	return Downmix(mono, s.raw[:n], s.dec.Channels()), err
}

func (s *FileSource) rewind() error {
	s.dec.Close()
	dec, err := openDecoder(s.path)
	if err != nil {
		return err
	}
	if dec.Channels() != len(s.raw)/s.frames {
		dec.Close()
		return fmt.Errorf("%s changed channel count while looping", filepath.Base(s.path))
	}
	s.dec = dec
	return nil
}

// Stop unsubscribes, waits for the replay goroutine and closes the file.
func (s *FileSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pacer == nil {
		return ErrNotRunning
	}

	s.sub.clear()
	s.pacer.stop()
	s.pacer = nil

	err := s.dec.Close()
	s.dec = nil
	s.logger.Infof("replay stopped")
	return err
}

func (s *FileSource) SampleRate() float64 { return s.sampleRate.Load() }

// Devices returns the single entry for the file.
func (s *FileSource) Devices() ([]Device, error) {
	return []Device{{
		ID:                "",
		Name:              filepath.Base(s.path),
		MaxInputChannels:  1,
		DefaultSampleRate: s.SampleRate(),
		Default:           true,
	}}, nil
}
