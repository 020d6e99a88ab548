package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"beanal/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const recordBitDepth = 16

// Recorder writes the mono stream the analyzer consumes to a 16-bit PCM
// WAV file. Process is called on the capture thread; Start and Stop from
// any goroutine.
type Recorder struct {
	mu         sync.Mutex
	outputFile *os.File
	wavEncoder *wav.Encoder
	sampleBuf  *audio.IntBuffer // Reusable buffer for format conversion
	writeErr   error
	logger     *log.Logger

	base       string // filename given to Start
	sampleRate int
	segment    int // 1 for base, 2+ for rollover files
}

func NewRecorder() *Recorder {
	return &Recorder{logger: log.New("recorder")}
}

// Start creates filename and begins recording at sampleRate.
func (r *Recorder) Start(filename string, sampleRate int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder != nil {
		return ErrAlreadyRecording
	}
	if err := r.openLocked(filename, sampleRate); err != nil {
		return err
	}
	r.base = filename
	r.segment = 1
	return nil
}

func (r *Recorder) openLocked(filename string, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("recorder: invalid sample rate %d", sampleRate)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, sampleRate, recordBitDepth, 1, 1)
	r.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, 0, 4096),
		SourceBitDepth: recordBitDepth,
	}
	r.sampleRate = sampleRate
	r.writeErr = nil
	r.logger.With("file", filename, "rate", sampleRate).Infof("recording started")
	return nil
}

// Rollover continues the recording in a new file when sampleRate differs
// from the rate the current file was opened with, since a WAV header holds
// a single rate. The new file is named after the original with a segment
// suffix (session.wav, session-2.wav, ...). It returns the new file name,
// or "" when nothing changed.
func (r *Recorder) Rollover(sampleRate int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder == nil || sampleRate <= 0 || sampleRate == r.sampleRate {
		return "", nil
	}
	if err := r.stopLocked(); err != nil {
		r.logger.Warnf("finalizing %s: %v", filepath.Base(r.base), err)
	}
	r.segment++
	name := segmentName(r.base, r.segment)
	if err := r.openLocked(name, sampleRate); err != nil {
		return "", err
	}
	return name, nil
}

func segmentName(base string, segment int) string {
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), segment, ext)
}

// Recording reports whether a file is open.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wavEncoder != nil
}

// Process appends samples to the file. Write errors are logged once and
// returned by Stop.
func (r *Recorder) Process(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder == nil || r.writeErr != nil {
		return
	}

	if cap(r.sampleBuf.Data) < len(samples) {
		r.sampleBuf.Data = make([]int, len(samples))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(samples)]
	for i, s := range samples {
		r.sampleBuf.Data[i] = floatToPCM16(s)
	}

	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		r.writeErr = err
		r.logger.Errorf("Error writing to WAV file: %v", err)
	}
}

// Stop finalizes the WAV header and closes the file. Stopping when not
// recording is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

func (r *Recorder) stopLocked() error {
	if r.wavEncoder == nil {
		return nil
	}

	err := r.writeErr
	if cerr := r.wavEncoder.Close(); cerr != nil && err == nil {
		err = cerr
	}
	r.wavEncoder = nil

	if cerr := r.outputFile.Close(); cerr != nil && err == nil {
		err = cerr
	}
	r.outputFile = nil
	r.logger.Infof("recording stopped")
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	return nil
}

// Close implements analysis.ClosableProcessor.
func (r *Recorder) Close() error { return r.Stop() }

func floatToPCM16(s float32) int {
	v := int(s * 32767)
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return v
	}
}
