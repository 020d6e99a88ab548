// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// pcmDecoder yields interleaved float32 samples in [-1, 1].
type pcmDecoder interface {
	SampleRate() int
	Channels() int
	// Read fills dst with interleaved values and returns how many were
	// written. It returns io.EOF once the stream is exhausted.
	Read(dst []float32) (int, error)
	Close() error
}

// SupportedExtensions lists the file types FileSource can replay.
var SupportedExtensions = []string{".wav", ".mp3", ".ogg", ".flac"}

// openDecoder picks a decoder by file extension.
func openDecoder(path string) (pcmDecoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".mp3", ".ogg", ".flac":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var dec pcmDecoder
	switch ext {
	case ".wav":
		dec, err = newWAVDecoder(f)
	case ".mp3":
		dec, err = newMP3Decoder(f)
	case ".ogg":
		dec, err = newOGGDecoder(f)
	case ".flac":
		dec, err = newFLACDecoder(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	if dec.SampleRate() <= 0 || dec.Channels() <= 0 {
		dec.Close()
		return nil, fmt.Errorf("decoding %s: %w: bad stream header", filepath.Base(path), ErrUnsupportedFormat)
	}
	return dec, nil
}

// readFull reads until dst is full or the decoder reports an error.
func readFull(dec pcmDecoder, dst []float32) (int, error) {
	total := 0
	for total < len(dst) {
		n, err := dec.Read(dst[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.EOF
		}
	}
	return total, nil
}

// --- WAV decoder ---

type wavDecoder struct {
	file  *os.File
	dec   *wav.Decoder
	buf   *goaudio.IntBuffer
	scale float32
	bias  int
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: WAV audio format %d (only PCM)", ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, bitDepth)
	}
	d := &wavDecoder{
		file:  f,
		dec:   dec,
		buf:   &goaudio.IntBuffer{Data: make([]int, 4096)},
		scale: 1 / float32(int64(1)<<(bitDepth-1)),
	}
	if bitDepth == 8 {
		// 8-bit WAV is unsigned.
		d.bias = 128
	}
	return d, nil
}

func (d *wavDecoder) SampleRate() int { return int(d.dec.SampleRate) }
func (d *wavDecoder) Channels() int   { return int(d.dec.NumChans) }
func (d *wavDecoder) Close() error    { return d.file.Close() }

func (d *wavDecoder) Read(dst []float32) (int, error) {
	if cap(d.buf.Data) < len(dst) {
		d.buf.Data = make([]int, len(dst))
	}
	d.buf.Data = d.buf.Data[:len(dst)]

	n, err := d.dec.PCMBuffer(d.buf)
	for i := range n {
		dst[i] = float32(d.buf.Data[i]-d.bias) * d.scale
	}
	if n == 0 && err == nil {
		err = io.EOF
	}
	return n, err
}

// --- MP3 decoder ---

// go-mp3 always produces 16-bit little-endian stereo.
type mp3Decoder struct {
	file *os.File
	dec  *mp3.Decoder
	raw  []byte
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	return &mp3Decoder{file: f, dec: dec, raw: make([]byte, 8192)}, nil
}

func (d *mp3Decoder) SampleRate() int { return d.dec.SampleRate() }
func (d *mp3Decoder) Channels() int   { return 2 }
func (d *mp3Decoder) Close() error    { return d.file.Close() }

func (d *mp3Decoder) Read(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(d.raw) < need {
		d.raw = make([]byte, need)
	}
	n, err := d.dec.Read(d.raw[:need])
	samples := n / 2
	for i := range samples {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(d.raw[2*i:]))) / 32768
	}
	return samples, err
}

// --- Ogg Vorbis decoder ---

type oggDecoder struct {
	file *os.File
	dec  *oggvorbis.Reader
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, err
	}
	return &oggDecoder{file: f, dec: dec}, nil
}

func (d *oggDecoder) SampleRate() int { return d.dec.SampleRate() }
func (d *oggDecoder) Channels() int   { return d.dec.Channels() }
func (d *oggDecoder) Close() error    { return d.file.Close() }

func (d *oggDecoder) Read(dst []float32) (int, error) {
	// oggvorbis wants whole frames.
	ch := d.Channels()
	return d.dec.Read(dst[:len(dst)/ch*ch])
}

// --- FLAC decoder ---

type flacDecoder struct {
	file    *os.File
	stream  *flac.Stream
	decoded []float32 // interleaved samples of the current frame
	pos     int
	scale   float32
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, err
	}
	bps := int(stream.Info.BitsPerSample)
	if bps < 4 || bps > 32 {
		return nil, fmt.Errorf("%w: %d-bit FLAC", ErrUnsupportedFormat, bps)
	}
	return &flacDecoder{
		file:   f,
		stream: stream,
		scale:  1 / float32(int64(1)<<(bps-1)),
	}, nil
}

func (d *flacDecoder) SampleRate() int { return int(d.stream.Info.SampleRate) }
func (d *flacDecoder) Channels() int   { return int(d.stream.Info.NChannels) }
func (d *flacDecoder) Close() error    { return d.file.Close() }

func (d *flacDecoder) Read(dst []float32) (int, error) {
	if d.pos >= len(d.decoded) {
		frame, err := d.stream.ParseNext()
		if err != nil {
			return 0, err
		}
		channels := len(frame.Subframes)
		n := frame.Subframes[0].NSamples
		if cap(d.decoded) < n*channels {
			d.decoded = make([]float32, n*channels)
		}
		d.decoded = d.decoded[:n*channels]
		for ch, sub := range frame.Subframes {
			for i := range n {
				d.decoded[i*channels+ch] = float32(sub.Samples[i]) * d.scale
			}
		}
		d.pos = 0
	}
	n := copy(dst, d.decoded[d.pos:])
	d.pos += n
	return n, nil
}
