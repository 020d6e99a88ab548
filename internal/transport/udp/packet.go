// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"beanal/internal/analysis"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Frame sequence (low 32) |
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Bar Count         | uint16         | 2            | Number of bars (N)      |
| Bar Heights       | []float32      | N * 4        | 0-100 per bar           |
| Peak Levels       | []float32      | N * 4        | 0-100 per bar           |
+-----------------------------------------------------------------------------+
*/

// HeaderSize is the fixed part of a packet.
const HeaderSize = 4 + 8 + 2

// MaxBars is the largest bar count a packet can carry.
const MaxBars = math.MaxUint16

// ErrShortPacket is returned when a packet is smaller than its header says.
var ErrShortPacket = errors.New("udp: short packet")

// PacketSize is the encoded size of a frame with bars bars.
func PacketSize(bars int) int { return HeaderSize + bars*8 }

// AppendPacket appends the encoding of frame to buf.
func AppendPacket(buf []byte, frame analysis.VisualizerFrame) ([]byte, error) {
	bars := frame.Bars()
	if bars < 0 {
		return buf, fmt.Errorf("udp: frame heights and peaks differ in length")
	}
	if bars > MaxBars {
		return buf, fmt.Errorf("udp: %d bars exceed packet limit %d", bars, MaxBars)
	}

	buf = binary.BigEndian.AppendUint32(buf, uint32(frame.Sequence))
	buf = binary.BigEndian.AppendUint64(buf, uint64(frame.Timestamp.UnixNano()))
	buf = binary.BigEndian.AppendUint16(buf, uint16(bars))
	for _, v := range frame.BarHeights {
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(v)))
	}
	for _, v := range frame.PeakLevels {
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(v)))
	}
	return buf, nil
}

// DecodePacket parses a packet built by AppendPacket.
func DecodePacket(data []byte) (analysis.VisualizerFrame, error) {
	var hdr struct {
		Seq   uint32
		TS    int64
		Count uint16
	}
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return analysis.VisualizerFrame{}, ErrShortPacket
	}
	if len(data) < PacketSize(int(hdr.Count)) {
		return analysis.VisualizerFrame{}, fmt.Errorf("%w: %d bytes for %d bars", ErrShortPacket, len(data), hdr.Count)
	}

	values := make([]float32, 2*int(hdr.Count))
	if err := binary.Read(r, binary.BigEndian, values); err != nil {
		return analysis.VisualizerFrame{}, err
	}
	frame := analysis.VisualizerFrame{
		BarHeights: make([]float64, hdr.Count),
		PeakLevels: make([]float64, hdr.Count),
		Sequence:   uint64(hdr.Seq),
		Timestamp:  time.Unix(0, hdr.TS),
	}
	for i := range int(hdr.Count) {
		frame.BarHeights[i] = float64(values[i])
		frame.PeakLevels[i] = float64(values[int(hdr.Count)+i])
	}
	return frame, nil
}
