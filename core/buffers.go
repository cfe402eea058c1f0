package core

import (
	"errors"
	"math"
)

// BufferSize is the number of samples moved per transfer.
const BufferSize = 1024

// SampleBuffer holds 32-bit float samples, one DMA item each.
type SampleBuffer []float32

var (
	ErrEmptyBuffer    = errors.New("sample buffer is empty")
	ErrBufferMismatch = errors.New("source and destination lengths differ")
)

// Process-wide transfer buffers. The source is filled once by Engine.Init
// and only read afterwards; the destination is written by the controller.
var (
	sourceSamples      [BufferSize]float32
	destinationSamples [BufferSize]float32
)

// SourceBuffer returns the process-wide source buffer.
func SourceBuffer() SampleBuffer {
	return sourceSamples[:]
}

// DestinationBuffer returns the process-wide destination buffer.
func DestinationBuffer() SampleBuffer {
	return destinationSamples[:]
}

// FillSine writes one full sine cycle across buf: buf[i] = sin(2πi/N).
func FillSine(buf SampleBuffer) error {
	n := len(buf)
	if n == 0 {
		return ErrEmptyBuffer
	}
	for i := range buf {
		buf[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(n)))
	}
	return nil
}

// Verify compares dst against src and returns the index of the first
// mismatching sample, or -1 and true when they are identical.
func Verify(src, dst SampleBuffer) (int, bool) {
	if len(src) != len(dst) {
		return 0, false
	}
	for i := range src {
		if math.Float32bits(src[i]) != math.Float32bits(dst[i]) {
			return i, false
		}
	}
	return -1, true
}
