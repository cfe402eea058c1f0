package core

import (
	"math"
	"testing"
)

func TestFillSine(t *testing.T) {
	sizes := []int{1, 2, 4, 7, 64, BufferSize}

	for _, n := range sizes {
		buf := make(SampleBuffer, n)
		if err := FillSine(buf); err != nil {
			t.Fatalf("FillSine(%d) failed: %v", n, err)
		}
		for i := range buf {
			want := float32(math.Sin(2 * math.Pi * float64(i) / float64(n)))
			if buf[i] != want {
				t.Errorf("n=%d: buf[%d] = %v, want %v", n, i, buf[i], want)
			}
		}
	}
}

func TestFillSineQuarterPoints(t *testing.T) {
	buf := make(SampleBuffer, 4)
	FillSine(buf)

	want := []float32{0, 1, 0, -1}
	for i := range want {
		if math.Abs(float64(buf[i]-want[i])) > 1e-6 {
			t.Errorf("buf[%d] = %v, want ≈%v", i, buf[i], want[i])
		}
	}
}

func TestFillSineEmpty(t *testing.T) {
	if err := FillSine(SampleBuffer{}); err != ErrEmptyBuffer {
		t.Errorf("Expected ErrEmptyBuffer, got %v", err)
	}
}

func TestFillSineOneCycle(t *testing.T) {
	buf := make(SampleBuffer, BufferSize)
	FillSine(buf)

	// One full cycle: the samples sum to ~0 and cross zero upward only at 0.
	var sum float64
	for _, v := range buf {
		sum += float64(v)
	}
	if math.Abs(sum) > 1e-3 {
		t.Errorf("Expected samples to sum to ~0, got %v", sum)
	}
	if buf[BufferSize/4] < 0.9999 || buf[3*BufferSize/4] > -0.9999 {
		t.Errorf("Peak samples off: %v %v", buf[BufferSize/4], buf[3*BufferSize/4])
	}
}

func TestProcessBuffers(t *testing.T) {
	src, dst := SourceBuffer(), DestinationBuffer()
	if len(src) != BufferSize || len(dst) != BufferSize {
		t.Fatalf("Expected %d-sample buffers, got %d and %d", BufferSize, len(src), len(dst))
	}
	if &src[0] == &dst[0] {
		t.Error("Source and destination share storage")
	}
}

func TestVerify(t *testing.T) {
	src := SampleBuffer{0, 1, 0, -1}

	if idx, ok := Verify(src, SampleBuffer{0, 1, 0, -1}); !ok || idx != -1 {
		t.Errorf("Identical buffers reported mismatch at %d", idx)
	}
	if idx, ok := Verify(src, SampleBuffer{0, 1, 0.5, -1}); ok || idx != 2 {
		t.Errorf("Expected mismatch at 2, got %d (ok=%v)", idx, ok)
	}
	if _, ok := Verify(src, SampleBuffer{0, 1}); ok {
		t.Error("Different lengths reported equal")
	}
}
