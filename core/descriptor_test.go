package core

import "testing"

func TestWaveformDescriptorWord(t *testing.T) {
	d := WaveformDescriptor(BufferSize)
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	w := d.Word()
	// DSTINC=2 DSTSIZE=2 SRCINC=2 SRCSIZE=2 ARBSIZE=3 XFERSIZE=1023 MODE=2
	if uint32(w) != 0xAA00FFF2 {
		t.Errorf("Word() = 0x%08X, want 0xAA00FFF2", uint32(w))
	}
	if w.Mode() != ModeAuto || w.Count() != BufferSize {
		t.Errorf("Decoded mode=%v count=%d", w.Mode(), w.Count())
	}
}

func TestDescriptorValidate(t *testing.T) {
	testCases := []struct {
		count int
		ok    bool
	}{
		{0, false},
		{1, true},
		{4, true},
		{MaxTransferCount, true},
		{MaxTransferCount + 1, false},
	}

	for _, tc := range testCases {
		err := WaveformDescriptor(tc.count).Validate()
		if (err == nil) != tc.ok {
			t.Errorf("count=%d: Validate() = %v", tc.count, err)
		}
	}
}

func TestControlWordFields(t *testing.T) {
	testCases := []struct {
		name   string
		word   ControlWord
		elem   uintptr
		srcInc uintptr
		dstInc uintptr
		arb    int
	}{
		{"bytes", Size8 | SrcInc8 | DstInc8 | Arb1, 1, 1, 1, 1},
		{"halfwords", Size16 | SrcInc16 | DstInc16 | Arb4, 2, 2, 2, 4},
		{"words", Size32 | SrcInc32 | DstInc32 | Arb8, 4, 4, 4, 8},
		{"fixed source", Size32 | SrcIncNone | DstInc32 | Arb1024, 4, 0, 4, 1024},
		{"fixed destination", Size16 | SrcInc16 | DstIncNone | Arb256, 2, 2, 0, 256},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.word.ElementBytes(); got != tc.elem {
				t.Errorf("ElementBytes() = %d, want %d", got, tc.elem)
			}
			if got := tc.word.SrcIncrement(); got != tc.srcInc {
				t.Errorf("SrcIncrement() = %d, want %d", got, tc.srcInc)
			}
			if got := tc.word.DstIncrement(); got != tc.dstInc {
				t.Errorf("DstIncrement() = %d, want %d", got, tc.dstInc)
			}
			if got := tc.word.ArbitrationSize(); got != tc.arb {
				t.Errorf("ArbitrationSize() = %d, want %d", got, tc.arb)
			}
		})
	}
}

func TestWithTransferKeepsControlFields(t *testing.T) {
	base := Size32 | SrcInc32 | DstInc32 | Arb8 | NextUseBurst | ControlWord(ModeBasic)
	w := base.WithTransfer(ModeAuto, 4)

	if w&ControlMask != base&ControlMask {
		t.Errorf("Control fields changed: 0x%08X -> 0x%08X", uint32(base), uint32(w))
	}
	if w&NextUseBurst != 0 {
		t.Error("NXTUSEBURST not cleared")
	}
	if w.Mode() != ModeAuto || w.Count() != 4 {
		t.Errorf("mode=%v count=%d", w.Mode(), w.Count())
	}

	stopped := w.WithMode(ModeStop)
	if stopped.Mode() != ModeStop || stopped.Count() != 4 {
		t.Errorf("WithMode changed more than the mode: 0x%08X", uint32(stopped))
	}
}

func TestModeString(t *testing.T) {
	if ModeAuto.String() != "auto" || ModeStop.String() != "stop" {
		t.Errorf("Unexpected names: %s %s", ModeAuto, ModeStop)
	}
	if Mode(5).String() != "mode(5)" {
		t.Errorf("Unknown mode rendered as %q", Mode(5).String())
	}
}
