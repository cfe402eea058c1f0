package core

import "testing"

func TestNewControlTableAligned(t *testing.T) {
	for i := 0; i < 8; i++ {
		table := NewControlTable()
		if !table.Aligned() {
			t.Fatalf("Table %d at 0x%X is not 1024-byte aligned", i, table.Base())
		}
	}
}

func TestControlTableEntryLayout(t *testing.T) {
	table := NewControlTable()
	entry := ControlEntry{SrcEnd: 0x20000FFC, DstEnd: 0x20001FFC, Control: WaveformDescriptor(BufferSize).Word()}

	table.SetEntry(SoftwareChannel.Primary(), entry)

	// Channel 30 primary structure starts at 30*16 = 0x1E0
	off := 0x1E0
	if table[off] != 0xFC || table[off+3] != 0x20 {
		t.Errorf("SRCENDP not little-endian at 0x%X: % X", off, table[off:off+4])
	}
	if got := table.Entry(SoftwareChannel.Primary()); got != entry {
		t.Errorf("Entry round trip: got %+v, want %+v", got, entry)
	}
	if got := table.Entry(SoftwareChannel.Alternate()); got != (ControlEntry{}) {
		t.Errorf("Alternate structure written: %+v", got)
	}
}

func TestControlTableAlternateOffset(t *testing.T) {
	table := NewControlTable()
	table.SetControlWord(SoftwareChannel.Alternate(), ControlWord(0x12345678))

	// Alternate table starts at 0x200; channel 30 control word at +0x1E8
	off := 0x200 + 0x1E0 + 8
	if table[off] != 0x78 || table[off+3] != 0x12 {
		t.Errorf("Alternate control word misplaced: % X", table[off:off+4])
	}
	if table.ControlWord(SoftwareChannel.Alternate()) != 0x12345678 {
		t.Error("ControlWord did not read back the alternate structure")
	}
	if table.ControlWord(SoftwareChannel.Primary()) != 0 {
		t.Error("Primary structure modified")
	}
}

func TestChannelSelect(t *testing.T) {
	p := SoftwareChannel.Primary()
	a := SoftwareChannel.Alternate()

	if p.Channel() != SoftwareChannel || a.Channel() != SoftwareChannel {
		t.Errorf("Channel() lost the channel: %d %d", p.Channel(), a.Channel())
	}
	if p.IsAlternate() || !a.IsAlternate() {
		t.Errorf("IsAlternate wrong: primary=%v alternate=%v", p.IsAlternate(), a.IsAlternate())
	}
}

func TestControlWordPtr(t *testing.T) {
	table := NewControlTable()
	sel := SoftwareChannel.Primary()
	table.SetControlWord(sel, WaveformDescriptor(16).Word())

	if got := ControlWord(*table.ControlWordPtr(sel)); got.Mode() != ModeAuto || got.Count() != 16 {
		t.Errorf("Pointer read %#x, want auto mode with 16 items", uint32(got))
	}
}
