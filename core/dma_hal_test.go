package core

import "testing"

func TestMustDMAPanicsWithoutDriver(t *testing.T) {
	SetDMADriver(nil)
	defer func() {
		if recover() == nil {
			t.Error("Expected panic with no driver configured")
		}
	}()
	MustDMA()
}

func TestMustDMAReturnsDriver(t *testing.T) {
	drv := newMockDMA()
	SetDMADriver(drv)
	defer SetDMADriver(nil)

	if MustDMA() != drv {
		t.Error("MustDMA returned a different driver")
	}
}

func TestUtoa(t *testing.T) {
	for _, tc := range []struct {
		in   uint32
		want string
	}{{0, "0"}, {7, "7"}, {1024, "1024"}, {4294967295, "4294967295"}} {
		if got := utoa(tc.in); got != tc.want {
			t.Errorf("utoa(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
