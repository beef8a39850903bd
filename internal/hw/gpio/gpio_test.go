package gpio

import "testing"

func TestNewDriver_Mock(t *testing.T) {
	drv, err := NewDriver(true)
	if err != nil {
		t.Fatalf("NewDriver(true): %v", err)
	}
	if _, ok := drv.(*MockDriver); !ok {
		t.Errorf("NewDriver(true) = %T, want *MockDriver", drv)
	}
}

func TestMockDriver_WriteThenRead(t *testing.T) {
	drv := NewMockDriver()
	if err := drv.WritePin(27, High); err != nil {
		t.Fatalf("WritePin: %v", err)
	}
	got, err := drv.ReadPin(27)
	if err != nil {
		t.Fatalf("ReadPin: %v", err)
	}
	if got != High {
		t.Errorf("ReadPin = %v, want High", got)
	}
	if drv.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", drv.Writes())
	}
}

func TestMockDriver_PullUpIdlesHigh(t *testing.T) {
	drv := NewMockDriver()
	_ = drv.SetupPin(17, Input)
	_ = drv.SetPull(17, PullUp)

	got, _ := drv.ReadPin(17)
	if got != High {
		t.Errorf("pulled-up pin reads %v, want High", got)
	}

	drv.SetInput(17, Low)
	got, _ = drv.ReadPin(17)
	if got != Low {
		t.Errorf("pressed pin reads %v, want Low", got)
	}
}

func TestMockDriver_ZeroValueUsable(t *testing.T) {
	var drv MockDriver
	if err := drv.WritePin(4, High); err != nil {
		t.Fatalf("WritePin on zero value: %v", err)
	}
	if got, _ := drv.ReadPin(4); got != High {
		t.Errorf("ReadPin = %v, want High", got)
	}
}

func TestMockDriver_ImplementsDriver(t *testing.T) {
	var _ Driver = NewMockDriver()
}
