// internal/pins/rpio_test.go
package pins

import "testing"

func TestCheckSPI0_RejectsBusLines(t *testing.T) {
	adc := LogicalPin{Name: "B2", Line: 0, Direction: Analog}

	for _, line := range []int{8, 9, 10, 11} {
		pins := []LogicalPin{adc, {Name: "X", Line: line, Direction: Input}}
		if err := CheckSPI0(pins, 0); err == nil {
			t.Fatalf("line %d with cs0: expected conflict", line)
		}
	}
}

func TestCheckSPI0_UnusedChipEnableIsFree(t *testing.T) {
	adc := LogicalPin{Name: "B2", Line: 0, Direction: Analog}
	ce1 := LogicalPin{Name: "C2_4", Line: 7, Direction: Input}
	ce0 := LogicalPin{Name: "C2_4", Line: 8, Direction: Input}

	if err := CheckSPI0([]LogicalPin{adc, ce1}, 0); err != nil {
		t.Fatalf("ce1 with cs0: %v", err)
	}
	if err := CheckSPI0([]LogicalPin{adc, ce1}, 1); err == nil {
		t.Fatalf("ce1 with cs1: expected conflict")
	}
	if err := CheckSPI0([]LogicalPin{adc, ce0}, 1); err != nil {
		t.Fatalf("ce0 with cs1: %v", err)
	}
}

func TestCheckSPI0_DigitalOnly(t *testing.T) {
	pins := []LogicalPin{
		{Name: "a", Line: 9, Direction: Input},
		{Name: "b", Line: 10, Direction: Output},
	}
	if err := CheckSPI0(pins, 0); err != nil {
		t.Fatalf("no analog lines, spi unused: %v", err)
	}
}
