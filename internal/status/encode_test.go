// internal/status/encode_test.go
package status

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func sample() Snapshot {
	return Snapshot{
		ModeSwitch: [2]int{1, 0},
		Indicators: [3]int{0, 1, 0},
		SlotSwitch: [2]int{0, 1},
		Toggle:     0,
		Momentary:  1,
		Analog:     [2]int{2048, 17},
		Joysticks: [4][]int{
			{1, 0, 0, 1},
			{0, 0, 0, 0},
			{1, 1, 1, 1},
			{0, 1},
		},
		Mode:   ModeManual,
		Stored: [3]int{0, 2048, 0},
	}
}

func mustEncode(t *testing.T, s Snapshot) []byte {
	t.Helper()
	b, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func TestEncode_FieldOrderLocked(t *testing.T) {
	got := string(mustEncode(t, sample()))
	want := `{"A1_1":1,"A1_2":0,"A2":0,"A3":1,"A4":0,` +
		`"B1_1":0,"B1_2":1,"B4":0,"B5":1,"B2_pot":2048,"B3_pot":17,` +
		`"C1":[1,0,0,1],"C2":[0,0,0,0],"C3":[1,1,1,1],"C4":[0,1]}`
	if got != want {
		t.Fatalf("payload mismatch:\n got=%s\nwant=%s", got, want)
	}
	if strings.Contains(got, "\n") {
		t.Fatalf("payload must be a single line")
	}
}

func TestEncode_StableAcrossInvocations(t *testing.T) {
	s := sample()
	first := mustEncode(t, s)
	for i := 0; i < 10; i++ {
		if !bytes.Equal(first, mustEncode(t, s)) {
			t.Fatalf("encode not stable on iteration %d", i)
		}
	}
}

func TestEncode_NormalizesShapes(t *testing.T) {
	s := Snapshot{
		ModeSwitch: [2]int{7, 0},
		Analog:     [2]int{-3, 99999},
		Joysticks:  [4][]int{{1}, nil, {1, 1, 1, 1, 1, 1}, {2, 0, 1}},
	}
	got, err := Decode(mustEncode(t, s))
	if err != nil {
		t.Fatalf("decode of normalized payload failed: %v", err)
	}
	if got.ModeSwitch[0] != 1 {
		t.Fatalf("digital not normalized: %d", got.ModeSwitch[0])
	}
	if got.Analog[0] != 0 || got.Analog[1] != AnalogMax {
		t.Fatalf("analog not clamped: %v", got.Analog)
	}
	for j, w := range JoystickWidths {
		if len(got.Joysticks[j]) != w {
			t.Fatalf("C%d width: got=%d want=%d", j+1, len(got.Joysticks[j]), w)
		}
	}
}

func TestDecode_RoundTripRanges(t *testing.T) {
	got, err := Decode(mustEncode(t, sample()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i, v := range got.Analog {
		if v < 0 || v > AnalogMax {
			t.Fatalf("analog %d out of range: %d", i, v)
		}
	}
	digital := []int{
		got.ModeSwitch[0], got.ModeSwitch[1],
		got.Indicators[0], got.Indicators[1], got.Indicators[2],
		got.SlotSwitch[0], got.SlotSwitch[1], got.Toggle, got.Momentary,
	}
	for _, j := range got.Joysticks {
		digital = append(digital, j...)
	}
	for i, v := range digital {
		if v != 0 && v != 1 {
			t.Fatalf("digital field %d not 0/1: %d", i, v)
		}
	}
	if got.Mode != ModeManual {
		t.Fatalf("mode derived from switch: got=%s want=MANUAL", got.Mode)
	}
}

func TestDecode_Rejects(t *testing.T) {
	good := string(mustEncode(t, sample()))
	cases := map[string]string{
		"not json":      "hello",
		"missing field": strings.Replace(good, `"B4":0,`, "", 1),
		"bad digital":   strings.Replace(good, `"B5":1`, `"B5":2`, 1),
		"bad analog":    strings.Replace(good, `"B2_pot":2048`, `"B2_pot":4096`, 1),
		"short array":   strings.Replace(good, `"C4":[0,1]`, `"C4":[0]`, 1),
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(line))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestEncodeCBOR_SameKeys(t *testing.T) {
	b, err := EncodeCBOR(sample())
	if err != nil {
		t.Fatalf("cbor: %v", err)
	}
	var m map[string]interface{}
	if err := cbor.Unmarshal(b, &m); err != nil {
		t.Fatalf("cbor decode: %v", err)
	}
	for _, k := range []string{"A1_1", "A3", "B2_pot", "C4"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("cbor map missing key %s", k)
		}
	}
	if v, _ := m["B2_pot"].(uint64); v != 2048 {
		t.Fatalf("B2_pot: got=%v want=2048", m["B2_pot"])
	}
}

func TestEncodeRegisters_Layout(t *testing.T) {
	regs := EncodeRegisters(sample())
	if len(regs) != SlotsPerBlock {
		t.Fatalf("block size: got=%d want=%d", len(regs), SlotsPerBlock)
	}
	if regs[SlotMode] != uint16(ModeManual) {
		t.Fatalf("mode slot: got=%d", regs[SlotMode])
	}
	if regs[SlotIndicators+1] != 1 || regs[SlotIndicators] != 0 {
		t.Fatalf("indicator slots wrong: %v", regs[SlotIndicators:SlotIndicators+3])
	}
	if regs[SlotAnalog] != 2048 || regs[SlotStored+1] != 2048 {
		t.Fatalf("analog/stored slots wrong")
	}
	if regs[SlotJoysticks] != 0b1001 || regs[SlotJoysticks+2] != 0b1111 || regs[SlotJoysticks+3] != 0b10 {
		t.Fatalf("joystick masks wrong: %v", regs[SlotJoysticks:SlotJoysticks+4])
	}
	for i := SlotReservedStart; i <= SlotReservedEnd; i++ {
		if regs[i] != 0 {
			t.Fatalf("reserved slot %d not zero", i)
		}
	}
}

func TestModeFromSwitch(t *testing.T) {
	cases := []struct {
		m1, m2 int
		want   Mode
		ind    int
	}{
		{1, 1, ModeAuto, 1},
		{1, 0, ModeManual, 2},
		{0, 1, ModeJoystick, 3},
		{0, 0, ModeOff, 0},
	}
	for _, tt := range cases {
		got := ModeFromSwitch(tt.m1, tt.m2)
		if got != tt.want || got.Indicator() != tt.ind {
			t.Fatalf("(%d,%d): got=%s/%d want=%s/%d", tt.m1, tt.m2, got, got.Indicator(), tt.want, tt.ind)
		}
	}
}
