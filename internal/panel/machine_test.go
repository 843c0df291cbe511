// internal/panel/machine_test.go
package panel

import (
	"reflect"
	"testing"
	"time"

	"github.com/tamzrod/panel-controller/internal/pins"
	"github.com/tamzrod/panel-controller/internal/status"
)

type rig struct {
	sim    *pins.Sim
	m      *Machine
	l      Layout
	sleeps []time.Duration
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{sim: pins.NewRecordingSim(), l: DefaultLayout()}
	m, err := New(r.sim, r.l, Options{
		Sleep: func(d time.Duration) { r.sleeps = append(r.sleeps, d) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.m = m

	// Everything low unless a test drives it.
	for _, p := range r.l.Pins() {
		if p.Direction == pins.Input {
			r.sim.Set(p.Line, pins.Low)
		}
	}
	return r
}

func (r *rig) set(p pins.LogicalPin, v int) {
	r.sim.Set(p.Line, pins.Level(v))
}

func (r *rig) indicators() [3]int {
	var out [3]int
	for i, p := range r.l.Indicators {
		out[i] = int(r.sim.Read(p))
	}
	return out
}

func TestEvaluate_IndicatorExclusivity(t *testing.T) {
	cases := []struct {
		m1, m2 int
		want   [3]int
		mode   status.Mode
	}{
		{1, 1, [3]int{1, 0, 0}, status.ModeAuto},
		{1, 0, [3]int{0, 1, 0}, status.ModeManual},
		{0, 1, [3]int{0, 0, 1}, status.ModeJoystick},
		{0, 0, [3]int{0, 0, 0}, status.ModeOff},
	}

	for _, tt := range cases {
		r := newRig(t)
		// Start from a dirty state: every indicator high.
		for _, p := range r.l.Indicators {
			r.sim.Write(p, pins.High)
		}
		r.set(r.l.ModeSwitch[0], tt.m1)
		r.set(r.l.ModeSwitch[1], tt.m2)

		s := r.m.Evaluate()

		if got := r.indicators(); got != tt.want {
			t.Fatalf("mode (%d,%d): indicators got=%v want=%v", tt.m1, tt.m2, got, tt.want)
		}
		if s.Indicators != tt.want {
			t.Fatalf("mode (%d,%d): snapshot indicators got=%v want=%v", tt.m1, tt.m2, s.Indicators, tt.want)
		}
		if s.Mode != tt.mode {
			t.Fatalf("mode (%d,%d): got=%s want=%s", tt.m1, tt.m2, s.Mode, tt.mode)
		}
	}
}

func TestEvaluate_IndicatorWriteOrder(t *testing.T) {
	cases := []struct {
		m1, m2 int
		lit    int
	}{
		{1, 1, 0},
		{1, 0, 1},
		{0, 1, 2},
		{0, 0, -1},
	}

	for _, tt := range cases {
		r := newRig(t)
		r.set(r.l.ModeSwitch[0], tt.m1)
		r.set(r.l.ModeSwitch[1], tt.m2)
		r.sim.ResetWrites()

		r.m.Evaluate()

		isIndicator := map[int]bool{}
		for _, p := range r.l.Indicators {
			isIndicator[p.Line] = true
		}
		var got []pins.WriteEvent
		for _, w := range r.sim.Writes() {
			if isIndicator[w.Line] {
				got = append(got, w)
			}
		}

		want := []pins.WriteEvent{
			{Line: r.l.Indicators[0].Line, Level: pins.Low},
			{Line: r.l.Indicators[1].Line, Level: pins.Low},
			{Line: r.l.Indicators[2].Line, Level: pins.Low},
		}
		if tt.lit >= 0 {
			want = append(want, pins.WriteEvent{Line: r.l.Indicators[tt.lit].Line, Level: pins.High})
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("mode (%d,%d): indicator writes got=%+v want=%+v", tt.m1, tt.m2, got, want)
		}
	}
}

func TestEvaluate_AutoIgnoresOtherPins(t *testing.T) {
	r := newRig(t)
	r.set(r.l.ModeSwitch[0], 1)
	r.set(r.l.ModeSwitch[1], 1)
	r.set(r.l.Momentary, 1)
	r.set(r.l.SlotSwitch[1], 1)
	r.set(r.l.ChannelToggle, 1)
	r.sim.SetAnalog(r.l.Analog[1].Line, 1234)

	s := r.m.Evaluate()

	if s.Indicators != [3]int{1, 0, 0} {
		t.Fatalf("indicators: got=%v", s.Indicators)
	}
	if s.Stored != [3]int{} {
		t.Fatalf("stored must not change outside MANUAL: %v", s.Stored)
	}
	if len(r.sleeps) != 0 {
		t.Fatalf("no feedback pulse expected outside MANUAL")
	}
}

func TestEvaluate_ManualCaptureAndPulse(t *testing.T) {
	r := newRig(t)
	r.set(r.l.ModeSwitch[0], 1)
	r.set(r.l.ModeSwitch[1], 0)
	r.set(r.l.SlotSwitch[0], 0)
	r.set(r.l.SlotSwitch[1], 1)
	r.set(r.l.ChannelToggle, 1)
	r.set(r.l.Momentary, 1)
	r.sim.SetAnalog(r.l.Analog[1].Line, 2048)
	r.sim.SetAnalog(r.l.Analog[0].Line, 7)
	r.sim.ResetWrites()

	s := r.m.Evaluate()

	if s.Stored != [3]int{0, 2048, 0} {
		t.Fatalf("stored: got=%v want=[0 2048 0]", s.Stored)
	}
	if r.m.Stored() != s.Stored {
		t.Fatalf("accessor disagrees with snapshot")
	}

	var fb []pins.Level
	for _, w := range r.sim.Writes() {
		if w.Line == r.l.Feedback.Line {
			fb = append(fb, w.Level)
		}
	}
	if !reflect.DeepEqual(fb, []pins.Level{pins.High, pins.Low}) {
		t.Fatalf("feedback writes: got=%v want=[high low]", fb)
	}
	if !reflect.DeepEqual(r.sleeps, []time.Duration{DefaultPulse}) {
		t.Fatalf("pulse: got=%v", r.sleeps)
	}
}

func TestEvaluate_ManualSlotAndChannelSelection(t *testing.T) {
	cases := []struct {
		b1, b2, toggle int
		slot           int
		value          int
	}{
		{0, 0, 0, 0, 100},
		{0, 1, 0, 1, 100},
		{1, 0, 1, 2, 200},
		{1, 1, 1, 0, 200},
	}

	for _, tt := range cases {
		r := newRig(t)
		r.set(r.l.ModeSwitch[0], 1)
		r.set(r.l.SlotSwitch[0], tt.b1)
		r.set(r.l.SlotSwitch[1], tt.b2)
		r.set(r.l.ChannelToggle, tt.toggle)
		r.set(r.l.Momentary, 1)
		r.sim.SetAnalog(r.l.Analog[0].Line, 100)
		r.sim.SetAnalog(r.l.Analog[1].Line, 200)

		s := r.m.Evaluate()

		var want [3]int
		want[tt.slot] = tt.value
		if s.Stored != want {
			t.Fatalf("slot (%d,%d) toggle=%d: got=%v want=%v", tt.b1, tt.b2, tt.toggle, s.Stored, want)
		}
	}
}

func TestEvaluate_ManualWithoutPressKeepsStored(t *testing.T) {
	r := newRig(t)
	r.set(r.l.ModeSwitch[0], 1)
	r.set(r.l.Momentary, 1)
	r.sim.SetAnalog(r.l.Analog[0].Line, 555)
	r.m.Evaluate()

	r.set(r.l.Momentary, 0)
	r.sim.SetAnalog(r.l.Analog[0].Line, 999)
	r.sleeps = nil

	s := r.m.Evaluate()
	if s.Stored != [3]int{555, 0, 0} {
		t.Fatalf("stored: got=%v", s.Stored)
	}
	if len(r.sleeps) != 0 {
		t.Fatalf("unexpected pulse without press")
	}
}

func TestEvaluate_HeldButtonRewritesEachCycle(t *testing.T) {
	r := newRig(t)
	r.set(r.l.ModeSwitch[0], 1)
	r.set(r.l.Momentary, 1)

	for _, v := range []int{10, 20, 30} {
		r.sim.SetAnalog(r.l.Analog[0].Line, v)
		s := r.m.Evaluate()
		if s.Stored[0] != v {
			t.Fatalf("held press: got=%d want=%d", s.Stored[0], v)
		}
	}
	if len(r.sleeps) != 3 {
		t.Fatalf("pulses: got=%d want=3", len(r.sleeps))
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	build := func() *rig {
		r := newRig(t)
		r.set(r.l.ModeSwitch[0], 1)
		r.set(r.l.SlotSwitch[0], 1)
		r.set(r.l.Momentary, 1)
		r.set(r.l.Joysticks[0][2], 1)
		r.set(r.l.Joysticks[3][1], 1)
		r.sim.SetAnalog(r.l.Analog[0].Line, 3000)
		r.sim.SetAnalog(r.l.Analog[1].Line, 12)
		return r
	}

	a := build().m.Evaluate()
	b := build().m.Evaluate()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("evaluate not deterministic:\n a=%+v\n b=%+v", a, b)
	}
	if !reflect.DeepEqual(a.Joysticks[0], []int{0, 0, 1, 0}) || !reflect.DeepEqual(a.Joysticks[3], []int{0, 1}) {
		t.Fatalf("joysticks not exposed verbatim: %v", a.Joysticks)
	}
}

func TestSample_WritesNothing(t *testing.T) {
	r := newRig(t)
	r.set(r.l.ModeSwitch[0], 1)
	r.set(r.l.Momentary, 1)
	r.sim.SetAnalog(r.l.Analog[0].Line, 4000)
	r.sim.ResetWrites()

	s := r.m.Sample()

	if n := len(r.sim.Writes()); n != 0 {
		t.Fatalf("sample wrote %d times", n)
	}
	if s.Stored != [3]int{} {
		t.Fatalf("sample captured a value: %v", s.Stored)
	}
	if s.Mode != status.ModeManual || s.Analog[0] != 4000 {
		t.Fatalf("sample: mode=%s analog=%v", s.Mode, s.Analog)
	}
}

func TestDecodeSlot(t *testing.T) {
	want := map[[2]int]int{{0, 0}: 0, {0, 1}: 1, {1, 0}: 2, {1, 1}: 0}
	for in, slot := range want {
		if got := DecodeSlot(in[0], in[1]); got != slot {
			t.Fatalf("DecodeSlot%v: got=%d want=%d", in, got, slot)
		}
	}
}

func TestLayout_Validate(t *testing.T) {
	if err := DefaultLayout().Validate(); err != nil {
		t.Fatalf("default layout: %v", err)
	}

	dup := DefaultLayout()
	dup.Momentary.Line = dup.ChannelToggle.Line
	if err := dup.Validate(); err == nil {
		t.Fatalf("expected duplicate line error")
	}

	dir := DefaultLayout()
	dir.Feedback.Direction = pins.Input
	if err := dir.Validate(); err == nil {
		t.Fatalf("expected direction error")
	}

	width := DefaultLayout()
	width.Joysticks[3] = width.Joysticks[3][:1]
	if err := width.Validate(); err == nil {
		t.Fatalf("expected joystick width error")
	}
}

func TestDefaultLayout_FitsHeaderWithSPI(t *testing.T) {
	l := DefaultLayout()
	for _, p := range l.Pins() {
		if p.Direction == pins.Analog {
			continue
		}
		if p.Line < 0 || p.Line > pins.HeaderMaxLine {
			t.Fatalf("%s: not on the 40-pin header", p)
		}
	}
	if err := pins.CheckSPI0(l.Pins(), 0); err != nil {
		t.Fatalf("default layout with spi cs0: %v", err)
	}
}

func TestLayout_Override(t *testing.T) {
	def := DefaultLayout()
	got, err := def.Override(
		map[string]int{"B5": 40, "C4_2": 41},
		map[string]pins.Pull{"B5": pins.PullDown},
	)
	if err != nil {
		t.Fatalf("Override: %v", err)
	}
	if got.Momentary.Line != 40 || got.Momentary.Pull != pins.PullDown {
		t.Fatalf("B5: %+v", got.Momentary)
	}
	if got.Joysticks[3][1].Line != 41 {
		t.Fatalf("C4_2: %+v", got.Joysticks[3][1])
	}
	if def.Joysticks[3][1].Line != 15 {
		t.Fatalf("override mutated the source layout")
	}

	if _, err := def.Override(map[string]int{"Z9": 1}, nil); err == nil {
		t.Fatalf("expected unknown pin error")
	}
	if _, err := def.Override(nil, map[string]pins.Pull{"A2": pins.PullUp}); err == nil {
		t.Fatalf("expected pull on output error")
	}
}
