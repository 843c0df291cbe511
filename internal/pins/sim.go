// internal/pins/sim.go
package pins

import (
	"errors"
	"sync"
)

// WriteEvent records one output write on the simulated board.
type WriteEvent struct {
	Line  int
	Level Level
}

// Sim is an in-memory board. Inputs and analog channels are set by the
// test or the operator; outputs are latched and can be read back.
type Sim struct {
	mu      sync.Mutex
	levels  map[int]Level
	analog  map[int]int
	dirs    map[int]Direction
	record  bool
	writes  []WriteEvent
	onWrite func(WriteEvent)
}

// NewSim returns a board that keeps no write history. It is safe to run
// for the lifetime of the process.
func NewSim() *Sim {
	return &Sim{
		levels: map[int]Level{},
		analog: map[int]int{},
		dirs:   map[int]Direction{},
	}
}

// NewRecordingSim returns a board that logs every output write for
// Writes. The log grows until ResetWrites.
func NewRecordingSim() *Sim {
	s := NewSim()
	s.record = true
	return s
}

func (s *Sim) Configure(pins []LogicalPin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pins {
		if prev, ok := s.dirs[p.Line]; ok && prev != p.Direction {
			return errors.New("sim: line " + p.Name + " configured twice with different directions")
		}
		s.dirs[p.Line] = p.Direction
		// Pull-ups idle high until something drives the line.
		if p.Direction == Input && p.Pull == PullUp {
			if _, set := s.levels[p.Line]; !set {
				s.levels[p.Line] = High
			}
		}
	}
	return nil
}

func (s *Sim) Read(p LogicalPin) Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[p.Line]
}

func (s *Sim) Write(p LogicalPin, l Level) {
	s.mu.Lock()
	s.levels[p.Line] = l
	ev := WriteEvent{Line: p.Line, Level: l}
	if s.record {
		s.writes = append(s.writes, ev)
	}
	hook := s.onWrite
	s.mu.Unlock()

	if hook != nil {
		hook(ev)
	}
}

func (s *Sim) Sample(p LogicalPin) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ClampAnalog(s.analog[p.Line])
}

func (s *Sim) Close() error { return nil }

// Set drives an input line.
func (s *Sim) Set(line int, l Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[line] = l
}

// SetAnalog sets the raw value of an analog channel.
func (s *Sim) SetAnalog(line int, v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analog[line] = v
}

// Writes returns a copy of every output write since the last reset.
// It is always empty unless the board came from NewRecordingSim.
func (s *Sim) Writes() []WriteEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WriteEvent, len(s.writes))
	copy(out, s.writes)
	return out
}

// ResetWrites clears the write log.
func (s *Sim) ResetWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = nil
}

// OnWrite installs a hook called after every output write.
func (s *Sim) OnWrite(fn func(WriteEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWrite = fn
}
