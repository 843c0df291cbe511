// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/panel-controller/internal/status"
)

// registerClient is the exact contract the mirror uses.
type registerClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// MirrorWriter copies the status block into holding registers.
// The first write, and the first write after any failure, re-asserts
// the full block; otherwise only changed runs of registers are written.
type MirrorWriter struct {
	plan MirrorPlan
	cli  registerClient

	needFull bool
	last     []uint16
}

func NewMirrorWriter(plan MirrorPlan, cli registerClient) *MirrorWriter {
	return &MirrorWriter{
		plan:     plan,
		cli:      cli,
		needFull: true,
	}
}

// WriteStatus ignores the encoded line; the block layout is fixed.
func (mw *MirrorWriter) WriteStatus(s status.Snapshot, _ []byte) error {
	if mw == nil || mw.cli == nil {
		return errors.New("mirror writer: disabled")
	}

	regs := status.EncodeRegisters(s)

	// ------------------------------------------------------------
	// Full block write (re-assert)
	// ------------------------------------------------------------
	if mw.needFull {
		if err := mw.cli.WriteRegisters(mw.plan.UnitID, mw.plan.BaseAddress, regs); err != nil {
			return fmt.Errorf("mirror writer: full block write failed: %w", err)
		}
		mw.needFull = false
		mw.last = regs
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: one write per changed run
	// ------------------------------------------------------------
	var errs []string
	for _, r := range changedRuns(mw.last, regs) {
		addr := mw.plan.BaseAddress + uint16(r.start)
		if err := mw.cli.WriteRegisters(mw.plan.UnitID, addr, regs[r.start:r.end]); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", r.start, r.end-1, err))
			continue
		}
		copy(mw.last[r.start:r.end], regs[r.start:r.end])
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next call.
		mw.needFull = true
		return errors.New("mirror writer: " + strings.Join(errs, " | "))
	}
	return nil
}

type run struct{ start, end int }

// changedRuns returns maximal [start,end) ranges where a and b differ.
func changedRuns(a, b []uint16) []run {
	var out []run
	start := -1
	for i := range b {
		diff := i >= len(a) || a[i] != b[i]
		switch {
		case diff && start < 0:
			start = i
		case !diff && start >= 0:
			out = append(out, run{start, i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, run{start, len(b)})
	}
	return out
}
