// internal/writer/types.go
package writer

import "github.com/tamzrod/panel-controller/internal/status"

// StatusWriter is the delivery-only contract for panel status.
// It receives a snapshot together with its encoded line and writes it
// verbatim. No logic, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot, line []byte) error
}

// MirrorPlan is where the status block lands on a Modbus TCP endpoint.
type MirrorPlan struct {
	Endpoint    string
	UnitID      uint8
	BaseAddress uint16
}
