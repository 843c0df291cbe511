// internal/system/restart_test.go
package system

import (
	"errors"
	"testing"
	"time"
)

type fakeRestarter struct {
	reasons []string
	err     error
}

func (f *fakeRestarter) Restart(reason string) error {
	f.reasons = append(f.reasons, reason)
	return f.err
}

func TestNew(t *testing.T) {
	if r, err := New("", nil); err != nil {
		t.Fatalf("default: %v", err)
	} else if _, ok := r.(Exit); !ok {
		t.Fatalf("default: got %T want Exit", r)
	}
	if r, err := New("reboot", nil); err != nil {
		t.Fatalf("reboot: %v", err)
	} else if _, ok := r.(Reboot); !ok {
		t.Fatalf("reboot: got %T want Reboot", r)
	}
	if _, err := New("halt", nil); err == nil {
		t.Fatalf("expected unknown method error")
	}
}

func TestRestartAfter(t *testing.T) {
	f := &fakeRestarter{err: errors.New("denied")}
	start := time.Now()

	RestartAfter(f, 20*time.Millisecond, "ota", nil)

	if time.Since(start) < 20*time.Millisecond {
		t.Fatalf("restart did not wait for the delay")
	}
	if len(f.reasons) != 1 || f.reasons[0] != "ota" {
		t.Fatalf("reasons: %v", f.reasons)
	}
}
