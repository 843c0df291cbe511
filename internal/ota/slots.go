// internal/ota/slots.go
package ota

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Slot names an image slot.
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

// Other returns the opposite slot.
func (s Slot) Other() Slot {
	if s == SlotB {
		return SlotA
	}
	return SlotB
}

const bootFile = "boot"

// SlotStore keeps two firmware images and a boot pointer in a directory:
//
//	slot-a.bin
//	slot-b.bin
//	boot          "a" or "b"
//
// The boot pointer is only ever replaced by rename, so a reader sees
// either the old or the new slot.
type SlotStore struct {
	dir string
}

func OpenSlotStore(dir string) (*SlotStore, error) {
	if dir == "" {
		return nil, errors.New("ota: empty slot directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ota: slot directory: %w", err)
	}
	return &SlotStore{dir: dir}, nil
}

// Path returns the image path of a slot.
func (s *SlotStore) Path(slot Slot) string {
	return filepath.Join(s.dir, "slot-"+string(slot)+".bin")
}

func (s *SlotStore) partialPath(slot Slot) string {
	return s.Path(slot) + ".partial"
}

// Active returns the slot the boot pointer names. A missing pointer
// means slot A.
func (s *SlotStore) Active() (Slot, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, bootFile))
	if errors.Is(err, os.ErrNotExist) {
		return SlotA, nil
	}
	if err != nil {
		return "", fmt.Errorf("ota: read boot pointer: %w", err)
	}
	switch Slot(bytes.TrimSpace(b)) {
	case SlotA:
		return SlotA, nil
	case SlotB:
		return SlotB, nil
	default:
		return "", fmt.Errorf("ota: corrupt boot pointer %q", b)
	}
}

// Inactive returns the slot an update should be written to.
func (s *SlotStore) Inactive() (Slot, error) {
	a, err := s.Active()
	if err != nil {
		return "", err
	}
	return a.Other(), nil
}

// Create opens a fresh partial file for slot.
func (s *SlotStore) Create(slot Slot) (*os.File, error) {
	f, err := os.OpenFile(s.partialPath(slot), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ota: create partial image: %w", err)
	}
	return f, nil
}

// Discard removes a partial image. Missing files are ignored.
func (s *SlotStore) Discard(slot Slot) {
	_ = os.Remove(s.partialPath(slot))
}

// Commit moves a completed partial image into place.
func (s *SlotStore) Commit(slot Slot) error {
	if err := os.Rename(s.partialPath(slot), s.Path(slot)); err != nil {
		return fmt.Errorf("ota: commit image: %w", err)
	}
	return s.syncDir()
}

// MarkBootable points the boot pointer at slot.
func (s *SlotStore) MarkBootable(slot Slot) error {
	if _, err := os.Stat(s.Path(slot)); err != nil {
		return fmt.Errorf("ota: mark bootable: %w", err)
	}

	tmp := filepath.Join(s.dir, bootFile+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ota: boot pointer: %w", err)
	}
	if _, err := f.WriteString(string(slot) + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("ota: boot pointer: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("ota: boot pointer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("ota: boot pointer: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, bootFile)); err != nil {
		return fmt.Errorf("ota: boot pointer: %w", err)
	}
	return s.syncDir()
}

func (s *SlotStore) syncDir() error {
	d, err := os.Open(s.dir)
	if err != nil {
		return fmt.Errorf("ota: sync dir: %w", err)
	}
	defer d.Close()
	// Some filesystems refuse fsync on directories; the rename itself
	// has already happened.
	_ = d.Sync()
	return nil
}
