// Package volume maps FatFs style logical drive names ("0:", "1:", or a
// slot's own name) to SD card slots of a hardware registry.
package volume

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	hw "lautenbacher.net/sdhw/hwconfig"
)

var ErrNoSuchDrive = errors.New("no such logical drive")

// Drive is a logical drive backed by one SD card slot.
type Drive struct {
	Number int
	Slot   *hw.SdCardSlot
}

// Mapper resolves logical drive names against a registry.
type Mapper struct {
	reg *hw.Registry
}

func NewMapper(reg *hw.Registry) *Mapper {
	return &Mapper{reg: reg}
}

// Drives lists one drive per slot, numbered in table order.
func (m *Mapper) Drives() []Drive {
	drives := make([]Drive, m.reg.CountSdSlots())
	for i := range drives {
		drives[i] = Drive{Number: i, Slot: m.reg.SdSlot(i)}
	}
	return drives
}

// Drive resolves a drive id. The id is the slot name, or the drive number
// with or without the trailing colon. A slot can only be named "N:" when it
// is drive N, so names never shadow drive numbers.
func (m *Mapper) Drive(id string) (Drive, error) {
	for i := 0; i < m.reg.CountSdSlots(); i++ {
		if s := m.reg.SdSlot(i); s.Name == id {
			return Drive{Number: i, Slot: s}, nil
		}
	}
	n, err := strconv.Atoi(strings.TrimSuffix(id, ":"))
	if err != nil {
		return Drive{}, fmt.Errorf("%w: %q", ErrNoSuchDrive, id)
	}
	s := m.reg.SdSlot(n)
	if s == nil {
		return Drive{}, fmt.Errorf("%w: %q (have %d)", ErrNoSuchDrive, id, m.reg.CountSdSlots())
	}
	return Drive{Number: n, Slot: s}, nil
}

// Split resolves the drive prefix of path and returns the drive and the
// path inside it. A path without a drive prefix lives on drive 0, as with
// FatFs' default volume.
func (m *Mapper) Split(path string) (Drive, string, error) {
	id, rest, found := strings.Cut(path, ":")
	if !found || strings.Contains(id, "/") {
		d, err := m.Drive("0:")
		return d, path, err
	}
	d, err := m.Drive(id + ":")
	if err != nil {
		// Slots may be named without the colon.
		if d, err = m.Drive(id); err != nil {
			return Drive{}, "", err
		}
	}
	if rest == "" {
		rest = "/"
	}
	return d, rest, nil
}
