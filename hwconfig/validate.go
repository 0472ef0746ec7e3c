package hwconfig

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

func inRange[T constraints.Integer](v, lo, hi T) bool {
	return v >= lo && v < hi
}

// pinUse records which role claimed a GPIO first.
type pinUse map[Pin]string

func (u pinUse) claim(p Pin, role string) error {
	if prev, ok := u[p]; ok {
		return fmt.Errorf("GPIO %d for %s already used by %s: %w", p, role, prev, ErrPinConflict)
	}
	u[p] = role
	return nil
}

// driveNumber returns N for a FatFs style drive name "N:".
func driveNumber(name string) (int, bool) {
	digits, ok := strings.CutSuffix(name, ":")
	if !ok || digits == "" || strings.Trim(digits, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	return n, err == nil
}

func (r *Registry) checkPin(p Pin, role string) error {
	if !inRange(int(p), 0, r.gpioCount) {
		return fmt.Errorf("%s: GPIO %d must be between 0 and %d: %w", role, p, r.gpioCount-1, ErrInvalidPin)
	}
	return nil
}

// validate checks the tables and the references between them. It returns
// the first violation found.
func (r *Registry) validate() error {
	if r.gpioCount <= 0 {
		return fmt.Errorf("GPIO count %d must be positive: %w", r.gpioCount, ErrInvalidPin)
	}
	if len(r.slots) == 0 {
		return ErrEmpty
	}

	used := make(pinUse)
	peripherals := make(map[string]int, len(r.buses))
	dmaOwner := make(map[uint8]int)

	for i, b := range r.buses {
		if b.Peripheral == "" {
			return fmt.Errorf("spi bus %d: peripheral must not be empty: %w", i, ErrMissingName)
		}
		if prev, ok := peripherals[b.Peripheral]; ok {
			return fmt.Errorf("spi bus %d: peripheral %q already used by spi bus %d: %w", i, b.Peripheral, prev, ErrDuplicate)
		}
		peripherals[b.Peripheral] = i

		lines := []struct {
			name string
			pin  Pin
		}{{"MISO", b.MISO}, {"MOSI", b.MOSI}, {"SCK", b.SCK}}
		for _, l := range lines {
			role := fmt.Sprintf("spi bus %d %s", i, l.name)
			if err := r.checkPin(l.pin, role); err != nil {
				return err
			}
			if err := used.claim(l.pin, role); err != nil {
				return err
			}
		}

		if !b.Mode.Valid() {
			return fmt.Errorf("spi bus %d: mode %d must be between 0 and 3: %w", i, b.Mode, ErrInvalidMode)
		}
		if b.Drive != nil {
			if !b.Drive.MOSI.Valid() || !b.Drive.SCK.Valid() {
				return fmt.Errorf("spi bus %d: %w", i, ErrInvalidDriveStrength)
			}
		}
		if b.DMA != nil {
			if !inRange(b.DMA.TX, 0, DMAChannels) || !inRange(b.DMA.RX, 0, DMAChannels) {
				return fmt.Errorf("spi bus %d: DMA channels must be between 0 and %d: %w", i, DMAChannels-1, ErrInvalidDMA)
			}
			if b.DMA.TX == b.DMA.RX {
				return fmt.Errorf("spi bus %d: TX and RX share DMA channel %d: %w", i, b.DMA.TX, ErrInvalidDMA)
			}
			for _, ch := range []uint8{b.DMA.TX, b.DMA.RX} {
				if prev, ok := dmaOwner[ch]; ok {
					return fmt.Errorf("spi bus %d: DMA channel %d already used by spi bus %d: %w", i, ch, prev, ErrInvalidDMA)
				}
				dmaOwner[ch] = i
			}
		}
	}

	ifsPerBus := make(map[int]int, len(r.buses))
	for i, spiIf := range r.interfaces {
		if !inRange(spiIf.Bus, 0, len(r.buses)) {
			return fmt.Errorf("spi interface %d: bus %d must be between 0 and %d: %w", i, spiIf.Bus, len(r.buses)-1, ErrDanglingReference)
		}
		ifsPerBus[spiIf.Bus]++
		if spiIf.SlaveSelect != nil {
			role := fmt.Sprintf("spi interface %d slave select", i)
			if err := r.checkPin(*spiIf.SlaveSelect, role); err != nil {
				return err
			}
			if err := used.claim(*spiIf.SlaveSelect, role); err != nil {
				return err
			}
		}
		if spiIf.SlaveSelectDrive != nil && !spiIf.SlaveSelectDrive.Valid() {
			return fmt.Errorf("spi interface %d: %w", i, ErrInvalidDriveStrength)
		}
	}
	for i, spiIf := range r.interfaces {
		if ifsPerBus[spiIf.Bus] > 1 && spiIf.SlaveSelect == nil {
			return fmt.Errorf("spi interface %d on spi bus %d: %w", i, spiIf.Bus, ErrSharedBusWithoutSelect)
		}
	}

	names := make(map[string]int, len(r.slots))
	for i, s := range r.slots {
		if prev, ok := names[s.Name]; ok {
			return fmt.Errorf("sd slot %d: name %q already used by sd slot %d: %w", i, s.Name, prev, ErrDuplicate)
		}
		names[s.Name] = i
		if n, ok := driveNumber(s.Name); ok && n != i {
			return fmt.Errorf("sd slot %d: name %q is drive %d: %w", i, s.Name, n, ErrDriveNumberMismatch)
		}
		if s.Type != InterfaceSPI {
			return fmt.Errorf("sd slot %d: %s: %w", i, s.Type, ErrUnsupportedInterface)
		}
		if !inRange(s.Interface, 0, len(r.interfaces)) {
			return fmt.Errorf("sd slot %d: interface %d must be between 0 and %d: %w", i, s.Interface, len(r.interfaces)-1, ErrDanglingReference)
		}
		if cd := s.CardDetect; cd != nil {
			role := fmt.Sprintf("sd slot %d card detect", i)
			if err := r.checkPin(cd.GPIO, role); err != nil {
				return err
			}
			if err := used.claim(cd.GPIO, role); err != nil {
				return err
			}
			if cd.PresentLevel != Low && cd.PresentLevel != High {
				return fmt.Errorf("sd slot %d: card detect level %d: %w", i, cd.PresentLevel, ErrInvalidLevel)
			}
		}
	}
	return nil
}
