package hwconfig

import (
	"fmt"
	"log/slog"
)

// Registry is an immutable set of SPI bus, SPI interface and SD slot
// tables. It is safe for concurrent use; nothing writes to it after
// NewRegistry returns.
type Registry struct {
	buses      []SpiBus
	interfaces []SpiInterface
	slots      []SdCardSlot
	gpioCount  int
}

type Option func(*Registry)

// WithGPIOCount sets the number of GPIOs pins are checked against.
func WithGPIOCount(n int) Option {
	return func(r *Registry) {
		r.gpioCount = n
	}
}

// NewRegistry copies and validates the given tables. Slots without a name
// are named after their index ("0:", "1:", ...).
func NewRegistry(buses []SpiBus, interfaces []SpiInterface, slots []SdCardSlot, opts ...Option) (*Registry, error) {
	r := &Registry{
		buses:      make([]SpiBus, len(buses)),
		interfaces: make([]SpiInterface, len(interfaces)),
		slots:      make([]SdCardSlot, len(slots)),
		gpioCount:  DefaultGPIOCount,
	}
	for _, opt := range opts {
		opt(r)
	}
	for i, b := range buses {
		r.buses[i] = cloneBus(b)
	}
	for i, spiIf := range interfaces {
		r.interfaces[i] = cloneInterface(spiIf)
	}
	for i, s := range slots {
		r.slots[i] = cloneSlot(s)
		if r.slots[i].Name == "" {
			r.slots[i].Name = fmt.Sprintf("%d:", i)
		}
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	slog.Debug("Hardware configuration registry built",
		"spiBuses", len(r.buses), "spiInterfaces", len(r.interfaces), "sdSlots", len(r.slots))
	return r, nil
}

func (r *Registry) GPIOCount() int {
	return r.gpioCount
}

func (r *Registry) CountSdSlots() int {
	return len(r.slots)
}

// SdSlot returns the slot at index, or nil if there is none. The returned
// record is shared and must not be modified.
func (r *Registry) SdSlot(index int) *SdCardSlot {
	if index < 0 || index >= len(r.slots) {
		return nil
	}
	return &r.slots[index]
}

// SdSlotByName returns the slot with the given logical drive name, or nil.
func (r *Registry) SdSlotByName(name string) *SdCardSlot {
	for i := range r.slots {
		if r.slots[i].Name == name {
			return &r.slots[i]
		}
	}
	return nil
}

func (r *Registry) CountSpiBuses() int {
	return len(r.buses)
}

// SpiBus returns the bus at index, or nil if there is none. The returned
// record is shared and must not be modified.
func (r *Registry) SpiBus(index int) *SpiBus {
	if index < 0 || index >= len(r.buses) {
		return nil
	}
	return &r.buses[index]
}

func (r *Registry) CountSpiInterfaces() int {
	return len(r.interfaces)
}

// SpiInterface returns the interface at index, or nil if there is none.
func (r *Registry) SpiInterface(index int) *SpiInterface {
	if index < 0 || index >= len(r.interfaces) {
		return nil
	}
	return &r.interfaces[index]
}

// Route follows the slot at index to its interface and bus.
func (r *Registry) Route(slot int) (Route, error) {
	s := r.SdSlot(slot)
	if s == nil {
		return Route{}, fmt.Errorf("sd slot %d: %w (have %d)", slot, ErrIndexOutOfRange, len(r.slots))
	}
	// References were checked in NewRegistry.
	spiIf := &r.interfaces[s.Interface]
	return Route{
		Slot:      s,
		Interface: spiIf,
		Bus:       &r.buses[spiIf.Bus],
	}, nil
}

// SpiBuses returns a copy of the bus table.
func (r *Registry) SpiBuses() []SpiBus {
	ret := make([]SpiBus, len(r.buses))
	for i, b := range r.buses {
		ret[i] = cloneBus(b)
	}
	return ret
}

// SpiInterfaces returns a copy of the interface table.
func (r *Registry) SpiInterfaces() []SpiInterface {
	ret := make([]SpiInterface, len(r.interfaces))
	for i, spiIf := range r.interfaces {
		ret[i] = cloneInterface(spiIf)
	}
	return ret
}

// SdSlots returns a copy of the slot table.
func (r *Registry) SdSlots() []SdCardSlot {
	ret := make([]SdCardSlot, len(r.slots))
	for i, s := range r.slots {
		ret[i] = cloneSlot(s)
	}
	return ret
}

func cloneBus(b SpiBus) SpiBus {
	if b.Drive != nil {
		d := *b.Drive
		b.Drive = &d
	}
	if b.DMA != nil {
		d := *b.DMA
		b.DMA = &d
	}
	return b
}

func cloneInterface(spiIf SpiInterface) SpiInterface {
	if spiIf.SlaveSelect != nil {
		p := *spiIf.SlaveSelect
		spiIf.SlaveSelect = &p
	}
	if spiIf.SlaveSelectDrive != nil {
		d := *spiIf.SlaveSelectDrive
		spiIf.SlaveSelectDrive = &d
	}
	return spiIf
}

func cloneSlot(s SdCardSlot) SdCardSlot {
	if s.CardDetect != nil {
		cd := *s.CardDetect
		s.CardDetect = &cd
	}
	return s
}
