package hwconfig

import (
	"fmt"
	"strings"
)

// DefaultGPIOCount is the number of user GPIOs on an RP2040.
const DefaultGPIOCount = 30

// DMAChannels is the number of DMA channels a static assignment may use.
const DMAChannels = 12

// Pin is a GPIO number (not a package pin number).
type Pin int

// PinPtr returns a pointer to p, for optional pin fields.
func PinPtr(p Pin) *Pin {
	return &p
}

// SpiMode is the SPI clock polarity/phase combination (0-3).
type SpiMode uint8

const (
	Mode0 SpiMode = iota // CPOL=0, CPHA=0
	Mode1                // CPOL=0, CPHA=1
	Mode2                // CPOL=1, CPHA=0
	Mode3                // CPOL=1, CPHA=1
)

func (m SpiMode) Valid() bool {
	return m <= Mode3
}

// DriveStrength is the pad drive strength of a GPIO.
type DriveStrength uint8

const (
	Drive2mA DriveStrength = iota
	Drive4mA
	Drive8mA
	Drive12mA
)

var driveStrengthNames = [...]string{"2mA", "4mA", "8mA", "12mA"}

func (d DriveStrength) Valid() bool {
	return int(d) < len(driveStrengthNames)
}

func (d DriveStrength) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DriveStrength(%d)", uint8(d))
	}
	return driveStrengthNames[d]
}

// ParseDriveStrength accepts "2mA", "4mA", "8mA" and "12mA" (case-insensitive).
func ParseDriveStrength(s string) (DriveStrength, error) {
	for i, name := range driveStrengthNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return DriveStrength(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDriveStrength, s)
}

// Level is a GPIO logic level.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case High:
		return "high"
	}
	return fmt.Sprintf("Level(%d)", uint8(l))
}

// InterfaceType tags how an SD card is attached.
type InterfaceType uint8

const (
	InterfaceSPI InterfaceType = iota
)

func (t InterfaceType) String() string {
	if t == InterfaceSPI {
		return "spi"
	}
	return fmt.Sprintf("InterfaceType(%d)", uint8(t))
}

// ParseInterfaceType maps a name to an InterfaceType. An empty name means SPI.
func ParseInterfaceType(s string) (InterfaceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "spi":
		return InterfaceSPI, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedInterface, s)
}

// BusDrive holds the drive strengths applied to the output lines of a bus.
type BusDrive struct {
	MOSI DriveStrength
	SCK  DriveStrength
}

// StaticDMA pins a bus to fixed DMA channels instead of claiming free ones.
type StaticDMA struct {
	TX uint8
	RX uint8
}

// SpiBus describes one physical SPI peripheral and its wiring.
type SpiBus struct {
	Peripheral string
	MISO       Pin
	MOSI       Pin
	SCK        Pin
	Mode       SpiMode
	// BaudRate in Hz; zero leaves the choice to the SPI driver.
	BaudRate uint32
	// Drive is nil when pad drive strengths are left at reset defaults.
	Drive *BusDrive
	// DMA is nil when the driver claims channels dynamically.
	DMA *StaticDMA
}

// SpiInterface binds an SD card to a bus and its slave select line.
type SpiInterface struct {
	// Bus indexes the registry's bus table.
	Bus int
	// SlaveSelect is nil when the card's select line is not driven.
	SlaveSelect      *Pin
	SlaveSelectDrive *DriveStrength
}

// CardDetect describes the card-detect switch of a slot.
type CardDetect struct {
	GPIO Pin
	// PresentLevel is what the GPIO reads while a card is inserted.
	PresentLevel Level
}

// SdCardSlot is one logical storage slot exposed to the filesystem layer.
type SdCardSlot struct {
	// Name is the FatFs logical drive, e.g. "0:".
	Name string
	Type InterfaceType
	// Interface indexes the registry's interface table.
	Interface int
	// CardDetect is nil when card detection is disabled.
	CardDetect *CardDetect
}

func (s *SdCardSlot) CardDetectEnabled() bool {
	return s.CardDetect != nil
}

// Route is a slot with its interface and bus resolved.
type Route struct {
	Slot      *SdCardSlot
	Interface *SpiInterface
	Bus       *SpiBus
}

func (r Route) String() string {
	if r.Slot == nil || r.Interface == nil || r.Bus == nil {
		return "<unresolved>"
	}
	ss := "none"
	if r.Interface.SlaveSelect != nil {
		ss = fmt.Sprintf("GPIO%d", *r.Interface.SlaveSelect)
	}
	return fmt.Sprintf("%s -> %s (MISO=%d MOSI=%d SCK=%d mode=%d) ss=%s",
		r.Slot.Name, r.Bus.Peripheral, r.Bus.MISO, r.Bus.MOSI, r.Bus.SCK, r.Bus.Mode, ss)
}
