package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	hw "lautenbacher.net/sdhw/hwconfig"
)

const CONFILE = "sdhw.yml"

// Config is the content of a hardware description file.
type Config struct {
	Hardware HardwareConfig `yaml:"Hardware" json:"Hardware"`
	Logging  LoggingConfig  `yaml:"Logging,omitempty" json:"Logging,omitempty"`

	// reg is the registry built by the last Validate.
	reg *hw.Registry
}

type HardwareConfig struct {
	// GPIOCount defaults to the RP2040's 30 user GPIOs when zero.
	GPIOCount     int                  `yaml:"GPIOCount,omitempty" json:"GPIOCount,omitempty"`
	SpiBuses      []SpiBusConfig       `yaml:"SpiBuses" json:"SpiBuses"`
	SpiInterfaces []SpiInterfaceConfig `yaml:"SpiInterfaces" json:"SpiInterfaces"`
	SdCards       []SdCardConfig       `yaml:"SdCards" json:"SdCards"`
}

type SpiBusConfig struct {
	Peripheral    string          `yaml:"Peripheral" json:"Peripheral"`
	MisoGPIO      int             `yaml:"MisoGPIO" json:"MisoGPIO"`
	MosiGPIO      int             `yaml:"MosiGPIO" json:"MosiGPIO"`
	SckGPIO       int             `yaml:"SckGPIO" json:"SckGPIO"`
	Mode          uint8           `yaml:"Mode" json:"Mode"`
	BaudRate      uint32          `yaml:"BaudRate,omitempty" json:"BaudRate,omitempty"`
	DriveStrength *BusDriveConfig `yaml:"DriveStrength,omitempty" json:"DriveStrength,omitempty"`
	DMA           *DMAConfig      `yaml:"DMA,omitempty" json:"DMA,omitempty"`
}

type BusDriveConfig struct {
	Mosi string `yaml:"Mosi" json:"Mosi"`
	Sck  string `yaml:"Sck" json:"Sck"`
}

type DMAConfig struct {
	TX uint8 `yaml:"TX" json:"TX"`
	RX uint8 `yaml:"RX" json:"RX"`
}

type SpiInterfaceConfig struct {
	Bus                      int    `yaml:"Bus" json:"Bus"`
	SlaveSelectGPIO          *int   `yaml:"SlaveSelectGPIO,omitempty" json:"SlaveSelectGPIO,omitempty"`
	SlaveSelectDriveStrength string `yaml:"SlaveSelectDriveStrength,omitempty" json:"SlaveSelectDriveStrength,omitempty"`
}

type SdCardConfig struct {
	Name       string            `yaml:"Name,omitempty" json:"Name,omitempty"`
	Type       string            `yaml:"Type,omitempty" json:"Type,omitempty"`
	Interface  int               `yaml:"Interface" json:"Interface"`
	CardDetect *CardDetectConfig `yaml:"CardDetect,omitempty" json:"CardDetect,omitempty"`
}

type CardDetectConfig struct {
	GPIO         int   `yaml:"GPIO" json:"GPIO"`
	PresentLevel uint8 `yaml:"PresentLevel" json:"PresentLevel"`
}

type LoggingConfig struct {
	Level  string `yaml:"Level,omitempty" json:"Level,omitempty"`
	Format string `yaml:"Format,omitempty" json:"Format,omitempty"`
	File   string `yaml:"File,omitempty" json:"File,omitempty"`
}

// ReadConfig reads and validates the hardware description in cfile.
func ReadConfig(cfile string) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", cfile, err)
	}
	slog.Info("Read hardware configuration", "file", cfile,
		"spiBuses", len(conf.Hardware.SpiBuses), "sdCards", len(conf.Hardware.SdCards))
	return conf, nil
}

// Parse decodes and validates a hardware description held in memory.
func Parse(data []byte) (*Config, error) {
	return decode(bytes.NewReader(data))
}

func decode(r io.Reader) (*Config, error) {
	var conf Config
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&conf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config is empty")
		}
		return nil, fmt.Errorf("can't decode config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks the logging section and builds the registry to check
// the hardware tables.
func (c *Config) Validate() error {
	switch strings.ToUpper(c.Logging.Level) {
	case "", "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("Logging.Level %q must be one of DEBUG, INFO, WARN, ERROR", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("Logging.Format %q must be text or json", c.Logging.Format)
	}
	reg, err := c.buildRegistry()
	if err != nil {
		c.reg = nil
		return fmt.Errorf("invalid hardware configuration: %w", err)
	}
	c.reg = reg
	return nil
}

// Registry returns the validated registry of the hardware section. The
// registry built by Validate is reused; call Validate again after changing
// Hardware.
func (c *Config) Registry() (*hw.Registry, error) {
	if c.reg != nil {
		return c.reg, nil
	}
	reg, err := c.buildRegistry()
	if err != nil {
		return nil, err
	}
	c.reg = reg
	return reg, nil
}

func (c *Config) buildRegistry() (*hw.Registry, error) {
	h := c.Hardware

	buses := make([]hw.SpiBus, len(h.SpiBuses))
	for i, b := range h.SpiBuses {
		bus := hw.SpiBus{
			Peripheral: b.Peripheral,
			MISO:       hw.Pin(b.MisoGPIO),
			MOSI:       hw.Pin(b.MosiGPIO),
			SCK:        hw.Pin(b.SckGPIO),
			Mode:       hw.SpiMode(b.Mode),
			BaudRate:   b.BaudRate,
		}
		if b.DriveStrength != nil {
			mosi, err := hw.ParseDriveStrength(b.DriveStrength.Mosi)
			if err != nil {
				return nil, fmt.Errorf("SpiBuses[%d].DriveStrength.Mosi: %w", i, err)
			}
			sck, err := hw.ParseDriveStrength(b.DriveStrength.Sck)
			if err != nil {
				return nil, fmt.Errorf("SpiBuses[%d].DriveStrength.Sck: %w", i, err)
			}
			bus.Drive = &hw.BusDrive{MOSI: mosi, SCK: sck}
		}
		if b.DMA != nil {
			bus.DMA = &hw.StaticDMA{TX: b.DMA.TX, RX: b.DMA.RX}
		}
		buses[i] = bus
	}

	ifs := make([]hw.SpiInterface, len(h.SpiInterfaces))
	for i, spiIf := range h.SpiInterfaces {
		ifs[i] = hw.SpiInterface{Bus: spiIf.Bus}
		if spiIf.SlaveSelectGPIO != nil {
			ifs[i].SlaveSelect = hw.PinPtr(hw.Pin(*spiIf.SlaveSelectGPIO))
		}
		if spiIf.SlaveSelectDriveStrength != "" {
			d, err := hw.ParseDriveStrength(spiIf.SlaveSelectDriveStrength)
			if err != nil {
				return nil, fmt.Errorf("SpiInterfaces[%d].SlaveSelectDriveStrength: %w", i, err)
			}
			ifs[i].SlaveSelectDrive = &d
		}
	}

	slots := make([]hw.SdCardSlot, len(h.SdCards))
	for i, sd := range h.SdCards {
		typ, err := hw.ParseInterfaceType(sd.Type)
		if err != nil {
			return nil, fmt.Errorf("SdCards[%d].Type: %w", i, err)
		}
		slots[i] = hw.SdCardSlot{Name: sd.Name, Type: typ, Interface: sd.Interface}
		if sd.CardDetect != nil {
			slots[i].CardDetect = &hw.CardDetect{
				GPIO:         hw.Pin(sd.CardDetect.GPIO),
				PresentLevel: hw.Level(sd.CardDetect.PresentLevel),
			}
		}
	}

	var opts []hw.Option
	if h.GPIOCount != 0 {
		opts = append(opts, hw.WithGPIOCount(h.GPIOCount))
	}
	return hw.NewRegistry(buses, ifs, slots, opts...)
}

// FromRegistry renders a registry back into its file representation.
func FromRegistry(reg *hw.Registry) HardwareConfig {
	var h HardwareConfig
	if reg.GPIOCount() != hw.DefaultGPIOCount {
		h.GPIOCount = reg.GPIOCount()
	}

	for _, b := range reg.SpiBuses() {
		bc := SpiBusConfig{
			Peripheral: b.Peripheral,
			MisoGPIO:   int(b.MISO),
			MosiGPIO:   int(b.MOSI),
			SckGPIO:    int(b.SCK),
			Mode:       uint8(b.Mode),
			BaudRate:   b.BaudRate,
		}
		if b.Drive != nil {
			bc.DriveStrength = &BusDriveConfig{Mosi: b.Drive.MOSI.String(), Sck: b.Drive.SCK.String()}
		}
		if b.DMA != nil {
			bc.DMA = &DMAConfig{TX: b.DMA.TX, RX: b.DMA.RX}
		}
		h.SpiBuses = append(h.SpiBuses, bc)
	}

	for _, spiIf := range reg.SpiInterfaces() {
		ic := SpiInterfaceConfig{Bus: spiIf.Bus}
		if spiIf.SlaveSelect != nil {
			ss := int(*spiIf.SlaveSelect)
			ic.SlaveSelectGPIO = &ss
		}
		if spiIf.SlaveSelectDrive != nil {
			ic.SlaveSelectDriveStrength = spiIf.SlaveSelectDrive.String()
		}
		h.SpiInterfaces = append(h.SpiInterfaces, ic)
	}

	for _, s := range reg.SdSlots() {
		sc := SdCardConfig{Name: s.Name, Type: s.Type.String(), Interface: s.Interface}
		if s.CardDetect != nil {
			sc.CardDetect = &CardDetectConfig{GPIO: int(s.CardDetect.GPIO), PresentLevel: uint8(s.CardDetect.PresentLevel)}
		}
		h.SdCards = append(h.SdCards, sc)
	}
	return h
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
