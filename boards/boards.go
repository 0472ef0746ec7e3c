// Package boards holds the hardware tables compiled into the binary. Each
// board describes the SPI buses and SD card slots of one hardware design.
package boards

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	hw "lautenbacher.net/sdhw/hwconfig"
)

const DefaultBoard = "default"

// Board is the raw table set of one hardware design.
type Board struct {
	Name          string
	Description   string
	SpiBuses      []hw.SpiBus
	SpiInterfaces []hw.SpiInterface
	SdCards       []hw.SdCardSlot
}

// Registry validates the board and returns its registry.
func (b Board) Registry(opts ...hw.Option) (*hw.Registry, error) {
	reg, err := hw.NewRegistry(b.SpiBuses, b.SpiInterfaces, b.SdCards, opts...)
	if err != nil {
		return nil, fmt.Errorf("board %q: %w", b.Name, err)
	}
	return reg, nil
}

func drive(d hw.DriveStrength) *hw.DriveStrength {
	return &d
}

// builtin returns fresh tables on every call so callers never share them.
var builtin = map[string]func() Board{
	// One SD socket on spi0 with the card's select tied low and no
	// card-detect switch.
	DefaultBoard: func() Board {
		return Board{
			Name:        DefaultBoard,
			Description: "single SD socket on spi0, GPIO 2-4, no card detect",
			SpiBuses: []hw.SpiBus{{
				Peripheral: "spi0",
				MISO:       4,
				MOSI:       3,
				SCK:        2,
				Mode:       hw.Mode3,
				Drive:      &hw.BusDrive{MOSI: hw.Drive2mA, SCK: hw.Drive2mA},
			}},
			SpiInterfaces: []hw.SpiInterface{{
				Bus:              0,
				SlaveSelectDrive: drive(hw.Drive2mA),
			}},
			SdCards: []hw.SdCardSlot{{
				Name:      "0:",
				Type:      hw.InterfaceSPI,
				Interface: 0,
			}},
		}
	},
}

// Names lists the built-in boards in sorted order.
func Names() []string {
	names := maps.Keys(builtin)
	slices.Sort(names)
	return names
}

// ByName returns the built-in board with the given name.
func ByName(name string) (Board, error) {
	f, ok := builtin[name]
	if !ok {
		return Board{}, fmt.Errorf("unknown board %q, known boards: %v", name, Names())
	}
	return f(), nil
}

// Default returns the registry of the default board. The default board is
// known to be valid, so a failure here is a programming error.
func Default() *hw.Registry {
	b, err := ByName(DefaultBoard)
	if err != nil {
		panic(err)
	}
	reg, err := b.Registry()
	if err != nil {
		panic(err)
	}
	return reg
}
