package hwconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(buses *[]SpiBus, ifs *[]SpiInterface, slots *[]SdCardSlot)
		opts    []Option
		wantErr error
		wantMsg string
	}{
		{
			name:    "No slots",
			modify:  func(_ *[]SpiBus, _ *[]SpiInterface, s *[]SdCardSlot) { *s = nil },
			wantErr: ErrEmpty,
		},
		{
			name:    "Pin above GPIO count",
			modify:  func(b *[]SpiBus, _ *[]SpiInterface, _ *[]SdCardSlot) { (*b)[0].MISO = 30 },
			wantErr: ErrInvalidPin,
			wantMsg: "must be between 0 and 29",
		},
		{
			name:    "Negative pin",
			modify:  func(b *[]SpiBus, _ *[]SpiInterface, _ *[]SdCardSlot) { (*b)[0].SCK = -1 },
			wantErr: ErrInvalidPin,
		},
		{
			name:    "Smaller GPIO count",
			modify:  func(_ *[]SpiBus, _ *[]SpiInterface, _ *[]SdCardSlot) {},
			opts:    []Option{WithGPIOCount(4)},
			wantErr: ErrInvalidPin,
			wantMsg: "spi bus 0 MISO",
		},
		{
			name:    "Zero GPIO count",
			modify:  func(_ *[]SpiBus, _ *[]SpiInterface, _ *[]SdCardSlot) {},
			opts:    []Option{WithGPIOCount(0)},
			wantErr: ErrInvalidPin,
		},
		{
			name:    "Invalid mode",
			modify:  func(b *[]SpiBus, _ *[]SpiInterface, _ *[]SdCardSlot) { (*b)[0].Mode = 4 },
			wantErr: ErrInvalidMode,
		},
		{
			name:    "Invalid drive strength",
			modify:  func(b *[]SpiBus, _ *[]SpiInterface, _ *[]SdCardSlot) { (*b)[0].Drive.SCK = 7 },
			wantErr: ErrInvalidDriveStrength,
		},
		{
			name: "Invalid select drive strength",
			modify: func(_ *[]SpiBus, i *[]SpiInterface, _ *[]SdCardSlot) {
				d := DriveStrength(9)
				(*i)[0].SlaveSelectDrive = &d
			},
			wantErr: ErrInvalidDriveStrength,
		},
		{
			name:    "DMA channel out of range",
			modify:  func(b *[]SpiBus, _ *[]SpiInterface, _ *[]SdCardSlot) { (*b)[0].DMA = &StaticDMA{TX: 10, RX: 12} },
			wantErr: ErrInvalidDMA,
			wantMsg: "must be between 0 and 11",
		},
		{
			name:    "DMA TX equals RX",
			modify:  func(b *[]SpiBus, _ *[]SpiInterface, _ *[]SdCardSlot) { (*b)[0].DMA = &StaticDMA{TX: 10, RX: 10} },
			wantErr: ErrInvalidDMA,
		},
		{
			name: "DMA channel shared between buses",
			modify: func(b *[]SpiBus, _ *[]SpiInterface, _ *[]SdCardSlot) {
				(*b)[0].DMA = &StaticDMA{TX: 10, RX: 11}
				*b = append(*b, SpiBus{Peripheral: "spi1", MISO: 12, MOSI: 11, SCK: 10, DMA: &StaticDMA{TX: 9, RX: 11}})
			},
			wantErr: ErrInvalidDMA,
			wantMsg: "already used by spi bus 0",
		},
		{
			name:    "Missing peripheral",
			modify:  func(b *[]SpiBus, _ *[]SpiInterface, _ *[]SdCardSlot) { (*b)[0].Peripheral = "" },
			wantErr: ErrMissingName,
		},
		{
			name: "Duplicate peripheral",
			modify: func(b *[]SpiBus, _ *[]SpiInterface, _ *[]SdCardSlot) {
				*b = append(*b, SpiBus{Peripheral: "spi0", MISO: 12, MOSI: 11, SCK: 10})
			},
			wantErr: ErrDuplicate,
		},
		{
			name: "Duplicate slot name",
			modify: func(_ *[]SpiBus, _ *[]SpiInterface, s *[]SdCardSlot) {
				(*s)[0].Name = "sd"
				*s = append(*s, SdCardSlot{Name: "sd"})
			},
			wantErr: ErrDuplicate,
		},
		{
			name:    "Slot named after another drive number",
			modify:  func(_ *[]SpiBus, _ *[]SpiInterface, s *[]SdCardSlot) { (*s)[0].Name = "1:" },
			wantErr: ErrDriveNumberMismatch,
			wantMsg: `sd slot 0: name "1:" is drive 1`,
		},
		{
			name:    "Interface references missing bus",
			modify:  func(_ *[]SpiBus, i *[]SpiInterface, _ *[]SdCardSlot) { (*i)[0].Bus = 1 },
			wantErr: ErrDanglingReference,
			wantMsg: "spi interface 0: bus 1",
		},
		{
			name:    "Slot references missing interface",
			modify:  func(_ *[]SpiBus, _ *[]SpiInterface, s *[]SdCardSlot) { (*s)[0].Interface = 3 },
			wantErr: ErrDanglingReference,
			wantMsg: "sd slot 0: interface 3",
		},
		{
			name:    "Slave select on a bus line",
			modify:  func(_ *[]SpiBus, i *[]SpiInterface, _ *[]SdCardSlot) { (*i)[0].SlaveSelect = PinPtr(2) },
			wantErr: ErrPinConflict,
			wantMsg: "already used by spi bus 0 SCK",
		},
		{
			name: "Card detect on the slave select",
			modify: func(_ *[]SpiBus, i *[]SpiInterface, s *[]SdCardSlot) {
				(*i)[0].SlaveSelect = PinPtr(5)
				(*s)[0].CardDetect = &CardDetect{GPIO: 5, PresentLevel: High}
			},
			wantErr: ErrPinConflict,
		},
		{
			name:    "Card detect pin out of range",
			modify:  func(_ *[]SpiBus, _ *[]SpiInterface, s *[]SdCardSlot) { (*s)[0].CardDetect = &CardDetect{GPIO: 40} },
			wantErr: ErrInvalidPin,
		},
		{
			name: "Card detect level",
			modify: func(_ *[]SpiBus, _ *[]SpiInterface, s *[]SdCardSlot) {
				(*s)[0].CardDetect = &CardDetect{GPIO: 9, PresentLevel: 2}
			},
			wantErr: ErrInvalidLevel,
		},
		{
			name: "Shared bus without slave select",
			modify: func(_ *[]SpiBus, i *[]SpiInterface, s *[]SdCardSlot) {
				*i = append(*i, SpiInterface{Bus: 0, SlaveSelect: PinPtr(6)})
				*s = append(*s, SdCardSlot{Interface: 1})
			},
			wantErr: ErrSharedBusWithoutSelect,
			wantMsg: "spi interface 0 on spi bus 0",
		},
		{
			name:    "Unsupported interface type",
			modify:  func(_ *[]SpiBus, _ *[]SpiInterface, s *[]SdCardSlot) { (*s)[0].Type = 1 },
			wantErr: ErrUnsupportedInterface,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buses, ifs, slots := oneSlotTables()
			tt.modify(&buses, &ifs, &slots)

			reg, err := NewRegistry(buses, ifs, slots, tt.opts...)
			assert.Nil(t, reg)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestNewRegistry_SharedBusWithSelects(t *testing.T) {
	buses, ifs, slots := oneSlotTables()
	ifs[0].SlaveSelect = PinPtr(5)
	ifs = append(ifs, SpiInterface{Bus: 0, SlaveSelect: PinPtr(6)})
	slots = append(slots, SdCardSlot{Interface: 1})

	reg, err := NewRegistry(buses, ifs, slots)
	assert.NoError(t, err)
	assert.Equal(t, 2, reg.CountSdSlots())
	assert.Equal(t, 1, reg.CountSpiBuses())
}

func TestDriveNumber(t *testing.T) {
	for name, want := range map[string]int{"0:": 0, "1:": 1, "12:": 12} {
		n, ok := driveNumber(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, n, name)
	}
	for _, name := range []string{"", ":", "1", "usb:", "+1:", "-1:", "1:x"} {
		_, ok := driveNumber(name)
		assert.False(t, ok, name)
	}
}

func TestParseDriveStrength(t *testing.T) {
	for in, want := range map[string]DriveStrength{
		"2mA": Drive2mA, "4ma": Drive4mA, " 8MA ": Drive8mA, "12mA": Drive12mA,
	} {
		got, err := ParseDriveStrength(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDriveStrength("16mA")
	assert.ErrorIs(t, err, ErrInvalidDriveStrength)
	assert.Equal(t, "12mA", Drive12mA.String())
	assert.Equal(t, "DriveStrength(9)", DriveStrength(9).String())
}

func TestParseInterfaceType(t *testing.T) {
	typ, err := ParseInterfaceType("")
	assert.NoError(t, err)
	assert.Equal(t, InterfaceSPI, typ)

	typ, err = ParseInterfaceType("SPI")
	assert.NoError(t, err)
	assert.Equal(t, "spi", typ.String())

	_, err = ParseInterfaceType("sdio")
	assert.ErrorIs(t, err, ErrUnsupportedInterface)
}
