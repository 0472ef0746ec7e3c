package tui

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	hw "lautenbacher.net/sdhw/hwconfig"
)

const viewerTitle = " SDHW Hardware Tables "

var (
	busHeader  = []string{"#", "Peripheral", "MISO", "MOSI", "SCK", "Mode", "Baud", "Drive MOSI/SCK", "DMA TX/RX"}
	slotHeader = []string{"#", "Drive", "Type", "Interface", "Bus", "SS", "SS Drive", "Card Detect"}
)

// Viewer shows the tables of a registry until the user quits with q or Esc.
type Viewer struct {
	app    *tview.Application
	reg    *hw.Registry
	buses  *tview.Table
	slots  *tview.Table
	layout *tview.Flex
}

func NewViewer(reg *hw.Registry) *Viewer {
	v := &Viewer{
		app:   tview.NewApplication(),
		reg:   reg,
		buses: newTable(" SPI Buses ", busHeader),
		slots: newTable(" SD Card Slots ", slotHeader),
	}
	v.fillBuses()
	v.fillSlots()

	help := tview.NewTextView().
		SetDynamicColors(true).
		SetText("Press [blue]q[-] or [blue]Esc[-] to quit, [blue]Tab[-] to switch tables")

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.buses, reg.CountSpiBuses()+3, 0, true).
		AddItem(v.slots, 0, 1, false).
		AddItem(help, 1, 0, false)
	v.layout.SetBorder(true).SetTitle(viewerTitle).SetTitleColor(tcell.ColorLightBlue)

	v.app.SetRoot(v.layout, true).SetInputCapture(v.capture)
	return v
}

// Run blocks until the viewer is closed.
func (v *Viewer) Run() error {
	return v.app.Run()
}

func (v *Viewer) Stop() {
	v.app.Stop()
}

func (v *Viewer) capture(event *tcell.EventKey) *tcell.EventKey {
	switch {
	case event.Key() == tcell.KeyEscape, event.Rune() == 'q':
		v.app.Stop()
		return nil
	case event.Key() == tcell.KeyTab:
		if v.buses.HasFocus() {
			v.app.SetFocus(v.slots)
		} else {
			v.app.SetFocus(v.buses)
		}
		return nil
	}
	return event
}

func newTable(title string, header []string) *tview.Table {
	t := tview.NewTable().SetFixed(1, 0).SetSelectable(true, false)
	t.SetBorder(true).SetTitle(title)
	for col, h := range header {
		t.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}
	return t
}

func setRow(t *tview.Table, row int, values ...string) {
	for col, val := range values {
		t.SetCell(row, col, tview.NewTableCell(val))
	}
}

func (v *Viewer) fillBuses() {
	for i := 0; i < v.reg.CountSpiBuses(); i++ {
		b := v.reg.SpiBus(i)
		baud := "default"
		if b.BaudRate != 0 {
			baud = strconv.FormatUint(uint64(b.BaudRate), 10)
		}
		drive := "-"
		if b.Drive != nil {
			drive = b.Drive.MOSI.String() + "/" + b.Drive.SCK.String()
		}
		dma := "dynamic"
		if b.DMA != nil {
			dma = fmt.Sprintf("%d/%d", b.DMA.TX, b.DMA.RX)
		}
		setRow(v.buses, i+1, strconv.Itoa(i), b.Peripheral,
			gpio(b.MISO), gpio(b.MOSI), gpio(b.SCK),
			strconv.Itoa(int(b.Mode)), baud, drive, dma)
	}
}

func (v *Viewer) fillSlots() {
	for i := 0; i < v.reg.CountSdSlots(); i++ {
		route, err := v.reg.Route(i)
		if err != nil {
			continue
		}
		ss, ssDrive := "-", "-"
		if route.Interface.SlaveSelect != nil {
			ss = gpio(*route.Interface.SlaveSelect)
		}
		if route.Interface.SlaveSelectDrive != nil {
			ssDrive = route.Interface.SlaveSelectDrive.String()
		}
		cd := "disabled"
		if route.Slot.CardDetect != nil {
			cd = fmt.Sprintf("%s, present when %s", gpio(route.Slot.CardDetect.GPIO), route.Slot.CardDetect.PresentLevel)
		}
		setRow(v.slots, i+1, strconv.Itoa(i), route.Slot.Name, route.Slot.Type.String(),
			strconv.Itoa(route.Slot.Interface), route.Bus.Peripheral, ss, ssDrive, cd)
	}
}

func gpio(p hw.Pin) string {
	return fmt.Sprintf("GPIO%d", p)
}
