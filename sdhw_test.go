package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	c "lautenbacher.net/sdhw/config"
	hw "lautenbacher.net/sdhw/hwconfig"
)

const twoSlotConfig = `
Hardware:
  SpiBuses:
    - { Peripheral: spi0, MisoGPIO: 4, MosiGPIO: 3, SckGPIO: 2, Mode: 3 }
    - { Peripheral: spi1, MisoGPIO: 12, MosiGPIO: 11, SckGPIO: 10, Mode: 0 }
  SpiInterfaces:
    - { Bus: 0 }
    - { Bus: 1, SlaveSelectGPIO: 13 }
  SdCards:
    - { Interface: 0 }
    - { Interface: 1, CardDetect: { GPIO: 14, PresentLevel: 0 } }
Logging:
  Level: WARN
`

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), c.CONFILE)
	require.NoError(t, os.WriteFile(file, []byte(data), 0o644))
	return file
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_DefaultBoardText(t *testing.T) {
	out, err := runCLI(t)
	require.NoError(t, err)

	assert.Contains(t, out, "SPI buses: 1")
	assert.Contains(t, out, "[0] spi0 MISO=4 MOSI=3 SCK=2 mode=3")
	assert.Contains(t, out, "SD card slots: 1")
	assert.Contains(t, out, "[0] 0: -> spi0")
	assert.Contains(t, out, "ss=none, no card detect")
}

func TestRun_ConfigFileJSON(t *testing.T) {
	out, err := runCLI(t, "-config", writeConfig(t, twoSlotConfig), "-format", "json")
	require.NoError(t, err)

	var h c.HardwareConfig
	require.NoError(t, json.Unmarshal([]byte(out), &h))
	require.Len(t, h.SdCards, 2)
	assert.Equal(t, "1:", h.SdCards[1].Name)
	require.NotNil(t, h.SdCards[1].CardDetect)
	assert.Equal(t, 14, h.SdCards[1].CardDetect.GPIO)
}

func TestRun_YAMLRoundTrip(t *testing.T) {
	out, err := runCLI(t, "-config", writeConfig(t, twoSlotConfig), "-format", "yaml")
	require.NoError(t, err)

	conf, err := c.Parse([]byte(out))
	require.NoError(t, err, "output:\n%s", out)
	reg, err := conf.Registry()
	require.NoError(t, err)
	assert.Equal(t, 2, reg.CountSpiBuses())
	assert.Equal(t, hw.Pin(10), reg.SpiBus(1).SCK)
}

func TestRun_Route(t *testing.T) {
	cfg := writeConfig(t, twoSlotConfig)

	out, err := runCLI(t, "-config", cfg, "-route", "1")
	require.NoError(t, err)
	assert.Equal(t, "1: -> spi1 (MISO=12 MOSI=11 SCK=10 mode=0) ss=GPIO13\n", out)

	out, err = runCLI(t, "-config", cfg, "-route", "0:")
	require.NoError(t, err)
	assert.Contains(t, out, "0: -> spi0")

	_, err = runCLI(t, "-config", cfg, "-route", "5")
	assert.Error(t, err)
}

func TestRun_Errors(t *testing.T) {
	_, err := runCLI(t, "-board", "unknown")
	assert.ErrorContains(t, err, "unknown board")

	_, err = runCLI(t, "-format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = runCLI(t, "-config", writeConfig(t, "Hardware:\n  SdCards: []\n"))
	assert.ErrorIs(t, err, hw.ErrEmpty)

	_, err = runCLI(t, "-loglevel", "LOUD")
	assert.ErrorContains(t, err, "unknown log level")

	_, err = runCLI(t, "-tui", "-listen", "localhost:0")
	assert.ErrorContains(t, err, "-tui can't be combined")

	_, err = runCLI(t, "-tui", "-route", "0:")
	assert.ErrorContains(t, err, "-tui can't be combined")

	_, err = runCLI(t, "-nosuchflag")
	assert.Error(t, err)
}
