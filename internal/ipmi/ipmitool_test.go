package ipmi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const sdrTemperatureOutput = `Inlet Temp       | 04h | ok  |  7.1 | 24 degrees C
Exhaust Temp     | 01h | ok  |  7.1 | 33 degrees C
Temp             | 0Eh | ok  |  3.1 | 47 degrees C
Temp             | 0Fh | ok  |  3.2 | 51 degrees C`

const sdrFanOutput = `Fan1 RPM         | 30h | ok  |  7.1 | 5640 RPM
Fan2 RPM         | 31h | ok  |  7.1 | 5520 RPM
Fan3 RPM         | 32h | ok  |  7.1 | 5880 RPM
Fan Redundancy   | 75h | ok  |  7.1 | Fully Redundant`

const fruOutput = `FRU Device Description : Builtin FRU Device (ID 0)
 Board Mfg Date        : Mon Jan  7 12:00:00 2019
 Board Mfg             : Dell Inc.
 Board Product         : PowerEdge R730 (SKU=NotProvided;ModelName=PowerEdge R730)
 Board Serial          : CN123456789
 Board Part Number     : 0H21J3A06`

func TestParseTemperatures(t *testing.T) {
	// WHEN
	sensors, err := parseTemperatures(sdrTemperatureOutput)

	// THEN
	assert.NoError(t, err)
	assert.Len(t, sensors, 4)
	assert.Equal(t, "Inlet Temp", sensors[0].Name)
	assert.Equal(t, 24.0, sensors[0].Value)
	assert.False(t, sensors[0].IsCpu())
	assert.Equal(t, "3.1", sensors[2].EntityId)
	assert.True(t, sensors[2].IsCpu())
	assert.Equal(t, 47.0, sensors[2].Value)
	assert.True(t, sensors[3].IsCpu())
	assert.Equal(t, 51.0, sensors[3].Value)
}

func TestParseTemperaturesEmptyOutput(t *testing.T) {
	// WHEN
	_, err := parseTemperatures("")

	// THEN
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseFanSpeeds(t *testing.T) {
	// WHEN
	fans, err := parseFanSpeeds(sdrFanOutput)

	// THEN
	assert.NoError(t, err)
	assert.Len(t, fans, 3)
	assert.Equal(t, FanSpeed{FanId: 1, Rpm: 5640}, fans[0])
	assert.Equal(t, FanSpeed{FanId: 2, Rpm: 5520}, fans[1])
	assert.Equal(t, FanSpeed{FanId: 3, Rpm: 5880}, fans[2])
}

func TestParseFanSpeedsIgnoresRedundancy(t *testing.T) {
	// WHEN
	_, err := parseFanSpeeds("Fan Redundancy   | 75h | ok  |  7.1 | Fully Redundant")

	// THEN
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseServerInfo(t *testing.T) {
	// WHEN
	info, err := parseServerInfo(fruOutput)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, "Dell Inc.", info.Manufacturer)
	assert.Contains(t, info.Model, "PowerEdge R730")
}

func TestParseServerInfoEmptyOutput(t *testing.T) {
	// WHEN
	_, err := parseServerInfo("")

	// THEN
	assert.ErrorIs(t, err, ErrParse)
}

func TestIsGen14OrNewer(t *testing.T) {
	assert.True(t, ServerInfo{Model: "PowerEdge R740"}.IsGen14OrNewer())
	assert.True(t, ServerInfo{Model: "PowerEdge T640"}.IsGen14OrNewer())
	assert.True(t, ServerInfo{Model: "PowerEdge R 750"}.IsGen14OrNewer())
	assert.False(t, ServerInfo{Model: "PowerEdge R730"}.IsGen14OrNewer())
	assert.False(t, ServerInfo{Model: "PowerEdge T330"}.IsGen14OrNewer())
}

func TestConnectionArgsLocal(t *testing.T) {
	// GIVEN
	gateway := NewIpmiTool(Connection{Host: "local"})

	// WHEN
	args := gateway.connectionArgs()

	// THEN
	assert.Equal(t, []string{"-I", "open"}, args)
}

func TestConnectionArgsLan(t *testing.T) {
	// GIVEN
	gateway := NewIpmiTool(Connection{
		Host:     "10.0.0.42",
		Username: "root",
		Password: "calvin",
		Timeout:  5 * time.Second,
	})

	// WHEN
	args := gateway.connectionArgs()

	// THEN
	assert.Equal(t, []string{"-I", "lanplus", "-H", "10.0.0.42", "-U", "root", "-P", "calvin"}, args)
}
