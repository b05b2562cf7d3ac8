package configuration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Configuration {
	return Configuration{
		IdracHost:               "local",
		FanSpeed:                25,
		FanSpeedMax:             100,
		CpuTemperatureThreshold: 60,
		CheckInterval:           15 * time.Second,
		FanRpmMin:               2500,
		FanRpmMax:               12000,
		JunctionOffset:          15,
		TemperatureSource:       TemperatureSourcePackage,
	}
}

func TestValidateValidConfig(t *testing.T) {
	// GIVEN
	config := validConfig()

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.NoError(t, err)
}

func TestValidateFanSpeedOutOfRange(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.FanSpeed = 0

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateFanSpeedAboveMax(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.FanSpeed = 80
	config.FanSpeedMax = 50

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateNonPositiveThreshold(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.CpuTemperatureThreshold = 0

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateNonPositiveInterval(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.CheckInterval = 0

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateDegenerateRpmBounds(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.FanRpmMin = 12000
	config.FanRpmMax = 12000

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateUnsupportedTemperatureSource(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.TemperatureSource = "inlet"

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateRemoteHostRequiresCredentials(t *testing.T) {
	// GIVEN
	config := validConfig()
	config.IdracHost = "10.0.0.42"
	config.IdracUsername = ""

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}
