package configuration

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

func validateConfig(config *Configuration) error {
	if config.FanSpeed < 1 || config.FanSpeed > 100 {
		return errors.New(fmt.Sprintf("FAN_SPEED %d is out of range, must be within [1..100]", config.FanSpeed))
	}
	if config.FanSpeedMax < 1 || config.FanSpeedMax > 100 {
		return errors.New(fmt.Sprintf("FAN_SPEED_MAX %d is out of range, must be within [1..100]", config.FanSpeedMax))
	}
	if config.FanSpeed > config.FanSpeedMax {
		return errors.New(fmt.Sprintf("FAN_SPEED %d must not exceed FAN_SPEED_MAX %d", config.FanSpeed, config.FanSpeedMax))
	}

	if config.CpuTemperatureThreshold <= 0 {
		return errors.New(fmt.Sprintf("CPU_TEMPERATURE_THRESHOLD must be positive, got %.1f", config.CpuTemperatureThreshold))
	}

	if config.CheckInterval <= 0 {
		return errors.New(fmt.Sprintf("CHECK_INTERVAL must be positive, got %s", config.CheckInterval))
	}

	if config.FanRpmMin >= config.FanRpmMax {
		return errors.New(fmt.Sprintf("FAN_RPM_MIN %d must be below FAN_RPM_MAX %d", config.FanRpmMin, config.FanRpmMax))
	}

	if config.JunctionOffset < 0 {
		return errors.New(fmt.Sprintf("JUNCTION_OFFSET must not be negative, got %.1f", config.JunctionOffset))
	}

	supportedSources := []string{TemperatureSourcePackage, TemperatureSourceJunction}
	if !slices.Contains(supportedSources, config.TemperatureSource) {
		return errors.New(fmt.Sprintf("unsupported temperature source '%s', use one of: %s", config.TemperatureSource, strings.Join(supportedSources, " | ")))
	}

	if !isLocalHost(config.IdracHost) {
		if len(config.IdracUsername) <= 0 || len(config.IdracPassword) <= 0 {
			return errors.New(fmt.Sprintf("IDRAC_USERNAME and IDRAC_PASSWORD are required for remote host '%s'", config.IdracHost))
		}
	}

	return nil
}

func isLocalHost(host string) bool {
	return host == "" || host == "local"
}
