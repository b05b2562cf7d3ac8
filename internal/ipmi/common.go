package ipmi

import (
	"context"
	"regexp"
)

// CoolingMode is the fan control profile of the iDRAC.
type CoolingMode int

const (
	// CoolingModeAutomatic yields fan control to the Dell default dynamic profile
	CoolingModeAutomatic CoolingMode = iota
	// CoolingModeManual enables the user static fan control profile
	CoolingModeManual
)

func (m CoolingMode) String() string {
	switch m {
	case CoolingModeManual:
		return "manual"
	default:
		return "automatic"
	}
}

// TemperatureSensor is a single parsed reading from the SDR temperature list.
type TemperatureSensor struct {
	Name     string  `json:"name"`
	EntityId string  `json:"entityId"`
	Value    float64 `json:"value"`
}

// IsCpu indicates whether this sensor belongs to a processor entity.
// Dell SDRs report processor sensors with entity ids of the form "3.x".
func (s TemperatureSensor) IsCpu() bool {
	return len(s.EntityId) >= 2 && s.EntityId[:2] == "3."
}

// FanSpeed is the RPM reading of a single chassis fan.
type FanSpeed struct {
	FanId int `json:"fanId"`
	Rpm   int `json:"rpm"`
}

type ServerInfo struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
}

var gen14Pattern = regexp.MustCompile(`.*[RT]\s?[0-9][4-9]0.*`)

// IsGen14OrNewer detects 14th generation (and newer) PowerEdge servers from
// the board product name. Those generations no longer expose the raw command
// for the third-party PCIe cooling response.
func (s ServerInfo) IsGen14OrNewer() bool {
	return gen14Pattern.MatchString(s.Model)
}

// Gateway issues IPMI get/set operations against an iDRAC, either through the
// local IPMI device or over LAN. Implementations return parsed readings or a
// typed error, they never substitute placeholder values.
type Gateway interface {
	// ReadTemperatures returns all temperature sensor readings
	ReadTemperatures(ctx context.Context) ([]TemperatureSensor, error)

	// ReadFanSpeeds returns the RPM readings of all chassis fans, ordered by fan id
	ReadFanSpeeds(ctx context.Context) ([]FanSpeed, error)

	// SetFanDuty sets the manual fan duty cycle (1..100 percent)
	SetFanDuty(ctx context.Context, percent int) error

	// SetCoolingMode switches between the Dell automatic profile and manual control
	SetCoolingMode(ctx context.Context, mode CoolingMode) error

	// SetThirdPartyPCIeResponse enables or disables the Dell default cooling
	// response for third-party PCIe cards
	SetThirdPartyPCIeResponse(ctx context.Context, enabled bool) error

	// ServerInfo reads the board manufacturer and product from the FRU inventory
	ServerInfo(ctx context.Context) (ServerInfo, error)
}
