package policy

import (
	"math"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/sensors"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/util"
)

// Params are the tuning knobs of the cooling decision.
type Params struct {
	// ThresholdC is the junction temperature at and above which cooling is
	// handed back to the iDRAC.
	ThresholdC float64

	// BaseDutyPercent is the manual duty applied at the bottom of the
	// dynamic band (and everywhere below it).
	BaseDutyPercent int

	// MaxDutyPercent caps the duty produced by dynamic updates.
	MaxDutyPercent int

	// DynamicUpdates scales the duty with temperature inside the band
	// below the threshold instead of pinning it at BaseDutyPercent.
	DynamicUpdates bool

	// BandC is the width of the dynamic band below the threshold.
	BandC float64

	// UseJunction drives the decision with the junction temperature
	// instead of the package temperature.
	UseJunction bool
}

// ControlDecision is the desired hardware state for one control tick.
// DutyPercent is only meaningful in manual mode, in automatic mode the
// iDRAC picks the duty itself.
type ControlDecision struct {
	Mode        ipmi.CoolingMode `json:"mode"`
	DutyPercent int              `json:"dutyPercent,omitempty"`
	Reason      string           `json:"reason"`
}

// Decide maps a temperature reading onto the desired cooling state.
//
// At or above the threshold the iDRAC takes over, unconditionally. Below it
// the fans run at a manual duty: the configured base duty, or, with dynamic
// updates enabled, a duty scaled linearly over the band just below the
// threshold. The decision is pure and depends only on the current reading,
// there is no hysteresis.
func Decide(reading sensors.TemperatureReading, params Params) ControlDecision {
	temperature := reading.CpuPackageC
	if params.UseJunction {
		temperature = reading.CpuJunctionC
	}

	if temperature >= params.ThresholdC {
		return ControlDecision{
			Mode:   ipmi.CoolingModeAutomatic,
			Reason: "temperature at or above threshold",
		}
	}

	if !params.DynamicUpdates {
		return ControlDecision{
			Mode:        ipmi.CoolingModeManual,
			DutyPercent: params.BaseDutyPercent,
			Reason:      "below threshold, static duty",
		}
	}

	bandStart := params.ThresholdC - params.BandC
	ratio := util.Ratio(temperature, bandStart, params.ThresholdC)
	duty := float64(params.BaseDutyPercent) + ratio*float64(params.MaxDutyPercent-params.BaseDutyPercent)
	duty = util.Coerce(duty, float64(params.BaseDutyPercent), float64(params.MaxDutyPercent))

	return ControlDecision{
		Mode:        ipmi.CoolingModeManual,
		DutyPercent: int(math.Round(duty)),
		Reason:      "below threshold, dynamic duty",
	}
}
