package sensors

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/util"
	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/exp/slices"
)

// LastReadings holds the most recent value of every temperature sensor by
// name, shared with the statistics collectors and the REST layer.
var LastReadings = cmap.New[float64]()

// TemperatureReading is an immutable snapshot of the thermal state for one tick.
type TemperatureReading struct {
	CpuPackageC  float64   `json:"cpuPackageC"`
	CpuJunctionC float64   `json:"cpuJunctionC"`
	InletC       *float64  `json:"inletC,omitempty"`
	ExhaustC     *float64  `json:"exhaustC,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// FanTelemetry is the per-fan RPM snapshot together with the RPM bounds in
// effect (configured or calibrated).
type FanTelemetry struct {
	Fans   []ipmi.FanSpeed `json:"fans"`
	RpmMin int             `json:"rpmMin"`
	RpmMax int             `json:"rpmMax"`
}

// DutyEstimate maps an RPM reading back onto a duty percentage within the
// known RPM bounds.
func (t FanTelemetry) DutyEstimate(rpm int) int {
	if t.RpmMax == t.RpmMin {
		return 0
	}
	ratio := util.Ratio(float64(rpm), float64(t.RpmMin), float64(t.RpmMax))
	return int(math.Round(util.Coerce(ratio*100, 0, 100)))
}

// Reader polls temperatures and fan telemetry through the IPMI gateway and
// normalizes multi-CPU and multi-fan readings into representative aggregates.
type Reader struct {
	gateway ipmi.Gateway

	junctionOffset       float64
	preferDirectJunction bool

	rpmMin int
	rpmMax int
}

func NewReader(gateway ipmi.Gateway, junctionOffset float64, preferDirectJunction bool, rpmMin int, rpmMax int) *Reader {
	return &Reader{
		gateway:              gateway,
		junctionOffset:       junctionOffset,
		preferDirectJunction: preferDirectJunction,
		rpmMin:               rpmMin,
		rpmMax:               rpmMax,
	}
}

// SetRpmBounds installs calibrated RPM bounds, replacing the configured ones
// for the remainder of the process lifetime.
func (r *Reader) SetRpmBounds(rpmMin int, rpmMax int) {
	r.rpmMin = rpmMin
	r.rpmMax = rpmMax
}

// ReadTemperature reads all temperature sensors and aggregates them into a
// single snapshot. The maximum CPU package temperature across all detected
// packages drives the reading, since the worst-case package dictates the
// cooling need. The junction temperature is taken from a dedicated junction
// sensor when available and preferred, otherwise derived as package plus the
// configured offset. Failures surface as errors, never as placeholder values.
func (r *Reader) ReadTemperature(ctx context.Context) (TemperatureReading, error) {
	readings, err := r.gateway.ReadTemperatures(ctx)
	if err != nil {
		return TemperatureReading{}, err
	}

	var packageTemps []float64
	var junction *float64
	var inlet *float64
	var exhaust *float64

	for _, sensor := range readings {
		LastReadings.Set(sensor.Name, sensor.Value)

		name := strings.ToLower(sensor.Name)
		switch {
		case strings.Contains(name, "junction"):
			value := sensor.Value
			junction = &value
		case strings.Contains(name, "inlet"):
			value := sensor.Value
			inlet = &value
		case strings.Contains(name, "exhaust"):
			value := sensor.Value
			exhaust = &value
		case sensor.IsCpu():
			packageTemps = append(packageTemps, sensor.Value)
		}
	}

	if len(packageTemps) == 0 {
		return TemperatureReading{}, fmt.Errorf("%w: no cpu package temperature found", ipmi.ErrParse)
	}

	reading := TemperatureReading{
		CpuPackageC: slices.Max(packageTemps),
		InletC:      inlet,
		ExhaustC:    exhaust,
		Timestamp:   time.Now(),
	}

	if junction != nil && r.preferDirectJunction {
		reading.CpuJunctionC = *junction
	} else {
		reading.CpuJunctionC = reading.CpuPackageC + r.junctionOffset
	}

	LastReadings.Set("CPU Package", reading.CpuPackageC)
	LastReadings.Set("CPU Junction", reading.CpuJunctionC)

	return reading, nil
}

// ReadFanTelemetry reads the per-fan RPM values, ordered by fan id.
func (r *Reader) ReadFanTelemetry(ctx context.Context) (FanTelemetry, error) {
	fans, err := r.gateway.ReadFanSpeeds(ctx)
	if err != nil {
		return FanTelemetry{}, err
	}

	return FanTelemetry{
		Fans:   fans,
		RpmMin: r.rpmMin,
		RpmMax: r.rpmMax,
	}, nil
}
