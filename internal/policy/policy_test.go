package policy

import (
	"testing"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/sensors"
	"github.com/stretchr/testify/assert"
)

func defaultParams() Params {
	return Params{
		ThresholdC:      60,
		BaseDutyPercent: 25,
		MaxDutyPercent:  100,
		DynamicUpdates:  false,
		BandC:           15,
		UseJunction:     true,
	}
}

func readingAt(junctionC float64) sensors.TemperatureReading {
	return sensors.TemperatureReading{
		CpuPackageC:  junctionC - 15,
		CpuJunctionC: junctionC,
	}
}

func TestDecideBelowThreshold(t *testing.T) {
	// GIVEN
	params := defaultParams()

	// WHEN
	decision := Decide(readingAt(55), params)

	// THEN
	assert.Equal(t, ipmi.CoolingModeManual, decision.Mode)
	assert.Equal(t, 25, decision.DutyPercent)
}

func TestDecideAboveThreshold(t *testing.T) {
	// GIVEN
	params := defaultParams()

	// WHEN
	decision := Decide(readingAt(61), params)

	// THEN
	assert.Equal(t, ipmi.CoolingModeAutomatic, decision.Mode)
	// the duty is the iDRAC's business in automatic mode
	assert.Equal(t, 0, decision.DutyPercent)
}

func TestDecideAtThresholdIsAutomatic(t *testing.T) {
	// GIVEN
	params := defaultParams()

	// WHEN
	decision := Decide(readingAt(60), params)

	// THEN
	assert.Equal(t, ipmi.CoolingModeAutomatic, decision.Mode)
}

func TestDecideReturnsToManualWhenCooledDown(t *testing.T) {
	// GIVEN
	params := defaultParams()

	// WHEN
	hot := Decide(readingAt(61), params)
	cooled := Decide(readingAt(59), params)

	// THEN
	assert.Equal(t, ipmi.CoolingModeAutomatic, hot.Mode)
	assert.Equal(t, ipmi.CoolingModeManual, cooled.Mode)
	assert.Equal(t, 25, cooled.DutyPercent)
}

func TestDecidePackageSource(t *testing.T) {
	// GIVEN a junction estimate above the threshold but a package
	// temperature below it
	params := defaultParams()
	params.UseJunction = false
	reading := sensors.TemperatureReading{CpuPackageC: 55, CpuJunctionC: 70}

	// WHEN
	decision := Decide(reading, params)

	// THEN
	assert.Equal(t, ipmi.CoolingModeManual, decision.Mode)
}

func TestDecideDynamicDutyAtBandEdges(t *testing.T) {
	// GIVEN
	params := defaultParams()
	params.DynamicUpdates = true

	// WHEN
	atBandStart := Decide(readingAt(45), params)
	belowBand := Decide(readingAt(30), params)
	midBand := Decide(readingAt(52.5), params)

	// THEN
	assert.Equal(t, ipmi.CoolingModeManual, atBandStart.Mode)
	assert.Equal(t, 25, atBandStart.DutyPercent)
	assert.Equal(t, 25, belowBand.DutyPercent)
	assert.Equal(t, 63, midBand.DutyPercent)
}

func TestDecideDynamicDutyIsMonotonic(t *testing.T) {
	// GIVEN
	params := defaultParams()
	params.DynamicUpdates = true

	// WHEN / THEN
	previousDuty := 0
	for junction := 30.0; junction < params.ThresholdC; junction += 0.5 {
		decision := Decide(readingAt(junction), params)
		assert.Equal(t, ipmi.CoolingModeManual, decision.Mode)
		assert.GreaterOrEqual(t, decision.DutyPercent, previousDuty)
		assert.GreaterOrEqual(t, decision.DutyPercent, params.BaseDutyPercent)
		assert.LessOrEqual(t, decision.DutyPercent, params.MaxDutyPercent)
		previousDuty = decision.DutyPercent
	}
}

func TestDecideDynamicDutyNeverExceedsMax(t *testing.T) {
	// GIVEN
	params := defaultParams()
	params.DynamicUpdates = true
	params.MaxDutyPercent = 80

	// WHEN
	decision := Decide(readingAt(59.9), params)

	// THEN
	assert.Equal(t, ipmi.CoolingModeManual, decision.Mode)
	assert.LessOrEqual(t, decision.DutyPercent, 80)
	assert.GreaterOrEqual(t, decision.DutyPercent, 79)
}
