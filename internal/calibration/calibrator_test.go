package calibration

import (
	"context"
	"testing"
	"time"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/stretchr/testify/assert"
)

// rampingGateway simulates fans that move toward a duty-proportional RPM a
// little more on every read.
type rampingGateway struct {
	currentRpm float64
	targetRpm  float64

	flat bool

	dutyHistory []int
	modeHistory []ipmi.CoolingMode
}

func (g *rampingGateway) ReadTemperatures(ctx context.Context) ([]ipmi.TemperatureSensor, error) {
	return nil, nil
}

func (g *rampingGateway) ReadFanSpeeds(ctx context.Context) ([]ipmi.FanSpeed, error) {
	g.currentRpm += (g.targetRpm - g.currentRpm) * 0.8
	return []ipmi.FanSpeed{{FanId: 1, Rpm: int(g.currentRpm)}}, nil
}

func (g *rampingGateway) SetFanDuty(ctx context.Context, percent int) error {
	g.dutyHistory = append(g.dutyHistory, percent)
	if !g.flat {
		g.targetRpm = 2000 + float64(percent)*100
	}
	return nil
}

func (g *rampingGateway) SetCoolingMode(ctx context.Context, mode ipmi.CoolingMode) error {
	g.modeHistory = append(g.modeHistory, mode)
	return nil
}

func (g *rampingGateway) SetThirdPartyPCIeResponse(ctx context.Context, enabled bool) error {
	return nil
}

func (g *rampingGateway) ServerInfo(ctx context.Context) (ipmi.ServerInfo, error) {
	return ipmi.ServerInfo{}, nil
}

func fastCalibrator(gateway ipmi.Gateway, neutralDuty int) *Calibrator {
	calibrator := NewCalibrator(gateway, neutralDuty)
	calibrator.SettleDelay = time.Millisecond
	return calibrator
}

func TestCalibrateFindsRpmRange(t *testing.T) {
	// GIVEN
	gateway := &rampingGateway{currentRpm: 5000, targetRpm: 5000}
	calibrator := fastCalibrator(gateway, 25)

	// WHEN
	result, err := calibrator.Calibrate(context.Background(), nil)

	// THEN
	assert.NoError(t, err)
	assert.Less(t, result.MinObservedRpm, result.MaxObservedRpm)
	assert.InDelta(t, 2100, result.MinObservedRpm, 100)
	assert.InDelta(t, 12000, result.MaxObservedRpm, 100)
	assert.Len(t, result.Sweep, len(DefaultDutySweep()))
}

func TestCalibrateSwitchesToManualFirst(t *testing.T) {
	// GIVEN
	gateway := &rampingGateway{}
	calibrator := fastCalibrator(gateway, 25)

	// WHEN
	_, err := calibrator.Calibrate(context.Background(), []int{10, 100})

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []ipmi.CoolingMode{ipmi.CoolingModeManual}, gateway.modeHistory)
}

func TestCalibrateRestoresNeutralDuty(t *testing.T) {
	// GIVEN
	gateway := &rampingGateway{}
	calibrator := fastCalibrator(gateway, 25)

	// WHEN
	_, err := calibrator.Calibrate(context.Background(), []int{10, 100})

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 25, gateway.dutyHistory[len(gateway.dutyHistory)-1])
}

func TestCalibrateUnresponsiveFans(t *testing.T) {
	// GIVEN a fan that ignores the duty register
	gateway := &rampingGateway{currentRpm: 5000, targetRpm: 5000, flat: true}
	calibrator := fastCalibrator(gateway, 25)

	// WHEN
	_, err := calibrator.Calibrate(context.Background(), []int{10, 100})

	// THEN
	assert.ErrorIs(t, err, ErrCalibration)
	assert.Equal(t, 25, gateway.dutyHistory[len(gateway.dutyHistory)-1])
}

func TestCalibrateCancelled(t *testing.T) {
	// GIVEN
	gateway := &rampingGateway{}
	calibrator := fastCalibrator(gateway, 25)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// WHEN
	_, err := calibrator.Calibrate(ctx, []int{10, 100})

	// THEN
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultDutySweepIsAscending(t *testing.T) {
	// WHEN
	duties := DefaultDutySweep()

	// THEN
	assert.Equal(t, 1, duties[0])
	assert.Equal(t, 100, duties[len(duties)-1])
	for i := 1; i < len(duties); i++ {
		assert.Greater(t, duties[i], duties[i-1])
	}
}
