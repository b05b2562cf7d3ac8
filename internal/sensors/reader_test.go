package sensors

import (
	"context"
	"testing"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/stretchr/testify/assert"
)

type mockGateway struct {
	temperatures []ipmi.TemperatureSensor
	fans         []ipmi.FanSpeed
	readErr      error
}

func (g *mockGateway) ReadTemperatures(ctx context.Context) ([]ipmi.TemperatureSensor, error) {
	if g.readErr != nil {
		return nil, g.readErr
	}
	return g.temperatures, nil
}

func (g *mockGateway) ReadFanSpeeds(ctx context.Context) ([]ipmi.FanSpeed, error) {
	if g.readErr != nil {
		return nil, g.readErr
	}
	return g.fans, nil
}

func (g *mockGateway) SetFanDuty(ctx context.Context, percent int) error {
	return nil
}

func (g *mockGateway) SetCoolingMode(ctx context.Context, mode ipmi.CoolingMode) error {
	return nil
}

func (g *mockGateway) SetThirdPartyPCIeResponse(ctx context.Context, enabled bool) error {
	return nil
}

func (g *mockGateway) ServerInfo(ctx context.Context) (ipmi.ServerInfo, error) {
	return ipmi.ServerInfo{}, nil
}

func dualCpuTemperatures() []ipmi.TemperatureSensor {
	return []ipmi.TemperatureSensor{
		{Name: "Inlet Temp", EntityId: "7.1", Value: 24},
		{Name: "Exhaust Temp", EntityId: "7.1", Value: 33},
		{Name: "Temp", EntityId: "3.1", Value: 47},
		{Name: "Temp", EntityId: "3.2", Value: 51},
	}
}

func TestReadTemperatureAggregatesWorstCpu(t *testing.T) {
	// GIVEN
	gateway := &mockGateway{temperatures: dualCpuTemperatures()}
	reader := NewReader(gateway, 15, true, 2500, 12000)

	// WHEN
	reading, err := reader.ReadTemperature(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 51.0, reading.CpuPackageC)
	assert.Equal(t, 66.0, reading.CpuJunctionC)
	assert.Equal(t, 24.0, *reading.InletC)
	assert.Equal(t, 33.0, *reading.ExhaustC)
}

func TestReadTemperaturePrefersDirectJunctionSensor(t *testing.T) {
	// GIVEN
	temperatures := append(dualCpuTemperatures(), ipmi.TemperatureSensor{
		Name: "CPU Junction Temp", EntityId: "3.1", Value: 63,
	})
	gateway := &mockGateway{temperatures: temperatures}
	reader := NewReader(gateway, 15, true, 2500, 12000)

	// WHEN
	reading, err := reader.ReadTemperature(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 63.0, reading.CpuJunctionC)
}

func TestReadTemperatureOffsetWhenDirectNotPreferred(t *testing.T) {
	// GIVEN
	temperatures := append(dualCpuTemperatures(), ipmi.TemperatureSensor{
		Name: "CPU Junction Temp", EntityId: "3.1", Value: 63,
	})
	gateway := &mockGateway{temperatures: temperatures}
	reader := NewReader(gateway, 15, false, 2500, 12000)

	// WHEN
	reading, err := reader.ReadTemperature(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 66.0, reading.CpuJunctionC)
}

func TestReadTemperatureWithoutCpuSensors(t *testing.T) {
	// GIVEN
	gateway := &mockGateway{temperatures: []ipmi.TemperatureSensor{
		{Name: "Inlet Temp", EntityId: "7.1", Value: 24},
	}}
	reader := NewReader(gateway, 15, true, 2500, 12000)

	// WHEN
	_, err := reader.ReadTemperature(context.Background())

	// THEN
	assert.ErrorIs(t, err, ipmi.ErrParse)
}

func TestReadTemperatureSurfacesGatewayError(t *testing.T) {
	// GIVEN
	gateway := &mockGateway{readErr: ipmi.ErrTransport}
	reader := NewReader(gateway, 15, true, 2500, 12000)

	// WHEN
	_, err := reader.ReadTemperature(context.Background())

	// THEN
	assert.ErrorIs(t, err, ipmi.ErrTransport)
}

func TestReadFanTelemetry(t *testing.T) {
	// GIVEN
	gateway := &mockGateway{fans: []ipmi.FanSpeed{
		{FanId: 1, Rpm: 5640},
		{FanId: 2, Rpm: 5520},
	}}
	reader := NewReader(gateway, 15, true, 2500, 12000)

	// WHEN
	telemetry, err := reader.ReadFanTelemetry(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Len(t, telemetry.Fans, 2)
	assert.Equal(t, 2500, telemetry.RpmMin)
	assert.Equal(t, 12000, telemetry.RpmMax)
}

func TestSetRpmBoundsOverridesConfigured(t *testing.T) {
	// GIVEN
	gateway := &mockGateway{fans: []ipmi.FanSpeed{{FanId: 1, Rpm: 5000}}}
	reader := NewReader(gateway, 15, true, 2500, 12000)

	// WHEN
	reader.SetRpmBounds(3000, 11000)
	telemetry, err := reader.ReadFanTelemetry(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 3000, telemetry.RpmMin)
	assert.Equal(t, 11000, telemetry.RpmMax)
}

func TestDutyEstimate(t *testing.T) {
	// GIVEN
	telemetry := FanTelemetry{RpmMin: 2000, RpmMax: 12000}

	// THEN
	assert.Equal(t, 0, telemetry.DutyEstimate(2000))
	assert.Equal(t, 50, telemetry.DutyEstimate(7000))
	assert.Equal(t, 100, telemetry.DutyEstimate(12000))
	// readings outside the calibrated bounds are clamped
	assert.Equal(t, 0, telemetry.DutyEstimate(1000))
	assert.Equal(t, 100, telemetry.DutyEstimate(15000))
}

func TestDutyEstimateDegenerateBounds(t *testing.T) {
	// GIVEN
	telemetry := FanTelemetry{RpmMin: 5000, RpmMax: 5000}

	// THEN
	assert.Equal(t, 0, telemetry.DutyEstimate(5000))
}
