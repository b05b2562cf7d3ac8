package controller

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/calibration"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/configuration"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/persistence"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/policy"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/sensors"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/util"
	"github.com/qdm12/reprint"
)

type State int

const (
	StateInit State = iota
	StateCalibrating
	StateSteadyState
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "initializing"
	case StateCalibrating:
		return "calibrating"
	case StateSteadyState:
		return "steady"
	case StateShuttingDown:
		return "shutting down"
	default:
		return "unknown"
	}
}

// AppliedState is the last hardware state this controller successfully
// applied. A failed apply never updates it, so the next tick retries.
type AppliedState struct {
	// ModeKnown is false until the first successful apply; before that the
	// hardware is in whatever mode the iDRAC booted with.
	ModeKnown   bool             `json:"modeKnown"`
	Mode        ipmi.CoolingMode `json:"mode"`
	DutyPercent int              `json:"dutyPercent"`

	PcieResponseDisabled bool `json:"pcieResponseDisabled"`
}

// Status is a point-in-time snapshot of the controller for the REST API,
// the status file and the statistics collectors.
type Status struct {
	State      string          `json:"state"`
	ServerInfo ipmi.ServerInfo `json:"serverInfo"`

	LastReading  sensors.TemperatureReading `json:"lastReading"`
	LastDecision policy.ControlDecision     `json:"lastDecision"`
	Applied      AppliedState               `json:"applied"`
	Fans         sensors.FanTelemetry       `json:"fans"`

	LastError string    `json:"lastError,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FanController interface {
	// Run starts the control loop and blocks until the context is
	// cancelled, then restores automatic cooling.
	Run(ctx context.Context) error

	// Snapshot returns a deep copy of the current controller status.
	Snapshot() Status
}

type fanController struct {
	config      configuration.Configuration
	gateway     ipmi.Gateway
	reader      *sensors.Reader
	calibrator  *calibration.Calibrator
	persistence persistence.Persistence

	params policy.Params

	mu      sync.Mutex
	state   State
	status  Status
	applied AppliedState

	// restoreTimeout bounds the shutdown restore commands, which run on a
	// fresh context because the loop context is already cancelled.
	restoreTimeout time.Duration
}

func NewFanController(
	config configuration.Configuration,
	gateway ipmi.Gateway,
	reader *sensors.Reader,
	calibrator *calibration.Calibrator,
	p persistence.Persistence,
) FanController {
	return &fanController{
		config:      config,
		gateway:     gateway,
		reader:      reader,
		calibrator:  calibrator,
		persistence: p,
		params: policy.Params{
			ThresholdC:      config.CpuTemperatureThreshold,
			BaseDutyPercent: config.FanSpeed,
			MaxDutyPercent:  config.FanSpeedMax,
			DynamicUpdates:  config.EnableDynamicUpdates,
			BandC:           config.JunctionOffset,
			UseJunction:     config.TemperatureSource == configuration.TemperatureSourceJunction,
		},
		restoreTimeout: 30 * time.Second,
	}
}

func (f *fanController) Run(ctx context.Context) error {
	f.setState(StateInit)

	serverInfo, err := f.gateway.ServerInfo(ctx)
	if err != nil {
		// the loop can run without knowing the exact model, it just
		// loses the generation check for the PCIe response command
		ui.Warning("Could not read server info: %v", err)
	} else {
		ui.Info("Detected %s %s", serverInfo.Manufacturer, serverInfo.Model)
	}
	f.mu.Lock()
	f.status.ServerInfo = serverInfo
	f.mu.Unlock()

	f.applyPcieCoolingResponse(ctx, serverInfo)
	f.resolveRpmBounds(ctx, serverInfo)

	f.setState(StateSteadyState)
	ui.Info("Starting control loop with a check interval of %v", f.config.CheckInterval)

	ticker := time.NewTicker(f.config.CheckInterval)
	defer ticker.Stop()

	f.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			f.setState(StateShuttingDown)
			f.restore()
			return ctx.Err()
		case <-ticker.C:
			f.tick(ctx)
		}
	}
}

// applyPcieCoolingResponse disables the default cooling response for
// third-party PCIe cards when configured. Gen14 and newer servers dropped
// the command, so it is skipped there.
func (f *fanController) applyPcieCoolingResponse(ctx context.Context, serverInfo ipmi.ServerInfo) {
	if !f.config.DisableThirdPartyPcieCooling {
		return
	}
	if serverInfo.IsGen14OrNewer() {
		ui.Warning("Skipping third-party PCIe cooling response on %s, gen14+ does not support it", serverInfo.Model)
		return
	}

	if err := f.gateway.SetThirdPartyPCIeResponse(ctx, false); err != nil {
		ui.Warning("Could not disable third-party PCIe cooling response: %v", err)
		return
	}
	ui.Info("Disabled third-party PCIe card default cooling response")
	f.mu.Lock()
	f.applied.PcieResponseDisabled = true
	f.status.Applied = f.applied
	f.mu.Unlock()
}

// resolveRpmBounds installs the RPM bounds the duty estimation works with.
// A requested calibration drops the stale persisted result and runs a fresh
// sweep; otherwise a previously persisted calibration wins, with the
// configured bounds as the fallback.
func (f *fanController) resolveRpmBounds(ctx context.Context, serverInfo ipmi.ServerInfo) {
	serverId := serverInfo.Model
	if serverId == "" {
		serverId = "unknown"
	}

	if !f.config.CalibrateFans {
		if stored, err := f.persistence.LoadCalibration(serverId); err == nil {
			ui.Info("Using persisted fan calibration: %d..%d RPM", stored.MinObservedRpm, stored.MaxObservedRpm)
			f.reader.SetRpmBounds(stored.MinObservedRpm, stored.MaxObservedRpm)
		}
		return
	}

	if err := f.persistence.DeleteCalibration(serverId); err != nil {
		ui.Warning("Could not drop stale fan calibration: %v", err)
	}

	f.setState(StateCalibrating)
	ui.Info("Calibrating fans, this takes a few minutes...")
	result, err := f.calibrator.Calibrate(ctx, nil)
	if err != nil {
		ui.Warning("Fan calibration failed, falling back to configured RPM bounds: %v", err)
		return
	}

	ui.Info("Fan calibration done: %d..%d RPM", result.MinObservedRpm, result.MaxObservedRpm)
	f.reader.SetRpmBounds(result.MinObservedRpm, result.MaxObservedRpm)
	if err := f.persistence.SaveCalibration(serverId, result); err != nil {
		ui.Warning("Could not persist fan calibration: %v", err)
	}
}

// tick runs one control cycle: read, decide, apply the delta.
func (f *fanController) tick(ctx context.Context) {
	reading, err := f.reader.ReadTemperature(ctx)
	if err != nil {
		// no reading, no decision: leaving the hardware untouched is
		// safe because the iDRAC falls back to its own curve in
		// automatic mode and keeps the last duty in manual mode
		ui.Warning("Could not read temperatures, skipping cycle: %v", err)
		f.recordError(err)
		return
	}

	telemetry, err := f.reader.ReadFanTelemetry(ctx)
	if err != nil {
		// keep reporting the last good telemetry instead of a zeroed one
		ui.Warning("Could not read fan speeds: %v", err)
		f.mu.Lock()
		telemetry = f.status.Fans
		f.mu.Unlock()
	}

	decision := policy.Decide(reading, f.params)
	ui.Debug("CPU at %.1f°C (junction %.1f°C), want %s mode at %d%%",
		reading.CpuPackageC, reading.CpuJunctionC, decision.Mode, decision.DutyPercent)

	applyErr := f.apply(ctx, decision)

	f.mu.Lock()
	f.status.LastReading = reading
	f.status.LastDecision = decision
	f.status.Fans = telemetry
	f.status.Applied = f.applied
	f.status.UpdatedAt = time.Now()
	if applyErr != nil {
		f.status.LastError = applyErr.Error()
	} else {
		f.status.LastError = ""
	}
	f.mu.Unlock()

	f.writeStatusFile()
}

// apply brings the hardware to the decided state, skipping commands that
// would be no-ops. The applied state is only updated after the hardware
// accepted the command, so failures are retried on the next tick.
func (f *fanController) apply(ctx context.Context, decision policy.ControlDecision) error {
	f.mu.Lock()
	applied := f.applied
	f.mu.Unlock()

	if decision.Mode == ipmi.CoolingModeAutomatic {
		if applied.ModeKnown && applied.Mode == ipmi.CoolingModeAutomatic {
			return nil
		}
		if err := f.gateway.SetCoolingMode(ctx, ipmi.CoolingModeAutomatic); err != nil {
			ui.Warning("Could not hand cooling back to the iDRAC: %v", err)
			return err
		}
		ui.Info("Cooling handed back to the iDRAC")
		f.mu.Lock()
		f.applied.ModeKnown = true
		f.applied.Mode = ipmi.CoolingModeAutomatic
		f.mu.Unlock()
		return nil
	}

	modeMatches := applied.ModeKnown && applied.Mode == ipmi.CoolingModeManual
	if modeMatches && applied.DutyPercent == decision.DutyPercent {
		return nil
	}

	if !modeMatches {
		if err := f.gateway.SetCoolingMode(ctx, ipmi.CoolingModeManual); err != nil {
			ui.Warning("Could not switch to manual cooling: %v", err)
			return err
		}
	}
	if err := f.gateway.SetFanDuty(ctx, decision.DutyPercent); err != nil {
		ui.Warning("Could not set fan duty to %d%%: %v", decision.DutyPercent, err)
		return err
	}

	ui.Info("Fans set to manual control at %d%%", decision.DutyPercent)
	f.mu.Lock()
	f.applied.ModeKnown = true
	f.applied.Mode = ipmi.CoolingModeManual
	f.applied.DutyPercent = decision.DutyPercent
	f.mu.Unlock()
	return nil
}

// restore hands cooling back to the iDRAC and re-enables the PCIe cooling
// response on shutdown. Both commands are always attempted, a failure of
// one must not prevent the other: leaving the fans pinned at a low manual
// duty on a dead controller can cook the machine. The PCIe response is
// restored even when this process never disabled it, so a restart after a
// crash still returns the server to its vendor defaults.
func (f *fanController) restore() {
	ctx, cancel := context.WithTimeout(context.Background(), f.restoreTimeout)
	defer cancel()

	ui.Info("Restoring automatic cooling")
	if err := f.gateway.SetCoolingMode(ctx, ipmi.CoolingModeAutomatic); err != nil {
		ui.Error("Could not restore automatic cooling: %v", err)
	}

	if f.config.KeepThirdPartyPcieStateOnExit {
		return
	}

	f.mu.Lock()
	serverInfo := f.status.ServerInfo
	f.mu.Unlock()
	if serverInfo.IsGen14OrNewer() {
		return
	}

	if err := f.gateway.SetThirdPartyPCIeResponse(ctx, true); err != nil {
		ui.Error("Could not re-enable third-party PCIe cooling response: %v", err)
	}
}

func (f *fanController) setState(state State) {
	f.mu.Lock()
	f.state = state
	f.status.State = state.String()
	f.mu.Unlock()
	ui.Debug("Controller state: %s", state)
}

func (f *fanController) recordError(err error) {
	f.mu.Lock()
	f.status.LastError = err.Error()
	f.status.UpdatedAt = time.Now()
	f.mu.Unlock()
}

func (f *fanController) writeStatusFile() {
	if f.config.StatusFile == "" {
		return
	}
	data, err := json.MarshalIndent(f.Snapshot(), "", "  ")
	if err != nil {
		ui.Warning("Could not marshal status: %v", err)
		return
	}
	if err := util.WriteFileAtomic(f.config.StatusFile, data); err != nil {
		ui.Warning("Could not write status file %s: %v", f.config.StatusFile, err)
	}
}

func (f *fanController) Snapshot() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return reprint.This(f.status).(Status)
}
