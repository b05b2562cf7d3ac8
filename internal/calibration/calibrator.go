package calibration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/util"
)

// ErrCalibration indicates that the calibration sweep completed but did not
// produce a usable RPM range.
var ErrCalibration = errors.New("calibration failed")

// Result is the outcome of a calibration sweep.
type Result struct {
	// MinObservedRpm is the settled RPM at the lowest sweep duty.
	MinObservedRpm int `json:"minObservedRpm"`
	// MaxObservedRpm is the settled RPM at the highest sweep duty.
	MaxObservedRpm int `json:"maxObservedRpm"`
	// Sweep maps each duty percentage to the settled RPM observed there.
	Sweep map[int]float64 `json:"sweep"`
	// Timestamp is when the sweep finished.
	Timestamp time.Time `json:"timestamp"`
}

// Calibrator measures the real RPM range of the fans by sweeping through
// manual duty values and waiting for the fans to settle at each step.
type Calibrator struct {
	gateway ipmi.Gateway

	// neutralDuty is restored after the sweep, successful or not.
	neutralDuty int

	// SettleDelay is the wait between RPM polls while the fans spin up.
	SettleDelay time.Duration
	// MaxSettleAttempts bounds the settle wait per duty step.
	MaxSettleAttempts int
	// RpmDiffThreshold is the RPM delta below which a fan counts as settled.
	RpmDiffThreshold float64
}

func NewCalibrator(gateway ipmi.Gateway, neutralDuty int) *Calibrator {
	return &Calibrator{
		gateway:           gateway,
		neutralDuty:       neutralDuty,
		SettleDelay:       2 * time.Second,
		MaxSettleAttempts: 10,
		RpmDiffThreshold:  50,
	}
}

// DefaultDutySweep returns the duty steps used when no explicit sweep is given.
func DefaultDutySweep() []int {
	duties := []int{1}
	for duty := 10; duty <= 100; duty += 10 {
		duties = append(duties, duty)
	}
	return duties
}

// Calibrate switches the fans to manual control and sweeps through the given
// ascending duty values, recording the settled RPM at each step. The observed
// RPM range spans from the settled RPM at the lowest duty to the one at the
// highest. The duty is restored to the neutral value before returning.
func (c *Calibrator) Calibrate(ctx context.Context, duties []int) (Result, error) {
	if len(duties) == 0 {
		duties = DefaultDutySweep()
	}

	if err := c.gateway.SetCoolingMode(ctx, ipmi.CoolingModeManual); err != nil {
		return Result{}, err
	}
	defer func() {
		if err := c.gateway.SetFanDuty(context.Background(), c.neutralDuty); err != nil {
			ui.Warning("Could not restore fan duty to %d%% after calibration: %v", c.neutralDuty, err)
		}
	}()

	result := Result{
		Sweep:     map[int]float64{},
		Timestamp: time.Now(),
	}

	for _, duty := range duties {
		ui.Debug("Calibrating at %d%% duty", duty)
		if err := c.gateway.SetFanDuty(ctx, duty); err != nil {
			return Result{}, err
		}

		rpm, err := c.waitForFansToSettle(ctx)
		if err != nil {
			return Result{}, err
		}
		result.Sweep[duty] = rpm
	}

	minRpm := result.Sweep[duties[0]]
	maxRpm := result.Sweep[duties[len(duties)-1]]
	if minRpm >= maxRpm {
		return Result{}, fmt.Errorf("%w: rpm did not increase with duty (%.0f >= %.0f)", ErrCalibration, minRpm, maxRpm)
	}

	result.MinObservedRpm = int(math.Round(minRpm))
	result.MaxObservedRpm = int(math.Round(maxRpm))
	return result, nil
}

// waitForFansToSettle polls the representative fan RPM until the recent
// readings stop changing or the attempt budget runs out, then returns an
// averaged confirmation reading.
func (c *Calibrator) waitForFansToSettle(ctx context.Context) (float64, error) {
	const windowSize = 3

	diffWindow := util.CreateRollingWindow(windowSize)
	util.FillWindow(diffWindow, windowSize, 2*c.RpmDiffThreshold)

	lastRpm, err := c.representativeRpm(ctx)
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < c.MaxSettleAttempts; attempt++ {
		if util.GetWindowMax(diffWindow) < c.RpmDiffThreshold {
			break
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(c.SettleDelay):
		}

		rpm, err := c.representativeRpm(ctx)
		if err != nil {
			return 0, err
		}
		diffWindow.Append(math.Abs(rpm - lastRpm))
		lastRpm = rpm
	}

	// confirm with a couple of additional readings to smooth out jitter
	confirmations := []float64{lastRpm}
	for i := 0; i < 2; i++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(c.SettleDelay):
		}
		rpm, err := c.representativeRpm(ctx)
		if err != nil {
			return 0, err
		}
		confirmations = append(confirmations, rpm)
	}

	return util.Avg(confirmations), nil
}

// representativeRpm reads all fans and returns the first fan's RPM. The
// chassis fans are driven by a single duty register, so any fan tracks the
// applied duty.
func (c *Calibrator) representativeRpm(ctx context.Context) (float64, error) {
	fans, err := c.gateway.ReadFanSpeeds(ctx)
	if err != nil {
		return 0, err
	}
	if len(fans) == 0 {
		return 0, fmt.Errorf("%w: no fans reported during calibration", ipmi.ErrParse)
	}
	return float64(fans[0].Rpm), nil
}
