package statistics

import (
	"strconv"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/controller"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ipmi"
	"github.com/prometheus/client_golang/prometheus"
)

const controllerSubsystem = "controller"

type ControllerCollector struct {
	controller controller.FanController

	manualMode *prometheus.Desc
	duty       *prometheus.Desc
	fanRpm     *prometheus.Desc
	rpmMin     *prometheus.Desc
	rpmMax     *prometheus.Desc
}

func NewControllerCollector(fanController controller.FanController) *ControllerCollector {
	return &ControllerCollector{
		controller: fanController,
		manualMode: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "manual_mode"),
			"1 while the fans are under manual control, 0 while the iDRAC is in charge",
			nil, nil,
		),
		duty: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "fan_duty_percent"),
			"Last fan duty applied in manual mode",
			nil, nil,
		),
		fanRpm: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "fan_rpm"),
			"Current RPM value of the fan",
			[]string{"id"}, nil,
		),
		rpmMin: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "fan_rpm_min"),
			"Lower RPM bound, configured or calibrated",
			nil, nil,
		),
		rpmMax: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "fan_rpm_max"),
			"Upper RPM bound, configured or calibrated",
			nil, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.manualMode
	ch <- collector.duty
	ch <- collector.fanRpm
	ch <- collector.rpmMin
	ch <- collector.rpmMax
}

func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	status := collector.controller.Snapshot()

	manual := 0.0
	if status.Applied.ModeKnown && status.Applied.Mode == ipmi.CoolingModeManual {
		manual = 1.0
	}
	ch <- prometheus.MustNewConstMetric(collector.manualMode, prometheus.GaugeValue, manual)
	ch <- prometheus.MustNewConstMetric(collector.duty, prometheus.GaugeValue, float64(status.Applied.DutyPercent))

	for _, fan := range status.Fans.Fans {
		ch <- prometheus.MustNewConstMetric(collector.fanRpm, prometheus.GaugeValue, float64(fan.Rpm), strconv.Itoa(fan.FanId))
	}
	ch <- prometheus.MustNewConstMetric(collector.rpmMin, prometheus.GaugeValue, float64(status.Fans.RpmMin))
	ch <- prometheus.MustNewConstMetric(collector.rpmMax, prometheus.GaugeValue, float64(status.Fans.RpmMax))
}
