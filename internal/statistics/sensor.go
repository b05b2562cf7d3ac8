package statistics

import (
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/sensors"
	"github.com/prometheus/client_golang/prometheus"
)

const sensorSubsystem = "sensor"

type SensorCollector struct {
	temperature *prometheus.Desc
}

func NewSensorCollector() *SensorCollector {
	return &SensorCollector{
		temperature: prometheus.NewDesc(prometheus.BuildFQName(namespace, sensorSubsystem, "temperature_celsius"),
			"Last value of the temperature sensor",
			[]string{"name"}, nil,
		),
	}
}

func (collector *SensorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.temperature
}

func (collector *SensorCollector) Collect(ch chan<- prometheus.Metric) {
	for entry := range sensors.LastReadings.IterBuffered() {
		ch <- prometheus.MustNewConstMetric(collector.temperature, prometheus.GaugeValue, entry.Val, entry.Key)
	}
}
