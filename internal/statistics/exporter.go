package statistics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "idrac_fan_controller"
)

func Register(collector prometheus.Collector) {
	prometheus.MustRegister(collector)
}
