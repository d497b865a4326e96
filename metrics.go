package main

import (
	"net/http"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	promRegistry = prom.NewRegistry()

	rendersTotal             = prom.NewCounter(prom.CounterOpts{Namespace: "simply_analog", Name: "renders_total", Help: "Frames rendered"})
	configUpdatesTotal       = prom.NewCounter(prom.CounterOpts{Namespace: "simply_analog", Name: "config_updates_total", Help: "Face configuration changes persisted"})
	configFieldsIgnoredTotal = prom.NewCounter(prom.CounterOpts{Namespace: "simply_analog", Name: "config_fields_ignored_total", Help: "Malformed configuration message fields that were skipped"})
	alertsTotal              = prom.NewCounterVec(prom.CounterOpts{Namespace: "simply_analog", Name: "alerts_total", Help: "Disconnect alerts played"}, []string{"style"})

	batteryPercent     = prom.NewGauge(prom.GaugeOpts{Namespace: "simply_analog", Name: "battery_percent", Help: "Last battery reading"})
	companionConnected = prom.NewGauge(prom.GaugeOpts{Namespace: "simply_analog", Name: "companion_connected", Help: "1 when the companion is reachable"})
	quietHoursActive   = prom.NewGauge(prom.GaugeOpts{Namespace: "simply_analog", Name: "quiet_hours_active", Help: "1 during quiet hours"})
)

var registerMetricsOnce sync.Once

func registerMetrics() {
	registerMetricsOnce.Do(func() {
		promRegistry.MustRegister(rendersTotal, configUpdatesTotal, configFieldsIgnoredTotal, alertsTotal)
		promRegistry.MustRegister(batteryPercent, companionConnected, quietHoursActive)
		promRegistry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	})
}

// metricsHandler serves the registry in the Prometheus exposition format.
func metricsHandler() http.Handler {
	registerMetrics()
	return promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
