package main

import (
	"log"
	"strings"

	"salesetl/internal/config"
	"salesetl/internal/metrics"
	"salesetl/internal/metrics/datadog"
	"salesetl/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns a function that
// flushes it. An unusable backend is logged and metrics stay disabled.
func setupMetrics(job string, m config.Metrics, verbose bool) (flush func()) {
	nop := func() {}
	backend := strings.ToLower(m.Backend)

	var (
		b   metrics.Backend
		err error
	)
	switch backend {
	case "prometheus", "prom", "pushgateway":
		b, err = prompush.NewBackend(job, m.PushgatewayURL)
	case "datadog", "dd":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			GlobalTags: []string{"job:" + job},
		})
	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", m.Backend)
		}
		return nop
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", m.Backend)
		return nop
	}
	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", backend, err)
		return nop
	}

	log.Printf("metrics: backend=%s job_name=%s", backend, job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}
