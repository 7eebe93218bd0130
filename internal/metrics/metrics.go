// Package metrics is a small, backend-agnostic facade for the operational
// metrics of the sales pipeline.
//
// A process-wide backend defaults to a no-op implementation, so calls are
// always safe even when no metrics system is configured. Concrete backends
// live in subpackages (prompush for a Prometheus Pushgateway, datadog for
// DogStatsD) and are installed once at startup with SetBackend.
//
// Metric names:
//
//	salesetl_stage_total            counter    labels: stage, status
//	salesetl_stage_duration_seconds histogram  labels: stage, status
//	salesetl_rows_total             counter    labels: stage, kind
//	salesetl_batches_total          counter    labels: stage
//	salesetl_batch_rows             histogram  labels: stage
package metrics

import "time"

const (
	StageTotal    = "salesetl_stage_total"
	StageDuration = "salesetl_stage_duration_seconds"
	RowsTotal     = "salesetl_rows_total"
	BatchesTotal  = "salesetl_batches_total"
	BatchRows     = "salesetl_batch_rows"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records one observation.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStage counts one execution of a pipeline stage ("transform",
// "load", "query") and observes its duration.
func RecordStage(stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"stage": stage, "status": status}
	backend.IncCounter(StageTotal, 1, lbls)
	backend.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRows adds delta rows of the given kind for a stage. Typical kinds:
// "read", "transformed", "inserted", and skip reasons such as "duplicate" or
// "bad_field".
func RecordRows(stage, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{"stage": stage, "kind": kind})
}

// RecordBatch counts one committed batch of the given size.
func RecordBatch(stage string, rows int) {
	lbls := Labels{"stage": stage}
	backend.IncCounter(BatchesTotal, 1, lbls)
	backend.ObserveHistogram(BatchRows, float64(rows), lbls)
}
