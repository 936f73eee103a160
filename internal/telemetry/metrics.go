package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// DevicesCollected counts device records produced by an inventory source
	DevicesCollected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devcert",
			Name:      "devices_collected_total",
			Help:      "Total number of device records collected from an inventory source",
		},
		[]string{"source"},
	)

	// CollectionErrors counts failed inventory collections
	CollectionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devcert",
			Name:      "collection_errors_total",
			Help:      "Total number of failed inventory collections",
		},
		[]string{"source"},
	)

	// HardwareClassified counts devices by hardware classification outcome
	HardwareClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devcert",
			Name:      "hardware_classified_total",
			Help:      "Total number of devices classified by hardware model",
		},
		[]string{"status"},
	)

	// VersionClassified counts affected-model devices by version outcome
	VersionClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devcert",
			Name:      "version_classified_total",
			Help:      "Total number of devices classified by software version",
		},
		[]string{"outcome"},
	)

	// ReportsGenerated counts written reports
	ReportsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "devcert",
			Name:      "reports_generated_total",
			Help:      "Total number of reports written",
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// It is idempotent.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(DevicesCollected)
		prometheus.DefaultRegisterer.Register(CollectionErrors)
		prometheus.DefaultRegisterer.Register(HardwareClassified)
		prometheus.DefaultRegisterer.Register(VersionClassified)
		prometheus.DefaultRegisterer.Register(ReportsGenerated)
	})
}

// WriteMetrics writes the default registry in the Prometheus text format to
// path, for pickup by a node exporter textfile collector.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
