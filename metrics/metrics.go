// Package metrics describes the last report run as Prometheus gauges that can be
// written to a node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ec2reporter/awsd/models"
)

const (
	LabelRegion = "region"
	LabelState  = "state"
	LabelStatus = "status"
	LabelFormat = "format"
	LabelStage  = "stage"
)

// Metrics holds the gauges of one run
type Metrics struct {
	registry *prometheus.Registry

	// Instances counts discovered instances.
	// Labels: region, state
	Instances *prometheus.GaugeVec

	// Regions counts regions by outcome (scanned, skipped, failed).
	// Labels: status
	Regions *prometheus.GaugeVec

	// ReportSize is the size in bytes of the written artifact.
	// Labels: format
	ReportSize *prometheus.GaugeVec

	// Delivery is 1 for the terminal stage the delivery pipeline reached.
	// Labels: stage
	Delivery *prometheus.GaugeVec

	LastRunTimestamp prometheus.Gauge
	LastRunDuration  prometheus.Gauge
	LastRunSuccess   prometheus.Gauge
}

// NewMetrics creates the run gauges and registers them with reg
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,

		Instances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ec2reporter_instances",
			Help: "Number of EC2 instances found in the last run",
		}, []string{LabelRegion, LabelState}),

		Regions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ec2reporter_regions",
			Help: "Number of regions by scan outcome in the last run",
		}, []string{LabelStatus}),

		ReportSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ec2reporter_report_size_bytes",
			Help: "Size of the report file written by the last run",
		}, []string{LabelFormat}),

		Delivery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ec2reporter_delivery_stage",
			Help: "Terminal Slack delivery stage of the last run (1 = reached)",
		}, []string{LabelStage}),

		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ec2reporter_last_run_timestamp_seconds",
			Help: "Unix timestamp of the end of the last run",
		}),

		LastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ec2reporter_last_run_duration_seconds",
			Help: "Wall time of the last run",
		}),

		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ec2reporter_last_run_success",
			Help: "Whether the last run produced a report or found nothing to report (1 = success, 0 = failed)",
		}),
	}

	reg.MustRegister(
		m.Instances,
		m.Regions,
		m.ReportSize,
		m.Delivery,
		m.LastRunTimestamp,
		m.LastRunDuration,
		m.LastRunSuccess,
	)
	return m
}

// RecordScan sets the instance and region gauges from a scan
func (m *Metrics) RecordScan(scan *models.ScanResult) {
	m.Instances.Reset()
	m.Regions.Reset()
	if scan == nil {
		return
	}

	for _, rec := range scan.Records {
		m.Instances.WithLabelValues(rec.Region, string(rec.State)).Inc()
	}

	scanned := len(scan.RegionsAttempted) - len(scan.SkippedRegions) - len(scan.FailedRegions)
	m.Regions.WithLabelValues("scanned").Set(float64(scanned))
	m.Regions.WithLabelValues("skipped").Set(float64(len(scan.SkippedRegions)))
	m.Regions.WithLabelValues("failed").Set(float64(len(scan.FailedRegions)))
}

// RecordArtifact sets the report size gauge
func (m *Metrics) RecordArtifact(artifact *models.Artifact) {
	m.ReportSize.Reset()
	if artifact != nil {
		m.ReportSize.WithLabelValues(string(artifact.Format)).Set(float64(artifact.Size))
	}
}

// RecordDelivery marks the stage the delivery pipeline ended in
func (m *Metrics) RecordDelivery(stage string) {
	m.Delivery.Reset()
	if stage != "" {
		m.Delivery.WithLabelValues(stage).Set(1)
	}
}

// RecordRun sets the run timing and success gauges
func (m *Metrics) RecordRun(started, finished time.Time, success bool) {
	m.LastRunTimestamp.Set(float64(finished.Unix()))
	m.LastRunDuration.Set(finished.Sub(started).Seconds())
	if success {
		m.LastRunSuccess.Set(1)
	} else {
		m.LastRunSuccess.Set(0)
	}
}

// WriteTextfile writes every registered metric to path in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
