// Package exporter publishes the latest perf snapshot of each element as
// Prometheus metrics.
package exporter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wesleyorama2/streamperf/internal/perf"
)

const namespace = "streamperf"

// Exporter holds the gauges for every element reporting through it. It uses
// a private registry so several exporters can live in one process.
type Exporter struct {
	registry *prometheus.Registry

	fps           *prometheus.GaugeVec
	bitrate       *prometheus.GaugeVec
	meanBitrate   *prometheus.GaugeVec
	cpuLoad       *prometheus.GaugeVec
	frameInterval *prometheus.GaugeVec
	frames        *prometheus.GaugeVec
	bytes         *prometheus.GaugeVec
}

// New creates an exporter with all metrics registered.
func New() *Exporter {
	labels := []string{"element"}
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		fps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fps",
			Help:      "Frames per second over the last bitrate interval.",
		}, labels),
		bitrate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bitrate_bits_per_second",
			Help:      "Bitrate over the last bitrate interval.",
		}, labels),
		meanBitrate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bitrate_mean_bits_per_second",
			Help:      "Smoothed bitrate (cumulative or moving average).",
		}, labels),
		cpuLoad: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_load_percent",
			Help:      "Host CPU busy percentage over the last bitrate interval.",
		}, labels),
		frameInterval: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame_interval_seconds",
			Help:      "Time between consecutive buffers in the current session.",
		}, []string{"element", "quantile"}),
		// Totals restart with every session, so they are gauges even
		// though they carry the _total suffix.
		frames: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Buffers seen in the current session.",
		}, labels),
		bytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Bytes seen in the current session.",
		}, labels),
	}

	e.registry.MustRegister(e.fps, e.bitrate, e.meanBitrate, e.cpuLoad, e.frameInterval, e.frames, e.bytes)
	return e
}

// Reporter returns a monitor.Reporter that updates the metrics of element.
func (e *Exporter) Reporter(element string) *ElementReporter {
	return &ElementReporter{exporter: e, element: element}
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, e.g. to gather in tests.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func (e *Exporter) observe(element string, snap perf.Snapshot) {
	e.fps.WithLabelValues(element).Set(snap.FPS)
	e.bitrate.WithLabelValues(element).Set(snap.Bps)
	e.meanBitrate.WithLabelValues(element).Set(snap.MeanBps)
	e.frames.WithLabelValues(element).Set(float64(snap.FrameCountTotal))
	e.bytes.WithLabelValues(element).Set(float64(snap.ByteCountTotal))

	if snap.CPULoad != nil {
		e.cpuLoad.WithLabelValues(element).Set(float64(*snap.CPULoad))
	} else {
		e.cpuLoad.DeleteLabelValues(element)
	}

	if snap.FrameInterval.Count > 0 {
		e.frameInterval.WithLabelValues(element, "0.5").Set(snap.FrameInterval.P50.Seconds())
		e.frameInterval.WithLabelValues(element, "0.95").Set(snap.FrameInterval.P95.Seconds())
		e.frameInterval.WithLabelValues(element, "0.99").Set(snap.FrameInterval.P99.Seconds())
		e.frameInterval.WithLabelValues(element, "1").Set(snap.FrameInterval.Max.Seconds())
	}
}

// ElementReporter feeds one element's snapshots into an Exporter.
type ElementReporter struct {
	exporter *Exporter
	element  string
}

// Report implements monitor.Reporter.
func (r *ElementReporter) Report(snap perf.Snapshot) error {
	r.exporter.observe(r.element, snap)
	return nil
}
