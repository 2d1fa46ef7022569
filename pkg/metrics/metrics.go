package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/imgship/pkg/transfer"
)

// Metrics tracks transfer outcomes.
//
// All metrics use the "imgship_" prefix.
type Metrics struct {
	registry *prometheus.Registry

	// Transfers counts finished sessions.
	// Labels: result=[complete, configuration, channel_unavailable,
	//                 channel_failure, encoding_overflow, canceled, unknown]
	Transfers *prometheus.CounterVec

	// BytesSent counts payload bytes flushed to the channel.
	BytesSent prometheus.Counter

	// Duration tracks session duration by outcome.
	// Labels: outcome=[success, failure]
	Duration *prometheus.HistogramVec

	// LastSuccess is the unix time of the last completed transfer.
	LastSuccess prometheus.Gauge

	// ImageSize is the payload size of the last session.
	ImageSize prometheus.Gauge
}

// New creates metrics registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Transfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgship_transfers_total",
				Help: "Total image transfer sessions by result",
			},
			[]string{"result"},
		),
		BytesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "imgship_bytes_sent_total",
				Help: "Total payload bytes flushed to the serial channel",
			},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "imgship_transfer_duration_seconds",
				Help: "Image transfer session duration in seconds",
				// bytewise transfers of a multi-MiB image at 115200 baud run for minutes
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"outcome"},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "imgship_last_success_timestamp_seconds",
				Help: "Unix time of the last completed transfer",
			},
		),
		ImageSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "imgship_image_size_bytes",
				Help: "Payload size of the last transfer session",
			},
		),
	}

	m.registry.MustRegister(
		m.Transfers,
		m.BytesSent,
		m.Duration,
		m.LastSuccess,
		m.ImageSize,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Observe records a finished session. res is ignored when err carries
// its own progress.
func (m *Metrics) Observe(res transfer.Result, err error, finished time.Time) {
	if m == nil {
		return
	}

	if err == nil {
		m.Transfers.WithLabelValues("complete").Inc()
		m.BytesSent.Add(float64(res.TotalBytes))
		m.Duration.WithLabelValues("success").Observe(res.Elapsed.Seconds())
		m.LastSuccess.Set(float64(finished.Unix()))
		m.ImageSize.Set(float64(res.TotalBytes))
		return
	}

	m.Transfers.WithLabelValues(transfer.KindOf(err).String()).Inc()
	var terr *transfer.Error
	if errors.As(err, &terr) {
		m.BytesSent.Add(float64(terr.BytesSent))
		m.Duration.WithLabelValues("failure").Observe(terr.Elapsed.Seconds())
		m.ImageSize.Set(float64(terr.TotalBytes))
	}
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
