package idxsparse

import (
	"cmp"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig is a config of the Prometheus metrics provided by the converter.
//
// An instance can be created only by the [Prometheus] function. The zero value is invalid.
type PrometheusConfig struct {
	// Namespace of the metrics whose options don't set their own.
	Namespace string
	// Subsystem of the metrics whose options don't set their own.
	Subsystem string
	// Options for the converted samples counter.
	Samples prometheus.CounterOpts
	// Options for the written batches counter.
	Batches prometheus.CounterOpts
	// Options for the non-zero pixels counter.
	Pixels prometheus.CounterOpts
	// Options for the decompressed bytes counter, labelled by stream.
	DecompressedBytes prometheus.CounterOpts
	// Options for the written bytes counter.
	WrittenBytes prometheus.CounterOpts
	// Options for the failed conversions counter, labelled by reason.
	Failures prometheus.CounterOpts
	// Options for the conversion duration histogram.
	Duration prometheus.HistogramOpts

	registerer prometheus.Registerer
}

// Prometheus returns a [PrometheusConfig] with the provided registerer. If registerer is nil,
// metrics will not be registered. Many default parameters can be configured by passing
// configuration functions.
func Prometheus(
	registerer prometheus.Registerer,
	configFuncs ...func(c *PrometheusConfig),
) *PrometheusConfig {
	const (
		namespace = "idxsparse"
		subsystem = ""
	)

	c := PrometheusConfig{
		registerer: registerer,
		Namespace:  namespace,
		Subsystem:  subsystem,
		Samples: prometheus.CounterOpts{
			Name: "samples",
			Help: "Number of samples encoded and written",
		},
		Batches: prometheus.CounterOpts{
			Name: "batches",
			Help: "Number of batches written to sinks",
		},
		Pixels: prometheus.CounterOpts{
			Name: "nonzero_pixels",
			Help: "Number of non-zero pixels encoded",
		},
		DecompressedBytes: prometheus.CounterOpts{
			Name: "decompressed_bytes",
			Help: "Number of bytes decompressed from archives",
		},
		WrittenBytes: prometheus.CounterOpts{
			Name: "written_bytes",
			Help: "Number of encoded bytes written to sinks",
		},
		Failures: prometheus.CounterOpts{
			Name: "failures",
			Help: "Number of failed conversions",
		},
		Duration: prometheus.HistogramOpts{
			Name:    "duration_seconds",
			Help:    "Duration of split conversion",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	}

	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	return &c
}

func (c *PrometheusConfig) metrics() *metrics {
	duration := c.Duration
	duration.Namespace = cmp.Or(duration.Namespace, c.Namespace)
	duration.Subsystem = cmp.Or(duration.Subsystem, c.Subsystem)

	m := metrics{
		samples:           prometheus.NewCounter(c.counterOpts(c.Samples)),
		batches:           prometheus.NewCounter(c.counterOpts(c.Batches)),
		pixels:            prometheus.NewCounter(c.counterOpts(c.Pixels)),
		decompressedBytes: prometheus.NewCounterVec(c.counterOpts(c.DecompressedBytes), []string{"stream"}),
		writtenBytes:      prometheus.NewCounter(c.counterOpts(c.WrittenBytes)),
		failures:          prometheus.NewCounterVec(c.counterOpts(c.Failures), []string{"reason"}),
		duration:          prometheus.NewHistogram(duration),
	}

	if c.registerer != nil {
		c.registerer.MustRegister(
			m.samples,
			m.batches,
			m.pixels,
			m.decompressedBytes,
			m.writtenBytes,
			m.failures,
			m.duration,
		)
	}

	return &m
}

func (c *PrometheusConfig) counterOpts(opts prometheus.CounterOpts) prometheus.CounterOpts {
	opts.Namespace = cmp.Or(opts.Namespace, c.Namespace)
	opts.Subsystem = cmp.Or(opts.Subsystem, c.Subsystem)
	return opts
}

type metrics struct {
	samples           prometheus.Counter
	batches           prometheus.Counter
	pixels            prometheus.Counter
	decompressedBytes *prometheus.CounterVec
	writtenBytes      prometheus.Counter
	failures          *prometheus.CounterVec
	duration          prometheus.Histogram
}
