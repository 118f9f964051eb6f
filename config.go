package idxsparse

import (
	"log/slog"

	"github.com/teenjuna/idxsparse/codec"
	"github.com/teenjuna/idxsparse/codec/sparse"
	"github.com/teenjuna/idxsparse/idx"
	"github.com/teenjuna/idxsparse/retry"
)

// DefaultBatchSize is the number of samples encoded and written together by default.
const DefaultBatchSize = 1000

// Config configures a [Converter]. Setters panic on invalid values.
type Config struct {
	codec      codec.Codec[idx.Sample]
	batchSize  int
	logger     *slog.Logger
	prometheus *PrometheusConfig
	checksums  bool
	retry      retry.Policy
}

type ConfigFunc = func(c *Config)

// Codec sets the output encoding. Default is the sparse text codec.
func (c *Config) Codec(codec codec.Codec[idx.Sample]) {
	if codec == nil {
		panic("codec can't be nil")
	}
	c.codec = codec
}

// BatchSize sets how many samples are encoded and written to the sink at once.
func (c *Config) BatchSize(size int) {
	if size < 1 {
		panic("batch size can't be < 1")
	}
	c.batchSize = size
}

func (c *Config) Logger(logger *slog.Logger) {
	if logger == nil {
		panic("logger can't be nil")
	}
	c.logger = logger
}

// Prometheus sets the metrics configuration. By default metrics are collected but not
// registered anywhere.
func (c *Config) Prometheus(prometheus *PrometheusConfig) {
	if prometheus == nil {
		panic("prometheus can't be nil")
	}
	c.prometheus = prometheus
}

// VerifyChecksums makes conversions compare archive digests with the ones carried by the
// [Split] before decompressing. Splits without digests are not checked.
func (c *Config) VerifyChecksums(verify bool) {
	c.checksums = verify
}

// WriteRetry sets the policy of retrying failed sink writes. By default writes aren't retried.
func (c *Config) WriteRetry(policy retry.Policy) {
	if policy == nil {
		panic("retry policy can't be nil")
	}
	c.retry = policy
}

func newConfig(configFuncs ...ConfigFunc) *Config {
	cfg := &Config{}
	cfg.Codec(sparse.New())
	cfg.BatchSize(DefaultBatchSize)
	cfg.Logger(slog.Default())
	cfg.Prometheus(Prometheus(nil))
	cfg.WriteRetry(retry.Fixed(1, 0))
	for _, cf := range configFuncs {
		if cf != nil {
			cf(cfg)
		}
	}
	return cfg
}
