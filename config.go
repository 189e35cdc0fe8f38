// Copyright 2026 Blocksecure Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chainseal

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	dataDir          string
	anchorer         string
	apiListenAddress string
	confirmDelayMin  time.Duration
	confirmDelayMax  time.Duration
	confirmRate      float64
	initialHeight    uint64
	tracing          bool
	tracingStdout    bool
	shutdownTimeout  time.Duration
}

// ConfigOptionFunc is a type that represents functions that modify the
// service config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new chainseal config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (s *Service) configValidate() error {
	if s.config.confirmDelayMin < 0 || s.config.confirmDelayMax < 0 {
		return fmt.Errorf(
			"invalid confirmation delay interval: %s - %s",
			s.config.confirmDelayMin,
			s.config.confirmDelayMax,
		)
	}
	if s.config.confirmDelayMax > 0 &&
		s.config.confirmDelayMax < s.config.confirmDelayMin {
		return fmt.Errorf(
			"invalid confirmation delay interval: %s - %s",
			s.config.confirmDelayMin,
			s.config.confirmDelayMax,
		)
	}
	if s.config.confirmRate < 0 || s.config.confirmRate > 1 {
		return fmt.Errorf(
			"invalid confirmation rate: %f",
			s.config.confirmRate,
		)
	}
	return nil
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithDataDir specifies the persistent data directory to use. The default is to store everything in memory
func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithAnchorer specifies the anchorer address recorded on every anchor
func WithAnchorer(anchorer string) ConfigOptionFunc {
	return func(c *Config) {
		c.anchorer = anchorer
	}
}

// WithApiListenAddress specifies the listen address for the REST API
// server. An empty string disables the server. The default is empty
// (disabled)
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithConfirmDelay specifies the interval that transaction confirmation
// delays are drawn from. The default is 2-5 seconds
func WithConfirmDelay(minDelay, maxDelay time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.confirmDelayMin = minDelay
		c.confirmDelayMax = maxDelay
	}
}

// WithConfirmRate specifies the probability that a pending transaction
// confirms rather than fails. The default is 0.95
func WithConfirmRate(rate float64) ConfigOptionFunc {
	return func(c *Config) {
		c.confirmRate = rate
	}
}

// WithInitialHeight specifies the starting value of the global height
// counter. The default is 150000
func WithInitialHeight(height uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.initialHeight = height
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
