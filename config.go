// Copyright 2026 Blink Labs Software
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

package stakegov

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/stakegov/governance"
)

type Config struct {
	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	tally           governance.TallyLedger
	stake           governance.StakeProvider
	supply          governance.SupplyProvider
	clock           func() time.Time
	dataDir         string
	blobPlugin      string
	metadataPlugin  string
	features        governance.Features
	tracing         bool
	tracingStdout   bool
	shutdownTimeout time.Duration
}

func (n *Node) configValidate() error {
	if n.config.tally == nil {
		return errors.New("no tally ledger defined")
	}
	if n.config.stake == nil {
		return errors.New("no stake provider defined")
	}
	if n.config.tracingStdout && !n.config.tracing {
		return errors.New("stdout tracing requires tracing to be enabled")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new node config with the specified options
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

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. Metrics are disabled by default
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTallyLedger specifies the ledger that stores proposals and their tallies
func WithTallyLedger(tally governance.TallyLedger) ConfigOptionFunc {
	return func(c *Config) {
		c.tally = tally
	}
}

// WithStakeProvider specifies the source of stake pool balances and validator set membership
func WithStakeProvider(stake governance.StakeProvider) ConfigOptionFunc {
	return func(c *Config) {
		c.stake = stake
	}
}

// WithSupplyProvider specifies the source of the total token supply. Without one, proposals have no early resolution threshold
func WithSupplyProvider(supply governance.SupplyProvider) ConfigOptionFunc {
	return func(c *Config) {
		c.supply = supply
	}
}

// WithFeatures specifies the governance feature flags
func WithFeatures(features governance.Features) ConfigOptionFunc {
	return func(c *Config) {
		c.features = features
	}
}

// WithClock specifies the source of the current time. This is mostly useful for testing
func WithClock(clock func() time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clock
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

// WithShutdownTimeout specifies how long Stop waits for tracing exporters to flush
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
