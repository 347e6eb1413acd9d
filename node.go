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

// Package stakegov wires the governance ledger to its storage, event bus and
// tracing.
package stakegov

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/event"
	"github.com/blinklabs-io/stakegov/governance"
)

const (
	serviceName            = "stakegov"
	defaultShutdownTimeout = 30 * time.Second
)

var (
	ErrNodeStarted = errors.New("node already started")
	ErrNodeStopped = errors.New("node stopped")
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	governance    *governance.Governance
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	startOnce     sync.Once
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		eventBus.Stop()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Start opens the database and creates the governance ledger. It may only be
// called once.
func (n *Node) Start() error {
	err := ErrNodeStarted
	n.startOnce.Do(func() {
		err = n.start()
	})
	return err
}

func (n *Node) start() error {
	select {
	case <-n.done:
		return ErrNodeStopped
	default:
	}
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	dbConfig := &database.Config{
		DataDir:        n.config.dataDir,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
	}
	db, err := database.New(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Load governance
	gov, err := governance.New(governance.Config{
		Database:     n.db,
		Tally:        n.config.tally,
		Stake:        n.config.stake,
		Supply:       n.config.supply,
		EventBus:     n.eventBus,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		Features:     n.config.features,
		Clock:        n.config.clock,
	})
	if err != nil {
		return fmt.Errorf("failed to load governance: %w", err)
	}
	n.governance = gov
	n.config.logger.Debug(
		"node started",
		"component", "node",
		"data_dir", n.config.dataDir,
	)
	return nil
}

// Governance returns the governance ledger, or nil before Start
func (n *Node) Governance() *governance.Governance {
	return n.governance
}

// Database returns the underlying database, or nil before Start
func (n *Node) Database() *database.Database {
	return n.db
}

// EventBus returns the event bus that carries governance module events
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := defaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown", "component", "node")

	// Stop delivering events before the store goes away
	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete", "component", "node")
	close(n.done)
	return err
}

func (n *Node) setupTracing() error {
	ctx := context.Background()
	var exporter sdktrace.SpanExporter
	var err error
	if n.config.tracingStdout {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	} else {
		exporter, err = otlptracehttp.New(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(
			resource.NewSchemaless(
				attribute.String("service.name", serviceName),
			),
		),
	)
	otel.SetTracerProvider(tp)
	n.shutdownFuncs = append(n.shutdownFuncs, tp.Shutdown)
	return nil
}
